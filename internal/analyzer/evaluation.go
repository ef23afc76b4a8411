package analyzer

import "github.com/fairlens/fairlens/internal/core/domain"

// evaluationPayload feeds the evaluation layer, which checks outcome
// equity across demographic groups and therefore receives the session's
// demographic attributes alongside the transcript.
type evaluationPayload struct {
	SessionID    string              `json:"session_id"`
	Content      domain.Content      `json:"content"`
	Demographics domain.Demographics `json:"demographics,omitempty"`
}

// NewEvaluation builds the adapter for the evaluation bias layer.
func NewEvaluation(scorer Scorer, opts ...Option) LayerAnalyzer {
	return newAdapter(domain.LayerEvaluation, scorer, func(s domain.SessionData) any {
		return evaluationPayload{
			SessionID:    s.SessionID,
			Content:      s.Content,
			Demographics: s.Demographics,
		}
	}, opts...)
}
