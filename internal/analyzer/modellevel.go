package analyzer

import "github.com/fairlens/fairlens/internal/core/domain"

// modelLevelPayload feeds the model-level layer, which inspects the
// trained model's behavior on the transcript rather than the text itself.
type modelLevelPayload struct {
	SessionID string         `json:"session_id"`
	Content   domain.Content `json:"content"`
}

// NewModelLevel builds the adapter for the model-level bias layer.
func NewModelLevel(scorer Scorer, opts ...Option) LayerAnalyzer {
	return newAdapter(domain.LayerModelLevel, scorer, func(s domain.SessionData) any {
		return modelLevelPayload{
			SessionID: s.SessionID,
			Content:   s.Content,
		}
	}, opts...)
}
