package analyzer

import (
	"time"

	"github.com/fairlens/fairlens/internal/core/domain"
)

// interactivePayload feeds the interactive layer, which looks at
// turn-taking dynamics, so it also receives the session timestamp.
type interactivePayload struct {
	SessionID string         `json:"session_id"`
	Content   domain.Content `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewInteractive builds the adapter for the interactive bias layer.
func NewInteractive(scorer Scorer, opts ...Option) LayerAnalyzer {
	return newAdapter(domain.LayerInteractive, scorer, func(s domain.SessionData) any {
		return interactivePayload{
			SessionID: s.SessionID,
			Content:   s.Content,
			Timestamp: s.Timestamp,
		}
	}, opts...)
}
