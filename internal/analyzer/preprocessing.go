package analyzer

import (
	"strings"

	"github.com/fairlens/fairlens/internal/core/domain"
)

// preprocessingPayload is what the preprocessing layer scores: the raw
// transcript plus cheap surface statistics the service uses for early
// screening.
type preprocessingPayload struct {
	SessionID string         `json:"session_id"`
	Content   domain.Content `json:"content"`
	WordCount int            `json:"word_count"`
}

// NewPreprocessing builds the adapter for the preprocessing bias layer.
// Word counting applies to plain transcripts; structured turns are
// forwarded as-is and counted by the service.
func NewPreprocessing(scorer Scorer, opts ...Option) LayerAnalyzer {
	return newAdapter(domain.LayerPreprocessing, scorer, func(s domain.SessionData) any {
		return preprocessingPayload{
			SessionID: s.SessionID,
			Content:   s.Content,
			WordCount: len(strings.Fields(s.Content.Text())),
		}
	}, opts...)
}
