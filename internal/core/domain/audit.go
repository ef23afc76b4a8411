package domain

import "time"

// AuditRecord captures one completed analysis decision. Records are
// append-only: once emitted they are owned by the audit store and never
// mutated or referenced back by the aggregator.
type AuditRecord struct {
	ID             string             `json:"id"`
	SessionID      string             `json:"session_id"`
	Actor          string             `json:"actor"`
	Demographics   Demographics       `json:"demographics,omitempty"`
	Result         BiasAnalysisResult `json:"result"`
	DegradedLayers []Layer            `json:"degraded_layers,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}
