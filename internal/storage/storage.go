// Package storage defines the persistence contracts for audit records.
// The analysis core only requires an append capability; queries exist for
// reviewers and tooling.
package storage

import (
	"context"
	"time"

	"github.com/fairlens/fairlens/internal/core/domain"
)

// AuditStore is an append-only sink for analysis audit records.
type AuditStore interface {
	// AppendAudit persists one record. Records are immutable once written.
	AppendAudit(ctx context.Context, rec *domain.AuditRecord) error

	// ListAudits returns records matching the options, newest first.
	// Filters that match nothing return an empty slice, not an error.
	ListAudits(ctx context.Context, opts ListOptions) ([]*domain.AuditRecord, error)

	Close() error
}

// ListOptions filter audit queries. Zero values mean "no filter".
type ListOptions struct {
	SessionID string
	Since     time.Time
	Until     time.Time
	Limit     int
	Offset    int
}
