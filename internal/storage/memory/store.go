// Package memory provides the in-memory AuditStore used by default and in
// tests.
package memory

import (
	"context"
	"sync"

	"github.com/fairlens/fairlens/internal/core/domain"
	"github.com/fairlens/fairlens/internal/storage"
)

// Store is an in-memory implementation of AuditStore.
type Store struct {
	mu      sync.RWMutex
	records []*domain.AuditRecord
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{}
}

func (s *Store) AppendAudit(ctx context.Context, rec *domain.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy so the caller cannot mutate the stored record afterwards.
	cp := *rec
	s.records = append(s.records, &cp)
	return nil
}

func (s *Store) ListAudits(ctx context.Context, opts storage.ListOptions) ([]*domain.AuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.AuditRecord, 0)
	// Newest first
	for i := len(s.records) - 1; i >= 0; i-- {
		rec := s.records[i]
		if opts.SessionID != "" && rec.SessionID != opts.SessionID {
			continue
		}
		if !opts.Since.IsZero() && rec.CreatedAt.Before(opts.Since) {
			continue
		}
		if !opts.Until.IsZero() && rec.CreatedAt.After(opts.Until) {
			continue
		}
		result = append(result, rec)
	}

	start := opts.Offset
	if start >= len(result) {
		return []*domain.AuditRecord{}, nil
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

// Len reports the number of stored records, for tests.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store) Close() error {
	return nil
}
