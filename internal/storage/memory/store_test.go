package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fairlens/fairlens/internal/core/domain"
	"github.com/fairlens/fairlens/internal/storage"
)

func seed(t *testing.T, s *Store, n int, base time.Time) {
	t.Helper()
	for i := 0; i < n; i++ {
		err := s.AppendAudit(context.Background(), &domain.AuditRecord{
			ID:        fmt.Sprintf("audit_%d", i),
			SessionID: fmt.Sprintf("sess-%d", i%2),
			Actor:     "fairlens",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("AppendAudit() error = %v", err)
		}
	}
}

func TestListAudits_NewestFirst(t *testing.T) {
	s := New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seed(t, s, 4, base)

	recs, err := s.ListAudits(context.Background(), storage.ListOptions{})
	if err != nil {
		t.Fatalf("ListAudits() error = %v", err)
	}
	if len(recs) != 4 {
		t.Fatalf("ListAudits() count = %d, want 4", len(recs))
	}
	if recs[0].ID != "audit_3" || recs[3].ID != "audit_0" {
		t.Errorf("ListAudits() order = [%s .. %s], want newest first", recs[0].ID, recs[3].ID)
	}
}

func TestListAudits_FilterBySession(t *testing.T) {
	s := New()
	seed(t, s, 4, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	recs, err := s.ListAudits(context.Background(), storage.ListOptions{SessionID: "sess-1"})
	if err != nil {
		t.Fatalf("ListAudits() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("ListAudits() count = %d, want 2", len(recs))
	}
	for _, rec := range recs {
		if rec.SessionID != "sess-1" {
			t.Errorf("record %s session = %s, want sess-1", rec.ID, rec.SessionID)
		}
	}
}

func TestListAudits_TimeWindow(t *testing.T) {
	s := New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seed(t, s, 4, base)

	recs, err := s.ListAudits(context.Background(), storage.ListOptions{
		Since: base.Add(1 * time.Minute),
		Until: base.Add(2 * time.Minute),
	})
	if err != nil {
		t.Fatalf("ListAudits() error = %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("ListAudits() count = %d, want 2 inside the window", len(recs))
	}
}

func TestListAudits_Pagination(t *testing.T) {
	s := New()
	seed(t, s, 5, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	page, err := s.ListAudits(context.Background(), storage.ListOptions{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("ListAudits() error = %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("ListAudits() page size = %d, want 2", len(page))
	}
	if page[0].ID != "audit_2" {
		t.Errorf("page starts at %s, want audit_2", page[0].ID)
	}

	past, err := s.ListAudits(context.Background(), storage.ListOptions{Offset: 10})
	if err != nil {
		t.Fatalf("ListAudits() error = %v", err)
	}
	if len(past) != 0 {
		t.Errorf("out-of-range offset returned %d records, want 0", len(past))
	}
}

func TestListAudits_NoMatchReturnsEmpty(t *testing.T) {
	s := New()
	seed(t, s, 2, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	recs, err := s.ListAudits(context.Background(), storage.ListOptions{SessionID: "missing"})
	if err != nil {
		t.Fatalf("ListAudits() error = %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("ListAudits() count = %d, want 0", len(recs))
	}
}

func TestAppendAudit_StoresCopy(t *testing.T) {
	s := New()
	rec := &domain.AuditRecord{ID: "audit_x", SessionID: "sess-1"}
	if err := s.AppendAudit(context.Background(), rec); err != nil {
		t.Fatalf("AppendAudit() error = %v", err)
	}

	rec.SessionID = "mutated"

	recs, err := s.ListAudits(context.Background(), storage.ListOptions{})
	if err != nil {
		t.Fatalf("ListAudits() error = %v", err)
	}
	if recs[0].SessionID != "sess-1" {
		t.Errorf("stored record session = %s, caller mutation leaked in", recs[0].SessionID)
	}
}
