package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fairlens/fairlens/internal/core/domain"
	"github.com/fairlens/fairlens/internal/storage"
	"github.com/fairlens/fairlens/internal/storage/memory"
)

func testSession() domain.SessionData {
	return domain.SessionData{
		SessionID:    "sess-1",
		Content:      domain.TextContent("transcript"),
		Demographics: domain.Demographics{"gender": "female", "age_group": "25-34"},
	}
}

func testResult() domain.BiasAnalysisResult {
	return domain.BiasAnalysisResult{
		SessionID:        "sess-1",
		OverallBiasScore: 0.3,
		AlertLevel:       domain.AlertLow,
		Confidence:       0.8,
		AnalyzedAt:       time.Now().UTC(),
	}
}

func TestRecord_AppendsExactlyOneRecord(t *testing.T) {
	store := memory.New()
	l := New(store, Config{Enabled: true})

	l.Record(context.Background(), testSession(), testResult())

	if store.Len() != 1 {
		t.Fatalf("store records = %d, want exactly 1", store.Len())
	}

	recs, err := store.ListAudits(context.Background(), storage.ListOptions{SessionID: "sess-1"})
	if err != nil {
		t.Fatalf("ListAudits() error = %v", err)
	}
	rec := recs[0]
	if rec.SessionID != "sess-1" {
		t.Errorf("record session = %s, want sess-1", rec.SessionID)
	}
	if rec.Actor != "fairlens" {
		t.Errorf("record actor = %s, want default fairlens", rec.Actor)
	}
	if rec.ID == "" {
		t.Error("record ID is empty")
	}
	if rec.Demographics["gender"] != "female" {
		t.Errorf("demographics = %v, want unmasked values by default", rec.Demographics)
	}
}

func TestRecord_DisabledWritesNothing(t *testing.T) {
	store := memory.New()
	l := New(store, Config{Enabled: false})

	l.Record(context.Background(), testSession(), testResult())

	if store.Len() != 0 {
		t.Errorf("store records = %d, want 0 when auditing is disabled", store.Len())
	}
}

func TestRecord_MasksDemographics(t *testing.T) {
	store := memory.New()
	l := New(store, Config{Enabled: true, DemographicMasking: true})

	l.Record(context.Background(), testSession(), testResult())

	recs, err := store.ListAudits(context.Background(), storage.ListOptions{})
	if err != nil {
		t.Fatalf("ListAudits() error = %v", err)
	}
	rec := recs[0]
	if len(rec.Demographics) != 2 {
		t.Fatalf("demographics keys = %d, want keys preserved", len(rec.Demographics))
	}
	for k, v := range rec.Demographics {
		if v != MaskedValue {
			t.Errorf("demographics[%s] = %q, want %q", k, v, MaskedValue)
		}
	}
}

func TestRecord_DoesNotMutateSessionDemographics(t *testing.T) {
	store := memory.New()
	l := New(store, Config{Enabled: true, DemographicMasking: true})
	session := testSession()

	l.Record(context.Background(), session, testResult())

	if session.Demographics["gender"] != "female" {
		t.Errorf("session demographics mutated: %v", session.Demographics)
	}
}

type failingStore struct{}

func (failingStore) AppendAudit(ctx context.Context, rec *domain.AuditRecord) error {
	return errors.New("disk full")
}

func (failingStore) ListAudits(ctx context.Context, opts storage.ListOptions) ([]*domain.AuditRecord, error) {
	return nil, errors.New("disk full")
}

func (failingStore) Close() error { return nil }

func TestRecord_StoreFailureDoesNotPanic(t *testing.T) {
	l := New(failingStore{}, Config{Enabled: true})

	// Must log and continue.
	l.Record(context.Background(), testSession(), testResult())
}

func TestRecord_SurvivesCancelledCaller(t *testing.T) {
	store := memory.New()
	l := New(store, Config{Enabled: true})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l.Record(ctx, testSession(), testResult())

	if store.Len() != 1 {
		t.Errorf("store records = %d, want 1 despite cancelled caller", store.Len())
	}
}

func TestMask_EmptyAndNil(t *testing.T) {
	if got := Mask(nil); got != nil {
		t.Errorf("Mask(nil) = %v, want nil", got)
	}
	if got := Mask(domain.Demographics{}); len(got) != 0 {
		t.Errorf("Mask(empty) = %v, want empty", got)
	}
}
