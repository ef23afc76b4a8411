// Package audit records every completed analysis decision as an
// append-only AuditRecord. Persistence is best-effort: a slow or failing
// store degrades observability but never changes the returned result.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fairlens/fairlens/internal/core/domain"
	"github.com/fairlens/fairlens/internal/storage"
)

// Config controls whether and how audit records are written.
type Config struct {
	Enabled            bool
	DemographicMasking bool
	Actor              string
}

// Logger writes one AuditRecord per completed analysis when enabled.
type Logger struct {
	store  storage.AuditStore
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Logger.
type Option func(*Logger)

// WithLogger sets the diagnostics logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Logger) {
		l.logger = logger
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		l.now = now
	}
}

// New creates an audit logger over the given store.
func New(store storage.AuditStore, cfg Config, opts ...Option) *Logger {
	if cfg.Actor == "" {
		cfg.Actor = "fairlens"
	}
	l := &Logger{
		store:  store,
		cfg:    cfg,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record persists one audit record for a completed analysis. It is a
// no-op when auditing is disabled, and it logs-and-continues on store
// failure so the analysis path is never affected.
func (l *Logger) Record(ctx context.Context, session domain.SessionData, result domain.BiasAnalysisResult) {
	if !l.cfg.Enabled || l.store == nil {
		return
	}

	demographics := session.Demographics.Clone()
	if l.cfg.DemographicMasking {
		demographics = Mask(demographics)
	}

	rec := &domain.AuditRecord{
		ID:             "audit_" + uuid.New().String(),
		SessionID:      session.SessionID,
		Actor:          l.cfg.Actor,
		Demographics:   demographics,
		Result:         result,
		DegradedLayers: result.DegradedLayers(),
		CreatedAt:      l.now().UTC(),
	}

	// Decouple persistence from the caller's lifecycle so a cancelled
	// request cannot drop its due-diligence record; still bound the write.
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := l.store.AppendAudit(persistCtx, rec); err != nil {
		l.logger.Error("failed to append audit record",
			slog.String("audit_id", rec.ID),
			slog.String("session_id", rec.SessionID),
			slog.String("error", err.Error()),
		)
	}
}
