// Package analyzer wraps the four remote bias-analysis capabilities behind
// one interface. Adapters never surface a failure to the caller: every
// remote error is converted into a degraded LayerResult carrying a
// conservative fallback score.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/fairlens/fairlens/internal/core/domain"
)

// LayerAnalyzer is the capability contract shared by the four layers.
// Analyze must always return a usable LayerResult; it never panics and
// never returns an error.
type LayerAnalyzer interface {
	Layer() domain.Layer
	Analyze(ctx context.Context, session domain.SessionData) domain.LayerResult
}

// Scorer is the remote call each adapter delegates to. Implementations
// return the raw bias score plus opaque layer metadata, or an error the
// adapter recovers from.
type Scorer interface {
	Score(ctx context.Context, layer domain.Layer, payload any) (float64, json.RawMessage, error)
}

// Option configures an adapter.
type Option func(*adapter)

// WithFallbackScore overrides the neutral score substituted on failure.
func WithFallbackScore(score float64) Option {
	return func(a *adapter) {
		a.fallback = score
	}
}

// WithLogger sets the logger used for per-failure diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(a *adapter) {
		a.logger = logger
	}
}

// adapter is the shared plumbing behind the four layer analyzers. The
// payload function is the only per-layer variation.
type adapter struct {
	layer    domain.Layer
	scorer   Scorer
	payload  func(domain.SessionData) any
	fallback float64
	logger   *slog.Logger
}

func newAdapter(layer domain.Layer, scorer Scorer, payload func(domain.SessionData) any, opts ...Option) *adapter {
	a := &adapter{
		layer:    layer,
		scorer:   scorer,
		payload:  payload,
		fallback: 0.5,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *adapter) Layer() domain.Layer { return a.layer }

func (a *adapter) Analyze(ctx context.Context, session domain.SessionData) domain.LayerResult {
	start := time.Now()

	score, detail, err := a.scorer.Score(ctx, a.layer, a.payload(session))
	if err != nil {
		malformed := isMalformed(err)
		a.logger.Warn("layer analysis failed, substituting fallback score",
			slog.String("layer", string(a.layer)),
			slog.String("session_id", session.SessionID),
			slog.Bool("malformed", malformed),
			slog.String("error", err.Error()),
		)
		return domain.LayerResult{
			Layer:     a.layer,
			BiasScore: a.fallback,
			Succeeded: false,
			Degraded:  true,
			Malformed: malformed,
			Duration:  time.Since(start),
		}
	}

	return domain.LayerResult{
		Layer:     a.layer,
		BiasScore: clampScore(score),
		Succeeded: true,
		Detail:    detail,
		Duration:  time.Since(start),
	}
}

func isMalformed(err error) bool {
	var le *domain.LayerError
	return errors.As(err, &le) && le.Code == domain.LayerErrMalformed
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
