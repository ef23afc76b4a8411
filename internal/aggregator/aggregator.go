// Package aggregator fans a session out to the four analysis layers,
// combines whatever comes back into one BiasAnalysisResult, and hands the
// decision to the audit and monitoring side channels. It owns the
// in-flight result exclusively; layer results arrive by value.
package aggregator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fairlens/fairlens/internal/analyzer"
	"github.com/fairlens/fairlens/internal/core/domain"
	"github.com/fairlens/fairlens/internal/pkg/config"
	"github.com/fairlens/fairlens/internal/resilience"
)

// Auditor records completed analysis decisions. Its failure must never
// fail the analysis path.
type Auditor interface {
	Record(ctx context.Context, session domain.SessionData, result domain.BiasAnalysisResult)
}

// Observer is notified of every completed result; delivery is
// fire-and-forget relative to the analysis path. Demographics ride along
// so the dashboard can filter on them.
type Observer interface {
	Observe(result domain.BiasAnalysisResult, demographics domain.Demographics)
}

// Config carries the combination policy. Values are expected to have been
// normalized by the configuration validator already.
type Config struct {
	Weights            map[domain.Layer]float64
	Thresholds         config.ThresholdConfig
	ConfidenceBaseline float64
	ConfidenceFloor    float64
	FallbackScore      float64
}

// Engine is the aggregation core.
type Engine struct {
	analyzers  []analyzer.LayerAnalyzer
	controller *resilience.Controller
	cfg        Config
	logger     *slog.Logger
	tracer     trace.Tracer

	auditor  Auditor
	observer Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithAuditor attaches the audit side channel.
func WithAuditor(a Auditor) Option {
	return func(e *Engine) {
		e.auditor = a
	}
}

// WithObserver attaches the monitoring side channel.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// New creates an engine over the given analyzers. The resilience
// controller is passed explicitly rather than reached through a singleton
// so tests can substitute policy per engine.
func New(analyzers []analyzer.LayerAnalyzer, controller *resilience.Controller, cfg Config, opts ...Option) *Engine {
	if cfg.ConfidenceBaseline <= 0 {
		cfg.ConfidenceBaseline = config.DefaultConfidenceBaseline
	}
	if cfg.ConfidenceFloor <= 0 {
		cfg.ConfidenceFloor = config.DefaultConfidenceFloor
	}
	if cfg.FallbackScore <= 0 {
		cfg.FallbackScore = config.DefaultFallbackScore
	}
	if len(cfg.Weights) == 0 {
		equal := 1.0 / float64(len(domain.Layers()))
		cfg.Weights = make(map[domain.Layer]float64, len(domain.Layers()))
		for _, l := range domain.Layers() {
			cfg.Weights[l] = equal
		}
	}
	zero := config.ThresholdConfig{}
	if cfg.Thresholds == zero {
		cfg.Thresholds = config.ThresholdConfig{
			Medium:   config.DefaultMediumThreshold,
			High:     config.DefaultHighThreshold,
			Critical: config.DefaultCriticalThreshold,
		}
	}

	e := &Engine{
		analyzers:  analyzers,
		controller: controller,
		cfg:        cfg,
		logger:     slog.Default(),
		tracer:     otel.Tracer("fairlens/aggregator"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analyze runs one session through the full pipeline. Validation failures
// are the only errors returned; every downstream failure is recovered into
// a degraded result.
func (e *Engine) Analyze(ctx context.Context, session *domain.SessionData) (*domain.BiasAnalysisResult, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}
	normalized := session.Normalized()

	ctx, span := e.tracer.Start(ctx, "aggregator.Analyze",
		trace.WithAttributes(attribute.String("session.id", normalized.SessionID)))
	defer span.End()

	results := e.fanOut(ctx, normalized)

	result := e.combine(normalized, results)

	span.SetAttributes(
		attribute.Float64("bias.overall_score", result.OverallBiasScore),
		attribute.String("bias.alert_level", string(result.AlertLevel)),
		attribute.Float64("bias.confidence", result.Confidence),
		attribute.Int("bias.degraded_layers", len(result.DegradedLayers())),
	)

	// Side channels: audit exactly once, then notify the monitor. Neither
	// is allowed to change or fail the returned result.
	if e.auditor != nil {
		e.auditor.Record(ctx, normalized, *result)
	}
	if e.observer != nil {
		e.observer.Observe(*result, normalized.Demographics)
	}

	return result, nil
}

// fanOut dispatches the layer calls concurrently and waits for all of them
// to complete or time out. Per-index slots keep attribution straight under
// concurrency.
func (e *Engine) fanOut(ctx context.Context, session domain.SessionData) []domain.LayerResult {
	results := make([]domain.LayerResult, len(e.analyzers))

	var wg sync.WaitGroup
	for i, la := range e.analyzers {
		wg.Add(1)
		go func(idx int, la analyzer.LayerAnalyzer) {
			defer wg.Done()
			results[idx] = e.controller.Call(ctx, la, session)
		}(i, la)
	}
	wg.Wait()

	return results
}

func (e *Engine) combine(session domain.SessionData, results []domain.LayerResult) *domain.BiasAnalysisResult {
	layerResults := make(map[domain.Layer]domain.LayerResult, len(results))
	for _, r := range results {
		layerResults[r.Layer] = r
	}

	overall := e.weightedScore(layerResults)
	degraded := 0
	malformed := false
	for _, r := range layerResults {
		if r.Degraded {
			degraded++
		}
		if r.Malformed {
			malformed = true
		}
	}

	level := e.classify(overall)
	result := &domain.BiasAnalysisResult{
		SessionID:        session.SessionID,
		OverallBiasScore: overall,
		AlertLevel:       level,
		Confidence:       e.confidence(degraded, len(layerResults)),
		LayerResults:     layerResults,
		AnalyzedAt:       time.Now().UTC(),
	}
	result.Recommendations = e.recommend(degraded, len(layerResults), malformed, level)

	if degraded > 0 {
		e.logger.Info("analysis completed with degraded layers",
			slog.String("session_id", session.SessionID),
			slog.Int("degraded_layers", degraded),
			slog.Float64("confidence", result.Confidence))
	}

	return result
}
