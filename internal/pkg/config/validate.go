package config

import (
	"log/slog"
	"math"
	"time"

	"github.com/fairlens/fairlens/internal/core/domain"
)

// Defaults applied by Normalize. Invalid configuration is corrected here,
// at construction, never silently mis-combined at analysis time.
const (
	DefaultLayerTimeout     = 2 * time.Second
	DefaultCooldown         = 30 * time.Second
	DefaultFailureThreshold = 3

	DefaultFallbackScore      = 0.5
	DefaultConfidenceBaseline = 0.8
	DefaultConfidenceFloor    = 0.1

	DefaultMediumThreshold   = 0.4
	DefaultHighThreshold     = 0.7
	DefaultCriticalThreshold = 0.9

	DefaultAlertQueueSize = 128
	DefaultRecentResults  = 512
	DefaultActor          = "fairlens"
)

// Normalize validates and repairs the configuration in place. It never
// fails: bad sections are replaced by safe defaults and logged as
// warnings so a misconfigured deployment still produces sound verdicts.
func (c *Config) Normalize(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	c.normalizeWeights(logger)
	c.normalizeThresholds(logger)
	c.normalizeScores(logger)
	c.normalizeMonitor(logger)

	if c.Resilience.FailureThreshold <= 0 {
		c.Resilience.FailureThreshold = DefaultFailureThreshold
	}
	if c.Storage.Type == "" {
		c.Storage.Type = "memory"
	}
	if c.Audit.Actor == "" {
		c.Audit.Actor = DefaultActor
	}
}

func (c *Config) normalizeWeights(logger *slog.Logger) {
	known := make(map[string]bool, len(domain.Layers()))
	for _, l := range domain.Layers() {
		known[string(l)] = true
	}

	cleaned := make(map[string]float64)
	sum := 0.0
	for name, w := range c.Analysis.LayerWeights {
		if !known[name] {
			logger.Warn("dropping weight for unknown layer", slog.String("layer", name))
			continue
		}
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			logger.Warn("dropping invalid layer weight",
				slog.String("layer", name), slog.Float64("weight", w))
			continue
		}
		cleaned[name] = w
		sum += w
	}

	if sum <= 0 {
		if len(c.Analysis.LayerWeights) > 0 {
			logger.Warn("layer weights sum to zero, substituting equal weights")
		}
		equal := 1.0 / float64(len(domain.Layers()))
		cleaned = make(map[string]float64, len(domain.Layers()))
		for _, l := range domain.Layers() {
			cleaned[string(l)] = equal
		}
	} else {
		for name := range cleaned {
			cleaned[name] /= sum
		}
	}

	c.Analysis.LayerWeights = cleaned
}

func (c *Config) normalizeThresholds(logger *slog.Logger) {
	t := c.Analysis.AlertThresholds
	zero := ThresholdConfig{}
	if t == zero {
		c.Analysis.AlertThresholds = ThresholdConfig{
			Medium:   DefaultMediumThreshold,
			High:     DefaultHighThreshold,
			Critical: DefaultCriticalThreshold,
		}
		return
	}

	inRange := t.Medium >= 0 && t.Critical <= 1
	monotonic := t.Medium <= t.High && t.High <= t.Critical
	if !inRange || !monotonic {
		logger.Warn("alert thresholds out of range or non-monotonic, substituting defaults",
			slog.Float64("medium", t.Medium),
			slog.Float64("high", t.High),
			slog.Float64("critical", t.Critical))
		c.Analysis.AlertThresholds = ThresholdConfig{
			Medium:   DefaultMediumThreshold,
			High:     DefaultHighThreshold,
			Critical: DefaultCriticalThreshold,
		}
	}
}

func (c *Config) normalizeScores(logger *slog.Logger) {
	a := &c.Analysis
	if a.FallbackScore <= 0 || a.FallbackScore > 1 || math.IsNaN(a.FallbackScore) {
		a.FallbackScore = DefaultFallbackScore
	}
	if a.ConfidenceBaseline <= 0 || a.ConfidenceBaseline > 1 || math.IsNaN(a.ConfidenceBaseline) {
		a.ConfidenceBaseline = DefaultConfidenceBaseline
	}
	if a.ConfidenceFloor <= 0 || a.ConfidenceFloor > 1 || math.IsNaN(a.ConfidenceFloor) {
		a.ConfidenceFloor = DefaultConfidenceFloor
	}
	if a.ConfidenceFloor >= a.ConfidenceBaseline {
		logger.Warn("confidence floor at or above baseline, substituting defaults",
			slog.Float64("baseline", a.ConfidenceBaseline),
			slog.Float64("floor", a.ConfidenceFloor))
		a.ConfidenceBaseline = DefaultConfidenceBaseline
		a.ConfidenceFloor = DefaultConfidenceFloor
	}
}

func (c *Config) normalizeMonitor(logger *slog.Logger) {
	m := &c.Monitor
	if m.QueueSize <= 0 {
		m.QueueSize = DefaultAlertQueueSize
	}
	if m.RecentResults <= 0 {
		m.RecentResults = DefaultRecentResults
	}
	switch domain.AlertLevel(m.AlertThreshold) {
	case domain.AlertLow, domain.AlertMedium, domain.AlertHigh, domain.AlertCritical:
	default:
		if m.AlertThreshold != "" {
			logger.Warn("unknown monitor alert threshold, using high",
				slog.String("threshold", m.AlertThreshold))
		}
		m.AlertThreshold = string(domain.AlertHigh)
	}
}

// NormalizedWeights returns the layer weights keyed by domain.Layer.
// Normalize must have run first.
func (c *Config) NormalizedWeights() map[domain.Layer]float64 {
	out := make(map[domain.Layer]float64, len(c.Analysis.LayerWeights))
	for name, w := range c.Analysis.LayerWeights {
		out[domain.Layer(name)] = w
	}
	return out
}
