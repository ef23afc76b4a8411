package aggregator

import "github.com/fairlens/fairlens/internal/core/domain"

// weightedScore combines the obtained layer scores. The denominator is the
// weight mass of the layers actually present, so a missing layer shifts
// weight to the rest instead of silently dragging the score toward zero.
// With equal weights and a uniform score s this reduces to exactly s.
func (e *Engine) weightedScore(results map[domain.Layer]domain.LayerResult) float64 {
	var sum, weightSum float64
	for layer, r := range results {
		w, ok := e.cfg.Weights[layer]
		if !ok {
			continue
		}
		sum += w * r.BiasScore
		weightSum += w
	}

	if weightSum <= 0 {
		// No weighted layer produced a result at all; fall back to the
		// conservative neutral score rather than reporting zero bias.
		return e.cfg.FallbackScore
	}

	return clamp01(sum / weightSum)
}

// classify maps a score to its alert band. The mapping is total and
// monotonic over [0,1]; a score equal to a boundary belongs to the band
// that boundary starts, so a uniform 0.5 under defaults classifies medium.
func (e *Engine) classify(score float64) domain.AlertLevel {
	score = clamp01(score)
	t := e.cfg.Thresholds
	switch {
	case score >= t.Critical:
		return domain.AlertCritical
	case score >= t.High:
		return domain.AlertHigh
	case score >= t.Medium:
		return domain.AlertMedium
	default:
		return domain.AlertLow
	}
}

// confidence starts at the configured baseline and loses an equal share of
// (baseline - floor) per degraded layer, so it decreases monotonically
// with the degraded count and collapses to exactly the floor when every
// layer failed. It is never raised above the baseline.
func (e *Engine) confidence(degraded, total int) float64 {
	if total <= 0 {
		return e.cfg.ConfidenceFloor
	}

	penalty := (e.cfg.ConfidenceBaseline - e.cfg.ConfidenceFloor) / float64(total)
	c := e.cfg.ConfidenceBaseline - penalty*float64(degraded)

	if c < e.cfg.ConfidenceFloor {
		return e.cfg.ConfidenceFloor
	}
	if c > e.cfg.ConfidenceBaseline {
		return e.cfg.ConfidenceBaseline
	}
	return c
}

func clamp01(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
