package domain

import (
	"encoding/json"
	"time"
)

// Layer identifies one independent bias-analysis capability.
type Layer string

const (
	LayerPreprocessing Layer = "preprocessing"
	LayerModelLevel    Layer = "model_level"
	LayerInteractive   Layer = "interactive"
	LayerEvaluation    Layer = "evaluation"
)

// Layers returns the full set in canonical order. The aggregator iterates
// this rather than hard-coding the four capabilities.
func Layers() []Layer {
	return []Layer{LayerPreprocessing, LayerModelLevel, LayerInteractive, LayerEvaluation}
}

// LayerResult is the normalized output of one analysis layer.
type LayerResult struct {
	Layer     Layer           `json:"layer"`
	BiasScore float64         `json:"bias_score"`
	Succeeded bool            `json:"succeeded"`
	Degraded  bool            `json:"degraded"`
	Detail    json.RawMessage `json:"detail,omitempty"`
	Duration  time.Duration   `json:"duration_ns,omitempty"`
	// Malformed marks results recovered from an unparseable service
	// response, which contributes its own recommendation.
	Malformed bool `json:"malformed,omitempty"`
}

// AlertLevel is the ordered classification of an overall bias score.
type AlertLevel string

const (
	AlertLow      AlertLevel = "low"
	AlertMedium   AlertLevel = "medium"
	AlertHigh     AlertLevel = "high"
	AlertCritical AlertLevel = "critical"
)

var alertRank = map[AlertLevel]int{
	AlertLow:      0,
	AlertMedium:   1,
	AlertHigh:     2,
	AlertCritical: 3,
}

// Rank returns the ordinal position of the level; unknown levels rank
// below low.
func (a AlertLevel) Rank() int {
	if r, ok := alertRank[a]; ok {
		return r
	}
	return -1
}

// AtLeast reports whether a is at or above other in severity.
func (a AlertLevel) AtLeast(other AlertLevel) bool {
	return a.Rank() >= other.Rank()
}

// BiasAnalysisResult is the verdict returned to the caller. It is always
// produced for a validated session, even when every layer failed.
type BiasAnalysisResult struct {
	SessionID        string                `json:"session_id"`
	OverallBiasScore float64               `json:"overall_bias_score"`
	AlertLevel       AlertLevel            `json:"alert_level"`
	Confidence       float64               `json:"confidence"`
	LayerResults     map[Layer]LayerResult `json:"layer_results"`
	Recommendations  []string              `json:"recommendations"`
	AnalyzedAt       time.Time             `json:"analyzed_at"`
}

// DegradedLayers lists the layers whose scores were fallback-substituted,
// in canonical order.
func (r *BiasAnalysisResult) DegradedLayers() []Layer {
	var out []Layer
	for _, layer := range Layers() {
		if lr, ok := r.LayerResults[layer]; ok && lr.Degraded {
			out = append(out, layer)
		}
	}
	return out
}
