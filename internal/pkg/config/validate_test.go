package config

import (
	"math"
	"testing"

	"github.com/fairlens/fairlens/internal/core/domain"
)

func TestNormalize_EqualWeightsWhenEmpty(t *testing.T) {
	var cfg Config
	cfg.Normalize(nil)

	weights := cfg.NormalizedWeights()
	if len(weights) != 4 {
		t.Fatalf("NormalizedWeights() count = %d, want 4", len(weights))
	}
	for layer, w := range weights {
		if math.Abs(w-0.25) > 1e-9 {
			t.Errorf("weight[%s] = %v, want 0.25", layer, w)
		}
	}
}

func TestNormalize_WeightsSumToOne(t *testing.T) {
	var cfg Config
	cfg.Analysis.LayerWeights = map[string]float64{
		"preprocessing": 2,
		"model_level":   2,
		"interactive":   4,
		"evaluation":    2,
	}
	cfg.Normalize(nil)

	sum := 0.0
	for _, w := range cfg.Analysis.LayerWeights {
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("weights sum = %v, want 1.0", sum)
	}
	if math.Abs(cfg.Analysis.LayerWeights["interactive"]-0.4) > 1e-9 {
		t.Errorf("interactive weight = %v, want 0.4", cfg.Analysis.LayerWeights["interactive"])
	}
}

func TestNormalize_ZeroWeightsSubstituted(t *testing.T) {
	var cfg Config
	cfg.Analysis.LayerWeights = map[string]float64{
		"preprocessing": 0,
		"model_level":   0,
		"interactive":   0,
		"evaluation":    0,
	}
	cfg.Normalize(nil)

	for _, w := range cfg.Analysis.LayerWeights {
		if math.Abs(w-0.25) > 1e-9 {
			t.Fatalf("all-zero weights not replaced with equal weights, got %v", cfg.Analysis.LayerWeights)
		}
	}
}

func TestNormalize_DropsUnknownAndInvalidWeights(t *testing.T) {
	var cfg Config
	cfg.Analysis.LayerWeights = map[string]float64{
		"preprocessing": 1,
		"model_level":   1,
		"mystery_layer": 5,
		"interactive":   -3,
		"evaluation":    math.NaN(),
	}
	cfg.Normalize(nil)

	if _, ok := cfg.Analysis.LayerWeights["mystery_layer"]; ok {
		t.Error("unknown layer weight survived normalization")
	}
	if _, ok := cfg.Analysis.LayerWeights["interactive"]; ok {
		t.Error("negative weight survived normalization")
	}
	if math.Abs(cfg.Analysis.LayerWeights["preprocessing"]-0.5) > 1e-9 {
		t.Errorf("preprocessing weight = %v, want 0.5", cfg.Analysis.LayerWeights["preprocessing"])
	}
}

func TestNormalize_ThresholdDefaults(t *testing.T) {
	var cfg Config
	cfg.Normalize(nil)

	want := ThresholdConfig{
		Medium:   DefaultMediumThreshold,
		High:     DefaultHighThreshold,
		Critical: DefaultCriticalThreshold,
	}
	if cfg.Analysis.AlertThresholds != want {
		t.Errorf("thresholds = %+v, want %+v", cfg.Analysis.AlertThresholds, want)
	}
}

func TestNormalize_ThresholdRepair(t *testing.T) {
	tests := []struct {
		name       string
		thresholds ThresholdConfig
		repaired   bool
	}{
		{
			name:       "non-monotonic",
			thresholds: ThresholdConfig{Medium: 0.8, High: 0.5, Critical: 0.9},
			repaired:   true,
		},
		{
			name:       "out of range",
			thresholds: ThresholdConfig{Medium: 0.4, High: 0.7, Critical: 1.5},
			repaired:   true,
		},
		{
			name:       "negative",
			thresholds: ThresholdConfig{Medium: -0.1, High: 0.5, Critical: 0.9},
			repaired:   true,
		},
		{
			name:       "valid custom",
			thresholds: ThresholdConfig{Medium: 0.3, High: 0.6, Critical: 0.8},
			repaired:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			cfg.Analysis.AlertThresholds = tt.thresholds
			cfg.Normalize(nil)

			got := cfg.Analysis.AlertThresholds
			if tt.repaired {
				want := ThresholdConfig{
					Medium:   DefaultMediumThreshold,
					High:     DefaultHighThreshold,
					Critical: DefaultCriticalThreshold,
				}
				if got != want {
					t.Errorf("thresholds = %+v, want defaults %+v", got, want)
				}
			} else if got != tt.thresholds {
				t.Errorf("valid thresholds were rewritten: %+v", got)
			}
		})
	}
}

func TestNormalize_ScoreDefaults(t *testing.T) {
	var cfg Config
	cfg.Normalize(nil)

	if cfg.Analysis.FallbackScore != DefaultFallbackScore {
		t.Errorf("fallback score = %v, want %v", cfg.Analysis.FallbackScore, DefaultFallbackScore)
	}
	if cfg.Analysis.ConfidenceBaseline != DefaultConfidenceBaseline {
		t.Errorf("confidence baseline = %v, want %v", cfg.Analysis.ConfidenceBaseline, DefaultConfidenceBaseline)
	}
	if cfg.Analysis.ConfidenceFloor != DefaultConfidenceFloor {
		t.Errorf("confidence floor = %v, want %v", cfg.Analysis.ConfidenceFloor, DefaultConfidenceFloor)
	}
}

func TestNormalize_FloorAboveBaselineRepaired(t *testing.T) {
	var cfg Config
	cfg.Analysis.ConfidenceBaseline = 0.3
	cfg.Analysis.ConfidenceFloor = 0.9
	cfg.Normalize(nil)

	if cfg.Analysis.ConfidenceBaseline != DefaultConfidenceBaseline ||
		cfg.Analysis.ConfidenceFloor != DefaultConfidenceFloor {
		t.Errorf("inverted confidence bounds not repaired: baseline=%v floor=%v",
			cfg.Analysis.ConfidenceBaseline, cfg.Analysis.ConfidenceFloor)
	}
}

func TestNormalize_MonitorDefaults(t *testing.T) {
	var cfg Config
	cfg.Monitor.AlertThreshold = "catastrophic"
	cfg.Normalize(nil)

	if cfg.Monitor.AlertThreshold != string(domain.AlertHigh) {
		t.Errorf("alert threshold = %q, want %q", cfg.Monitor.AlertThreshold, domain.AlertHigh)
	}
	if cfg.Monitor.QueueSize != DefaultAlertQueueSize {
		t.Errorf("queue size = %d, want %d", cfg.Monitor.QueueSize, DefaultAlertQueueSize)
	}
	if cfg.Monitor.RecentResults != DefaultRecentResults {
		t.Errorf("recent results = %d, want %d", cfg.Monitor.RecentResults, DefaultRecentResults)
	}
}

func TestResilienceConfig_Durations(t *testing.T) {
	r := ResilienceConfig{LayerTimeout: "150ms", Cooldown: "bad"}
	if got := r.LayerTimeoutDuration(); got.Milliseconds() != 150 {
		t.Errorf("LayerTimeoutDuration() = %v, want 150ms", got)
	}
	if got := r.CooldownDuration(); got != DefaultCooldown {
		t.Errorf("CooldownDuration() = %v, want default %v", got, DefaultCooldown)
	}
}
