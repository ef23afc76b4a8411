package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Storage    StorageConfig    `koanf:"storage"`
	Analysis   AnalysisConfig   `koanf:"analysis"`
	Resilience ResilienceConfig `koanf:"resilience"`
	Audit      AuditConfig      `koanf:"audit"`
	Monitor    MonitorConfig    `koanf:"monitor"`
	Layers     []LayerConfig    `koanf:"layers"`
}

type ServerConfig struct {
	Port           int    `koanf:"port"`
	RequestTimeout string `koanf:"request_timeout"` // Duration string like "30s"
}

type StorageConfig struct {
	Type   string       `koanf:"type"` // memory, sqlite
	SQLite SQLiteConfig `koanf:"sqlite"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// AnalysisConfig carries the weighting and classification policy for the
// aggregator. Values are sanitized by Normalize before use.
type AnalysisConfig struct {
	// LayerWeights maps layer name to its relative weight. Normalized to
	// sum to 1 at validation time.
	LayerWeights map[string]float64 `koanf:"layer_weights"`

	// AlertThresholds are the ascending score boundaries where the
	// medium, high and critical bands begin. Scores below Medium are low.
	AlertThresholds ThresholdConfig `koanf:"alert_thresholds"`

	// FallbackScore is substituted for a layer whose call failed.
	FallbackScore float64 `koanf:"fallback_score"`

	// ConfidenceBaseline is the confidence of a fully successful
	// analysis; ConfidenceFloor is what an all-layers-failed analysis
	// collapses to.
	ConfidenceBaseline float64 `koanf:"confidence_baseline"`
	ConfidenceFloor    float64 `koanf:"confidence_floor"`
}

// ThresholdConfig holds the lower bound of each non-low alert band. A
// score equal to a boundary belongs to the band that boundary starts.
type ThresholdConfig struct {
	Medium   float64 `koanf:"medium"`
	High     float64 `koanf:"high"`
	Critical float64 `koanf:"critical"`
}

type ResilienceConfig struct {
	LayerTimeout     string `koanf:"layer_timeout"` // Duration string like "2s"
	FailureThreshold int    `koanf:"failure_threshold"`
	Cooldown         string `koanf:"cooldown"` // Duration string like "30s"
}

// LayerTimeoutDuration parses the configured per-layer timeout, falling
// back to the default when unset or unparseable.
func (r ResilienceConfig) LayerTimeoutDuration() time.Duration {
	return parseDuration(r.LayerTimeout, DefaultLayerTimeout)
}

// CooldownDuration parses the configured cool-down window.
func (r ResilienceConfig) CooldownDuration() time.Duration {
	return parseDuration(r.Cooldown, DefaultCooldown)
}

type AuditConfig struct {
	Enabled            bool   `koanf:"enabled"`
	DemographicMasking bool   `koanf:"demographic_masking"`
	Actor              string `koanf:"actor"`
}

type MonitorConfig struct {
	AlertThreshold string `koanf:"alert_threshold"` // low, medium, high, critical
	QueueSize      int    `koanf:"queue_size"`
	RecentResults  int    `koanf:"recent_results"`
}

// LayerConfig describes one remote analyzer endpoint.
type LayerConfig struct {
	Name    string `koanf:"name"`
	BaseURL string `koanf:"base_url"`
	APIKey  string `koanf:"api_key"`
}

// Load reads the YAML config file (when present) and FAIRLENS_ environment
// overrides, fills defaults, and normalizes the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = "config.yaml"
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		// File not found is OK, we'll use env vars and defaults
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	// Environment variables override file config
	if err := k.Load(env.Provider("FAIRLENS_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "FAIRLENS_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	cfg.Normalize(nil)

	return &cfg, nil
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
