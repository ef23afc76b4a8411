package monitor

import (
	"time"

	"github.com/fairlens/fairlens/internal/core/domain"
)

// QueryOptions filter dashboard summaries. Zero values mean "no filter";
// MinScore/MaxScore are pointers so a literal 0 or 1 bound can be
// expressed.
type QueryOptions struct {
	Since            time.Time
	Until            time.Time
	DemographicKey   string
	DemographicValue string
	MinScore         *float64
	MaxScore         *float64
}

// ResultSummary is the dashboard's view of one analysis.
type ResultSummary struct {
	SessionID  string            `json:"session_id"`
	Score      float64           `json:"score"`
	AlertLevel domain.AlertLevel `json:"alert_level"`
	Confidence float64           `json:"confidence"`
	AnalyzedAt time.Time         `json:"analyzed_at"`
}

// Summary aggregates the matching recent results. A filter that matches
// nothing yields Count 0 with empty collections, never an error.
type Summary struct {
	Count        int                       `json:"count"`
	AverageScore float64                   `json:"average_score"`
	ByAlertLevel map[domain.AlertLevel]int `json:"by_alert_level"`
	Results      []ResultSummary           `json:"results"`
}

// Query summarizes recent results matching the options, oldest first.
func (m *Monitor) Query(opts QueryOptions) Summary {
	summary := Summary{
		ByAlertLevel: make(map[domain.AlertLevel]int),
		Results:      []ResultSummary{},
	}

	var total float64
	for _, e := range m.recent.Values() {
		if !matches(e, opts) {
			continue
		}
		summary.Count++
		total += e.result.OverallBiasScore
		summary.ByAlertLevel[e.result.AlertLevel]++
		summary.Results = append(summary.Results, ResultSummary{
			SessionID:  e.result.SessionID,
			Score:      e.result.OverallBiasScore,
			AlertLevel: e.result.AlertLevel,
			Confidence: e.result.Confidence,
			AnalyzedAt: e.result.AnalyzedAt,
		})
	}

	if summary.Count > 0 {
		summary.AverageScore = total / float64(summary.Count)
	}

	return summary
}

func matches(e entry, opts QueryOptions) bool {
	r := e.result
	if !opts.Since.IsZero() && r.AnalyzedAt.Before(opts.Since) {
		return false
	}
	if !opts.Until.IsZero() && r.AnalyzedAt.After(opts.Until) {
		return false
	}
	if opts.MinScore != nil && r.OverallBiasScore < *opts.MinScore {
		return false
	}
	if opts.MaxScore != nil && r.OverallBiasScore > *opts.MaxScore {
		return false
	}
	if opts.DemographicKey != "" {
		v, ok := e.demographics[opts.DemographicKey]
		if !ok {
			return false
		}
		if opts.DemographicValue != "" && v != opts.DemographicValue {
			return false
		}
	}
	return true
}
