package aggregator

import "github.com/fairlens/fairlens/internal/core/domain"

// Recommendation texts. These are part of the external contract: the
// dashboard matches on them, so change with care.
const (
	RecommendFallback = "Some analysis layers used fallback values; results reflect a limited analysis."
	RecommendAllDown  = "All analysis layers were unavailable; this result has very limited confidence and should be re-run."
	RecommendPartial  = "One or more analyzer services returned malformed data; analysis is incomplete pending service repair."
	RecommendReview   = "Overall bias score is elevated; route this session for human review."
)

// recommend produces the deterministic, rule-based guidance list. Rules
// append in detection order and each fires at most once.
func (e *Engine) recommend(degraded, total int, malformed bool, level domain.AlertLevel) []string {
	recs := make([]string, 0, 4)

	if degraded > 0 {
		recs = append(recs, RecommendFallback)
	}
	if total > 0 && degraded == total {
		recs = append(recs, RecommendAllDown)
	}
	if malformed {
		recs = append(recs, RecommendPartial)
	}
	if level.AtLeast(domain.AlertHigh) {
		recs = append(recs, RecommendReview)
	}

	return recs
}
