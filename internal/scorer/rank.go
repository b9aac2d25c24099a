package scorer

import (
	"sort"

	"github.com/sells-group/outreach-cli/internal/model"
)

// DefaultResultLimit bounds the ranked result window.
const DefaultResultLimit = 20

// Rank sorts records by score descending and truncates to limit. The sort
// is stable: records with equal scores keep their input order. A limit of
// zero or less falls back to DefaultResultLimit.
func Rank(records []model.CompanyRecord, limit int) []model.CompanyRecord {
	if limit <= 0 {
		limit = DefaultResultLimit
	}

	ranked := make([]model.CompanyRecord, len(records))
	copy(ranked, records)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
