package scorer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/model"
)

func testICP() model.ICP {
	return model.ICP{
		Industries:   []string{"Technology"},
		RevenueMin:   1_000_000,
		RevenueMax:   100_000_000,
		HeadcountMin: 50,
		HeadcountMax: 1000,
	}
}

func TestScoreIndustry(t *testing.T) {
	tests := []struct {
		name    string
		tags    []string
		targets []string
		want    float64
	}{
		{"no tags neutral", nil, []string{"Technology"}, 0.5},
		{"single exact", []string{"Technology"}, []string{"Technology"}, 1.0},
		{"exact case-insensitive", []string{"technology"}, []string{"Technology"}, 1.0},
		{"one exact of two targets", []string{"Technology"}, []string{"Technology", "Healthcare"}, 0.9},
		{"partial only", []string{"Information Technology"}, []string{"Technology"}, 0.8},
		{"partial reversed containment", []string{"Tech"}, []string{"Technology"}, 0.8},
		{"one partial of two targets", []string{"Information Technology"}, []string{"Technology", "Healthcare"}, 0.6},
		{"no match", []string{"Agriculture"}, []string{"Fintech"}, 0.2},
		{"exact outranks partial on same target", []string{"Information Technology", "Technology"}, []string{"Technology"}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreIndustry(tt.tags, tt.targets)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestScoreIndustry_Monotonic(t *testing.T) {
	// More exact matches (total targets fixed) never lowers the score.
	targets := []string{"Technology", "SaaS", "Fintech"}
	prev := 0.0
	for _, tags := range [][]string{
		{"Technology"},
		{"Technology", "SaaS"},
		{"Technology", "SaaS", "Fintech"},
	} {
		got := scoreIndustry(tags, targets)
		assert.GreaterOrEqual(t, got, prev)
		prev = got
	}
}

func TestScoreRangeFit(t *testing.T) {
	tests := []struct {
		name  string
		value int
		lo    int
		hi    int
		want  float64
	}{
		{"unknown neutral", 0, 50, 1000, 0.5},
		{"in range", 500, 50, 1000, 1.0},
		{"at lower bound", 50, 50, 1000, 1.0},
		{"at upper bound", 1000, 50, 1000, 1.0},
		{"below within tolerance", 75, 100, 200, 0.65},  // distance 25, tolerance 50
		{"above within tolerance", 225, 100, 200, 0.65}, // distance 25, tolerance 50
		{"tolerance floor", 50, 100, 200, 0.3},          // distance equals tolerance
		{"just past tolerance", 49, 100, 200, 0.1},
		{"far below", 5, 1000, 2000, 0.1},
		{"far above", 5000, 100, 200, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreRangeFit(tt.value, tt.lo, tt.hi)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestScoreRangeFit_PinnedRange(t *testing.T) {
	// min == max == h with value == h scores a perfect 1.0.
	assert.InDelta(t, 1.0, scoreRangeFit(250, 250, 250), 0.001)
	// Any other value has zero tolerance and drops to the floor.
	assert.InDelta(t, 0.1, scoreRangeFit(251, 250, 250), 0.001)
}

func TestScoreRangeFit_UnknownIgnoresBounds(t *testing.T) {
	for _, bounds := range [][2]int{{0, 0}, {1, 2}, {500, 500}, {1, 1_000_000}} {
		assert.InDelta(t, 0.5, scoreRangeFit(0, bounds[0], bounds[1]), 0.001)
	}
}

func TestScoreQuality(t *testing.T) {
	tests := []struct {
		name string
		rec  model.CompanyRecord
		want float64
	}{
		{"empty record", model.CompanyRecord{}, 0},
		{"sweet spot age", model.CompanyRecord{FoundedYear: "2015"}, 0.3},
		{"very young", model.CompanyRecord{FoundedYear: "2023"}, 0.2},
		{"established", model.CompanyRecord{FoundedYear: "1990"}, 0.25},
		{"invalid year ignored", model.CompanyRecord{FoundedYear: "unknown"}, 0},
		{"short year ignored", model.CompanyRecord{FoundedYear: "99"}, 0},
		{"headquarters", model.CompanyRecord{Headquarters: "NYC"}, 0.2},
		{"two linkedin tags", model.CompanyRecord{LinkedinIndustries: []string{"A", "B"}}, 0.2},
		{"merged union alone earns no depth bonus", model.CompanyRecord{Industries: []string{"A", "B"}}, 0},
		{"large headcount highest tier only", model.CompanyRecord{Headcount: 600}, 0.25},
		{"medium headcount", model.CompanyRecord{Headcount: 150}, 0.15},
		{"small headcount no bonus", model.CompanyRecord{Headcount: 50}, 0},
		{"high revenue", model.CompanyRecord{Revenue: 10_000_000}, 0.15},
		{
			"all signals capped",
			model.CompanyRecord{
				FoundedYear:        "2012",
				Headquarters:       "Austin",
				LinkedinIndustries: []string{"A", "B", "C"},
				Headcount:          2000,
				Revenue:            50_000_000,
			},
			1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreQuality(tt.rec, DefaultReferenceYear)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestScore_EndToEnd(t *testing.T) {
	s := New(DefaultWeights()).WithReferenceYear(2025)

	// In-range on every axis; quality = age 0.3 + hq 0.2 + headcount tier 0.15.
	rec := model.CompanyRecord{
		Name:         "Acme",
		Industries:   []string{"Technology"},
		Headcount:    300,
		Revenue:      5_000_000,
		FoundedYear:  "2015",
		Headquarters: "NYC",
	}
	assert.InDelta(t, 0.965, s.Score(rec, testICP()), 0.0001)

	// At 500 employees the highest headcount tier applies (+0.25).
	rec.Headcount = 500
	assert.InDelta(t, 0.975, s.Score(rec, testICP()), 0.0001)
}

func TestScore_AlwaysInUnitInterval(t *testing.T) {
	s := New(DefaultWeights())

	records := []model.CompanyRecord{
		{},
		{Name: "max everything", Industries: []string{"Technology"}, Headcount: 500,
			Revenue: 50_000_000, FoundedYear: "2015", Headquarters: "SF"},
		{Headcount: 1, Revenue: 1},
		{Industries: []string{"zzz"}, Headcount: 9_999_999, Revenue: 1},
	}
	for _, rec := range records {
		got := s.Score(rec, testICP())
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
	}
}

func TestScore_Deterministic(t *testing.T) {
	s := New(DefaultWeights()).WithReferenceYear(2025)
	rec := model.CompanyRecord{
		Industries: []string{"Software"}, Headcount: 120, Revenue: 3_000_000, FoundedYear: "2018",
	}
	first := s.Score(rec, testICP())
	for range 10 {
		assert.Equal(t, first, s.Score(rec, testICP()))
	}
}

func TestRank(t *testing.T) {
	records := []model.CompanyRecord{
		{Name: "low", Score: 0.2},
		{Name: "tie-a", Score: 0.8},
		{Name: "high", Score: 0.9},
		{Name: "tie-b", Score: 0.8},
	}

	ranked := Rank(records, 20)
	require.Len(t, ranked, 4)
	assert.Equal(t, "high", ranked[0].Name)
	// Stable: equal scores keep input order.
	assert.Equal(t, "tie-a", ranked[1].Name)
	assert.Equal(t, "tie-b", ranked[2].Name)
	assert.Equal(t, "low", ranked[3].Name)

	// Input slice untouched.
	assert.Equal(t, "low", records[0].Name)
}

func TestRank_Truncates(t *testing.T) {
	records := make([]model.CompanyRecord, 30)
	for i := range records {
		records[i].Score = float64(i) / 100
	}

	ranked := Rank(records, 0) // zero falls back to the default window
	assert.Len(t, ranked, DefaultResultLimit)

	ranked = Rank(records, 5)
	assert.Len(t, ranked, 5)
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Score, ranked[i].Score)
	}
}

func TestWeights_Validate(t *testing.T) {
	assert.NoError(t, DefaultWeights().Validate())

	bad := Weights{Industry: 0.5, Size: 0.5, Revenue: 0.5, Quality: 0.5}
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum to 1.0")

	negative := Weights{Industry: -0.1, Size: 0.6, Revenue: 0.3, Quality: 0.2}
	err = negative.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "industry must be >= 0")
}

func TestLoadWeights(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")
	require.NoError(t, os.WriteFile(path, []byte("industry: 0.5\nsize: 0.2\nrevenue: 0.2\nquality: 0.1\n"), 0o644))

	w, err := LoadWeights(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, w.Industry, 0.001)
	assert.InDelta(t, 0.1, w.Quality, 0.001)

	_, err = LoadWeights(t.TempDir() + "/missing.yaml")
	assert.Error(t, err)
}
