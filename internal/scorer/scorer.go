// Package scorer computes ICP fit scores for normalized company records and
// ranks them.
package scorer

import (
	"math"
	"strings"

	"github.com/sells-group/outreach-cli/internal/model"
)

// DefaultReferenceYear anchors company-age calculations when no reference
// year is configured. Injected rather than read from the clock so scoring
// stays deterministic.
const DefaultReferenceYear = 2025

// Quality sub-score thresholds.
const (
	qualityLargeHeadcount   = 500
	qualityMediumHeadcount  = 100
	qualityRevenueThreshold = 10_000_000
)

// Scorer scores companies against an ICP.
type Scorer struct {
	weights Weights
	refYear int
}

// New creates a Scorer with the given weights and the default reference year.
func New(weights Weights) *Scorer {
	return &Scorer{weights: weights, refYear: DefaultReferenceYear}
}

// WithReferenceYear fixes the year used for company-age calculations.
func (s *Scorer) WithReferenceYear(year int) *Scorer {
	if year > 0 {
		s.refYear = year
	}
	return s
}

// Score computes the weighted fit score for one record, in [0,1] rounded to
// three decimals. Identical inputs always produce identical output.
func (s *Scorer) Score(rec model.CompanyRecord, icp model.ICP) float64 {
	total := s.weights.Industry*scoreIndustry(rec.Industries, icp.Industries) +
		s.weights.Size*scoreRangeFit(rec.Headcount, icp.HeadcountMin, icp.HeadcountMax) +
		s.weights.Revenue*scoreRangeFit(rec.Revenue, icp.RevenueMin, icp.RevenueMax) +
		s.weights.Quality*scoreQuality(rec, s.refYear)

	total = math.Min(total, 1.0)
	return math.Round(total*1000) / 1000
}

// ScoreAll attaches scores to a batch of records.
func (s *Scorer) ScoreAll(records []model.CompanyRecord, icp model.ICP) []model.CompanyRecord {
	out := make([]model.CompanyRecord, len(records))
	for i, rec := range records {
		rec.Score = s.Score(rec, icp)
		out[i] = rec
	}
	return out
}

// scoreIndustry measures industry alignment. Records with no tags score a
// neutral 0.5; an exact tag match for a target outranks any partial
// (substring either direction) match for the same target.
func scoreIndustry(tags, targets []string) float64 {
	if len(tags) == 0 {
		return 0.5
	}
	if len(targets) == 0 {
		return 0.5
	}

	var exact, partial int
	for _, target := range targets {
		tl := strings.ToLower(target)

		matched := false
		for _, tag := range tags {
			if strings.ToLower(tag) == tl {
				exact++
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		for _, tag := range tags {
			cl := strings.ToLower(tag)
			if strings.Contains(cl, tl) || strings.Contains(tl, cl) {
				partial++
				break
			}
		}
	}

	total := float64(len(targets))
	switch {
	case exact > 0:
		return math.Min(1.0, 0.8+(float64(exact)/total)*0.2)
	case partial > 0:
		return math.Min(0.8, 0.4+(float64(partial)/total)*0.4)
	default:
		return 0.2
	}
}

// scoreRangeFit measures how well a value fits [min,max]. Zero means the
// value is unknown and scores a neutral 0.5. Outside the range, credit
// decays linearly over a tolerance band of half the range width.
func scoreRangeFit(value, lo, hi int) float64 {
	if value == 0 {
		return 0.5
	}
	if value >= lo && value <= hi {
		return 1.0
	}

	tolerance := float64(hi-lo) * 0.5

	var distance float64
	if value < lo {
		distance = float64(lo - value)
	} else {
		distance = float64(value - hi)
	}

	if distance <= tolerance {
		return math.Max(0.3, 1.0-(distance/tolerance)*0.7)
	}
	return 0.1
}

// scoreQuality sums additive quality signals, capped at 1.0. The headcount
// bonus applies only the highest tier reached.
func scoreQuality(rec model.CompanyRecord, refYear int) float64 {
	var q float64

	if year, ok := foundedYear(rec.FoundedYear); ok {
		age := refYear - year
		switch {
		case age >= 5 && age <= 20:
			q += 0.3
		case age < 5:
			q += 0.2
		default:
			q += 0.25
		}
	}

	if rec.Headquarters != "" {
		q += 0.2
	}

	if len(rec.LinkedinIndustries) >= 2 {
		q += 0.2
	}

	switch {
	case rec.Headcount >= qualityLargeHeadcount:
		q += 0.25
	case rec.Headcount >= qualityMediumHeadcount:
		q += 0.15
	}

	if rec.Revenue >= qualityRevenueThreshold {
		q += 0.15
	}

	return math.Min(q, 1.0)
}

// foundedYear parses the leading four characters of a year_founded value.
// Anything that does not start with four digits is treated as unknown.
func foundedYear(raw string) (int, bool) {
	if len(raw) < 4 {
		return 0, false
	}
	year := 0
	for _, c := range raw[:4] {
		if c < '0' || c > '9' {
			return 0, false
		}
		year = year*10 + int(c-'0')
	}
	return year, true
}
