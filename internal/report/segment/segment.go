// Package segment groups records by a key and produces per-group summaries
// with percentage-of-total columns. Segments are ephemeral, recomputed per
// report run.
package segment

import (
	"sort"

	"github.com/adlens/ads-audit/internal/domain"
	"github.com/adlens/ads-audit/internal/report/metric"
)

// KeyFunc extracts the grouping key from a record. Multi-field keys are
// composed by the caller (e.g. "campaign|match_type").
type KeyFunc func(domain.Record) string

// SortField selects which summed measure orders the segment list.
type SortField string

const (
	SortCost        SortField = "cost"
	SortClicks      SortField = "clicks"
	SortImpressions SortField = "impressions"
	SortConversions SortField = "conversions"
)

// TotalKey is the key of the implicit total pseudo-segment.
const TotalKey = "Total"

// Shares holds percentage-of-total columns for the summed measures. Within
// a grouping each column sums to 100 across segments (within rounding),
// or to 0 when the total for that measure is zero.
type Shares struct {
	CostPct        float64 `json:"cost_pct"`
	ClicksPct      float64 `json:"clicks_pct"`
	ImpressionsPct float64 `json:"impressions_pct"`
	ConversionsPct float64 `json:"conversions_pct"`
}

// Segment is one group's summed measurements plus derived ratios.
type Segment struct {
	Key     string `json:"key"`
	Records int    `json:"records"`

	domain.Metrics
	Shares

	CTR        metric.Value `json:"ctr"`
	CPA        metric.Value `json:"cpa"`
	ConvRate   metric.Value `json:"conv_rate"`
	Efficiency metric.Value `json:"efficiency"`
}

// Grouping is the result of one aggregation pass: the per-key segments in
// sorted order plus the Total pseudo-segment.
type Grouping struct {
	Segments []Segment `json:"segments"`
	Total    Segment   `json:"total"`
}

// Aggregate groups records by keyFn, sums the measurement fields per key,
// attaches percentage-of-total and derived metrics, and sorts segments by
// the given field descending (stable: equal values keep input order).
// Empty input yields zero segments and an all-zero Total, not an error.
func Aggregate(records []domain.Record, keyFn KeyFunc, sortBy SortField) Grouping {
	index := make(map[string]int)
	segments := make([]Segment, 0)
	total := Segment{Key: TotalKey}

	for _, rec := range records {
		key := keyFn(rec)
		i, ok := index[key]
		if !ok {
			i = len(segments)
			index[key] = i
			segments = append(segments, Segment{Key: key})
		}
		segments[i].Metrics.Add(rec.Metrics)
		segments[i].Records++
		total.Metrics.Add(rec.Metrics)
		total.Records++
	}

	for i := range segments {
		segments[i].Shares = shares(segments[i].Metrics, total.Metrics)
		attachDerived(&segments[i])
		segments[i].Efficiency, _ = metric.Efficiency(segments[i].ConversionsPct, segments[i].CostPct)
	}
	total.Shares = shares(total.Metrics, total.Metrics)
	attachDerived(&total)

	sort.SliceStable(segments, func(a, b int) bool {
		return measure(segments[a], sortBy) > measure(segments[b], sortBy)
	})

	return Grouping{Segments: segments, Total: total}
}

func shares(m, total domain.Metrics) Shares {
	return Shares{
		CostPct:        pct(m.Cost, total.Cost),
		ClicksPct:      pct(float64(m.Clicks), float64(total.Clicks)),
		ImpressionsPct: pct(float64(m.Impressions), float64(total.Impressions)),
		ConversionsPct: pct(m.Conversions, total.Conversions),
	}
}

func pct(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}

// attachDerived computes the ratio columns. Aggregated sums of validated
// records cannot be negative, so the calculator errors are unreachable here.
func attachDerived(s *Segment) {
	s.CTR, _ = metric.CTR(s.Clicks, s.Impressions)
	s.CPA, _ = metric.CPA(s.Cost, s.Conversions)
	s.ConvRate, _ = metric.ConvRate(s.Conversions, s.Clicks)
}

func measure(s Segment, field SortField) float64 {
	switch field {
	case SortClicks:
		return float64(s.Clicks)
	case SortImpressions:
		return float64(s.Impressions)
	case SortConversions:
		return s.Conversions
	default:
		return s.Cost
	}
}

// Find returns the segment with the given key, or nil.
func (g Grouping) Find(key string) *Segment {
	for i := range g.Segments {
		if g.Segments[i].Key == key {
			return &g.Segments[i]
		}
	}
	return nil
}
