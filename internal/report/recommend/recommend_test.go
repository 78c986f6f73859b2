package recommend

import (
	"sort"
	"testing"

	"github.com/adlens/ads-audit/internal/domain"
	"github.com/adlens/ads-audit/internal/report/metric"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pauseRules() []Rule {
	return []Rule{
		{
			Name:     "zero_conversion_spend",
			Category: "wasted_spend",
			When:     func(s Subject) bool { return s.Conversions == 0 && s.Cost > 0 },
			Issue:    "spend with no conversions",
			Action:   "pause candidate: review targeting or pause",
			Impact:   3,
			Effort:   1,
		},
		{
			Name:     "low_ctr",
			Category: "relevance",
			When: func(s Subject) bool {
				v, ok := s.Value("ctr").Float()
				return ok && v < 1.0
			},
			Issue:    "click-through rate below 1%",
			Action:   "rewrite ad copy or tighten match types",
			Impact:   2,
			Effort:   2,
		},
	}
}

func TestGeneratePauseCandidateExample(t *testing.T) {
	// Worked example: cost=50, clicks=0, conversions=0 with min_cost=20 is
	// included (cost over threshold) and flagged as a pause candidate.
	subjects := []Subject{
		{
			Kind:    domain.KindKeyword,
			Name:    "idle keyword",
			Metrics: domain.Metrics{Cost: 50},
		},
	}

	recs, err := Generate(pauseRules(), subjects, MinData{MinCost: 20})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "wasted_spend", recs[0].Category)
	assert.Equal(t, "idle keyword", recs[0].Subject)
}

func TestGenerateSkipsInsufficientDataSilently(t *testing.T) {
	subjects := []Subject{
		{Kind: domain.KindKeyword, Name: "tiny", Metrics: domain.Metrics{Cost: 0.5}},
	}

	recs, err := Generate(pauseRules(), subjects, MinData{MinCost: 20, MinClicks: 10})
	require.NoError(t, err)
	assert.Empty(t, recs, "below-threshold subjects are filtered, not errors")
}

func TestGenerateMultipleMatchesPerSubject(t *testing.T) {
	subjects := []Subject{
		{
			Kind:    domain.KindKeyword,
			Name:    "weak keyword",
			Metrics: domain.Metrics{Cost: 100, Clicks: 5, Impressions: 1000},
			Values:  map[string]metric.Value{"ctr": metric.From(0.5)},
		},
	}

	recs, err := Generate(pauseRules(), subjects, MinData{})
	require.NoError(t, err)
	assert.Len(t, recs, 2, "rules are not mutually exclusive")
}

func TestGenerateOrdering(t *testing.T) {
	rules := []Rule{
		{Name: "high", Category: "a", When: func(s Subject) bool { return true }, Issue: "i", Action: "a", Impact: 3, Effort: 3},
		{Name: "low", Category: "b", When: func(s Subject) bool { return s.Name == "cheap" }, Issue: "i", Action: "a", Impact: 1, Effort: 1},
	}
	subjects := []Subject{
		{Kind: domain.KindKeyword, Name: "cheap", Metrics: domain.Metrics{Cost: 10}},
		{Kind: domain.KindKeyword, Name: "expensive", Metrics: domain.Metrics{Cost: 500}},
	}

	recs, err := Generate(rules, subjects, MinData{})
	require.NoError(t, err)
	require.Len(t, recs, 3)

	// Priority descending; the two priority-9 matches tie-break by cost.
	assert.Equal(t, "expensive", recs[0].Subject)
	assert.Equal(t, "cheap", recs[1].Subject)
	assert.Equal(t, 1, recs[2].Priority)

	assert.True(t, sort.SliceIsSorted(recs, func(a, b int) bool {
		if recs[a].Priority != recs[b].Priority {
			return recs[a].Priority > recs[b].Priority
		}
		return recs[a].Cost > recs[b].Cost
	}))
}

func TestGenerateRejectsBadRuleTable(t *testing.T) {
	_, err := Generate([]Rule{{Name: "no-cond", Impact: 1, Effort: 1}}, nil, MinData{})
	assert.Error(t, err)

	_, err = Generate([]Rule{{Name: "bad-impact", When: func(Subject) bool { return true }, Impact: 4, Effort: 1}}, nil, MinData{})
	assert.Error(t, err)

	_, err = Generate([]Rule{{Name: "bad-effort", When: func(Subject) bool { return true }, Impact: 1, Effort: 0}}, nil, MinData{})
	assert.Error(t, err)
}

func TestSubjectAccessorsDefaultToNoData(t *testing.T) {
	s := Subject{}
	assert.False(t, s.Value("ctr").Valid())
	assert.True(t, s.Label("quality_score").IsUnknown())
}
