package classify

import (
	"testing"

	"github.com/adlens/ads-audit/internal/report/metric"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyBands(t *testing.T) {
	table := DefaultQualityScoreTable()

	tests := []struct {
		score float64
		label string
	}{
		{1, "Low"},
		{3, "Low"},
		{6, "Low"},
		{6.9, "Low"}, // lower bound closed, upper open
		{7, "High"},
		{10, "High"},
	}

	for _, tt := range tests {
		c := table.Classify(metric.From(tt.score))
		assert.Equal(t, tt.label, c.Label, "score %v", tt.score)
	}
}

func TestClassifyNullIsUnknown(t *testing.T) {
	table := DefaultCTRTable()
	c := table.Classify(metric.Null())

	assert.Equal(t, Unknown, c.Label)
	assert.Equal(t, UnknownRank, c.Rank)
	assert.True(t, c.IsUnknown())
}

func TestClassifyBelowFirstBoundIsUnknown(t *testing.T) {
	table := DefaultQualityScoreTable() // first lower bound is 1
	c := table.Classify(metric.From(0.5))
	assert.True(t, c.IsUnknown(), "value below every breakpoint must not default to the worst label")
}

func TestClassifyMonotonic(t *testing.T) {
	table := DefaultCTRTable()

	prevRank := UnknownRank
	for v := 0.0; v <= 10.0; v += 0.25 {
		c := table.Classify(metric.From(v))
		assert.GreaterOrEqual(t, c.Rank, prevRank, "rank decreased at value %v", v)
		prevRank = c.Rank
	}
}

func TestFromLabel(t *testing.T) {
	table := DefaultAdStrengthTable()

	c := table.FromLabel("GOOD")
	assert.Equal(t, "Good", c.Label)
	assert.Equal(t, 2, c.Rank)

	c = table.FromLabel("unrated")
	assert.True(t, c.IsUnknown())
}

func TestNewTableRejectsUnordered(t *testing.T) {
	_, err := NewTable("bad", []Breakpoint{
		{Lower: 5, Label: "High"},
		{Lower: 1, Label: "Low"},
	})
	assert.Error(t, err)
}

func TestNewTableRejectsEmpty(t *testing.T) {
	_, err := NewTable("empty", nil)
	assert.Error(t, err)

	_, err = NewTable("", []Breakpoint{{Lower: 0, Label: "x"}})
	assert.Error(t, err)
}

func TestTableIsolatedFromCallerSlice(t *testing.T) {
	bps := []Breakpoint{{Lower: 0, Label: "Low"}, {Lower: 5, Label: "High"}}
	table, err := NewTable("iso", bps)
	require.NoError(t, err)

	bps[1].Label = "Mutated"
	assert.Equal(t, []string{"Low", "High"}, table.Labels())
}
