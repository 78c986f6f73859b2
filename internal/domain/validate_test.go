package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsCleanRecord(t *testing.T) {
	qs := 7
	rec := Record{
		Kind:         KindKeyword,
		CampaignName: "Brand",
		Name:         "running shoes",
		Metrics:      Metrics{Cost: 120.50, Clicks: 40, Impressions: 1000, Conversions: 3},
		QualityScore: &qs,
		MatchType:    MatchExact,
	}
	assert.NoError(t, rec.Validate(1))
}

func TestValidateRejectsNegativeCounts(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Record)
		field  string
	}{
		{"negative cost", func(r *Record) { r.Cost = -1 }, "cost"},
		{"negative clicks", func(r *Record) { r.Clicks = -5 }, "clicks"},
		{"negative impressions", func(r *Record) { r.Impressions = -1 }, "impressions"},
		{"negative conversions", func(r *Record) { r.Conversions = -0.5 }, "conversions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Record{Kind: KindKeyword, Name: "kw", Metrics: Metrics{Impressions: 10}}
			tt.mutate(&rec)
			err := rec.Validate(42)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, 42, verr.Row)
			assert.Equal(t, KindKeyword, verr.Kind)
		})
	}
}

func TestValidateRejectsClicksOverImpressions(t *testing.T) {
	rec := Record{Kind: KindAd, Name: "ad-1", Metrics: Metrics{Clicks: 11, Impressions: 10}}
	err := rec.Validate(3)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "clicks", verr.Field)
}

func TestValidateRejectsQualityScoreOutOfScale(t *testing.T) {
	for _, bad := range []int{0, 11, -3} {
		qs := bad
		rec := Record{Kind: KindKeyword, Name: "kw", QualityScore: &qs}
		assert.Error(t, rec.Validate(1), "quality score %d should be rejected", bad)
	}
}

func TestValidateRequiresKindFields(t *testing.T) {
	rec := Record{Kind: KindSearchTerm, Metrics: Metrics{Impressions: 5}}
	err := rec.Validate(7)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "search_term", verr.Field)
}

func TestMetricsAdd(t *testing.T) {
	m := Metrics{Cost: 10, Clicks: 2, Impressions: 100, Conversions: 1}
	m.Add(Metrics{Cost: 5.5, Clicks: 3, Impressions: 50, Conversions: 0.5})

	assert.Equal(t, 15.5, m.Cost)
	assert.Equal(t, int64(5), m.Clicks)
	assert.Equal(t, int64(150), m.Impressions)
	assert.Equal(t, 1.5, m.Conversions)
}
