package assemble

import (
	"testing"

	"github.com/adlens/ads-audit/internal/domain"
	"github.com/adlens/ads-audit/internal/report/recommend"
	"github.com/adlens/ads-audit/internal/report/segment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportPartialFailure(t *testing.T) {
	r := NewReport("123-456-7890")
	r.AddSection(SectionResult{Name: "quality_score", OK: true})
	r.AddSection(SectionResult{Name: "search_terms", OK: false, Error: "upstream fetch failed"})
	r.AddSection(SectionResult{Name: "ad_strength", OK: true})

	assert.False(t, r.Complete())
	assert.Equal(t, []string{"search_terms"}, r.FailedSections())

	// A report with failed sections is still valid output.
	require.NotNil(t, r.Section("quality_score"))
	assert.True(t, r.Section("quality_score").OK)
	assert.Nil(t, r.Section("missing"))
}

func TestTableFromGrouping(t *testing.T) {
	records := []domain.Record{
		{Kind: domain.KindCampaign, CampaignName: "Brand", Metrics: domain.Metrics{Cost: 100, Clicks: 40, Impressions: 1000, Conversions: 4}},
		{Kind: domain.KindCampaign, CampaignName: "Generic", Metrics: domain.Metrics{Cost: 300, Clicks: 60, Impressions: 4000, Conversions: 2}},
	}
	g := segment.Aggregate(records, func(r domain.Record) string { return r.CampaignName }, segment.SortCost)

	table := TableFromGrouping("campaign_distribution", g)

	assert.Equal(t, "campaign_distribution", table.Name)
	require.Len(t, table.Rows, 3, "segments plus Total row")
	assert.Equal(t, "Generic", table.Rows[0][0], "sorted by cost descending")
	assert.Equal(t, segment.TotalKey, table.Rows[2][0])
	assert.Len(t, table.Columns, len(table.Rows[0]))
}

func TestTableFromGroupingNullMetricsRenderDash(t *testing.T) {
	records := []domain.Record{
		{Kind: domain.KindCampaign, CampaignName: "NoConv", Metrics: domain.Metrics{Cost: 10, Clicks: 1, Impressions: 10}},
	}
	g := segment.Aggregate(records, func(r domain.Record) string { return r.CampaignName }, segment.SortCost)
	table := TableFromGrouping("t", g)

	// CPA column renders "-" for null, never "Inf".
	cpaCol := 9
	assert.Equal(t, "-", table.Rows[0][cpaCol])
}

func TestTableFromRecommendations(t *testing.T) {
	recs := []recommend.Recommendation{
		{Subject: "idle keyword", Kind: domain.KindKeyword, Category: "wasted_spend", Issue: "no conversions", Action: "pause", Priority: 9, Cost: 50},
	}
	table := TableFromRecommendations("recommendations", recs)

	require.Len(t, table.Rows, 1)
	assert.Equal(t, "idle keyword", table.Rows[0][0])
	assert.Equal(t, "9", table.Rows[0][5])
}

func TestRecommendationsFlattened(t *testing.T) {
	r := NewReport("c")
	r.AddSection(SectionResult{Name: "a", OK: true, Recommendations: []recommend.Recommendation{{Subject: "x"}}})
	r.AddSection(SectionResult{Name: "b", OK: true, Recommendations: []recommend.Recommendation{{Subject: "y"}, {Subject: "z"}}})

	all := r.Recommendations()
	require.Len(t, all, 3)
	assert.Equal(t, "x", all[0].Subject)
}

func TestNewReportHasIdentity(t *testing.T) {
	a := NewReport("c1")
	b := NewReport("c1")
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.GeneratedAt.IsZero())
}
