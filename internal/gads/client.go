package gads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/adlens/ads-audit/internal/domain"
	"github.com/adlens/ads-audit/internal/pkg/httpretry"
	"github.com/adlens/ads-audit/internal/pkg/logger"
)

const apiVersion = "v17"

// Client fetches records from the Google Ads REST searchStream endpoint.
type Client struct {
	baseURL        string
	developerToken string
	customerID     string
	httpClient     httpretry.HTTPDoer
}

// NewClient creates a Google Ads API client. customerID is the digits-only
// form (no dashes). If httpClient is nil a retrying client with sane
// defaults is used.
func NewClient(baseURL, developerToken, customerID string, httpClient httpretry.HTTPDoer) *Client {
	if httpClient == nil {
		httpClient = httpretry.NewRetryClient(&http.Client{Timeout: 60 * time.Second}, 3)
	}
	return &Client{
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		developerToken: developerToken,
		customerID:     customerID,
		httpClient:     httpClient,
	}
}

// kindQueries maps each record kind to its GAQL report query.
var kindQueries = map[domain.Kind]string{
	domain.KindCampaign: `SELECT campaign.id, campaign.name, campaign.bidding_strategy_type,
		campaign.target_cpa.target_cpa_micros, campaign.target_roas.target_roas,
		metrics.cost_micros, metrics.clicks, metrics.impressions, metrics.conversions
		FROM campaign WHERE segments.date BETWEEN '%s' AND '%s'`,
	domain.KindAdGroup: `SELECT campaign.id, campaign.name, ad_group.id, ad_group.name,
		metrics.cost_micros, metrics.clicks, metrics.impressions, metrics.conversions
		FROM ad_group WHERE segments.date BETWEEN '%s' AND '%s'`,
	domain.KindKeyword: `SELECT campaign.id, campaign.name, ad_group.id, ad_group.name,
		ad_group_criterion.criterion_id, ad_group_criterion.keyword.text,
		ad_group_criterion.keyword.match_type, ad_group_criterion.quality_info.quality_score,
		metrics.cost_micros, metrics.clicks, metrics.impressions, metrics.conversions
		FROM keyword_view WHERE segments.date BETWEEN '%s' AND '%s'`,
	domain.KindSearchTerm: `SELECT campaign.id, campaign.name, ad_group.id, ad_group.name,
		search_term_view.search_term, search_term_view.status,
		metrics.cost_micros, metrics.clicks, metrics.impressions, metrics.conversions
		FROM search_term_view WHERE segments.date BETWEEN '%s' AND '%s'`,
	domain.KindAd: `SELECT campaign.id, campaign.name, ad_group.id, ad_group.name,
		ad_group_ad.ad.id, ad_group_ad.ad.name, ad_group_ad.ad.type, ad_group_ad.ad_strength,
		metrics.cost_micros, metrics.clicks, metrics.impressions, metrics.conversions
		FROM ad_group_ad WHERE segments.date BETWEEN '%s' AND '%s'`,
	domain.KindPlacement: `SELECT campaign.id, campaign.name, ad_group.id, ad_group.name,
		detail_placement_view.group_placement_target_url,
		metrics.cost_micros, metrics.clicks, metrics.impressions, metrics.conversions
		FROM detail_placement_view WHERE segments.date BETWEEN '%s' AND '%s'`,
	domain.KindExtension: `SELECT campaign.id, campaign.name, asset.id, asset.name,
		asset_field_type_view.field_type,
		metrics.cost_micros, metrics.clicks, metrics.impressions, metrics.conversions
		FROM asset_field_type_view WHERE segments.date BETWEEN '%s' AND '%s'`,
}

// Fetch runs the report query for the given kind and window.
func (c *Client) Fetch(ctx context.Context, kind domain.Kind, window DateRange) ([]domain.Record, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	tmpl, ok := kindQueries[kind]
	if !ok {
		return nil, fmt.Errorf("gads: no query for kind %q", kind)
	}
	query := fmt.Sprintf(tmpl, window.Start.Format("2006-01-02"), window.End.Format("2006-01-02"))

	body, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, fmt.Errorf("gads: marshal query: %w", err)
	}

	url := fmt.Sprintf("%s/%s/customers/%s/googleAds:searchStream", c.baseURL, apiVersion, c.customerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gads: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("developer-token", c.developerToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gads: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("gads: searchStream returned %d: %s", resp.StatusCode, string(respBody))
	}

	var chunks []searchChunk
	if err := json.NewDecoder(resp.Body).Decode(&chunks); err != nil {
		return nil, fmt.Errorf("gads: decode response: %w", err)
	}

	records := make([]domain.Record, 0)
	row := 0
	for _, chunk := range chunks {
		for _, res := range chunk.Results {
			row++
			rec := res.toRecord(kind)
			if err := rec.Validate(row); err != nil {
				logger.Warn("skipping invalid record", "kind", string(kind), "error", err.Error())
				continue
			}
			records = append(records, rec)
		}
	}

	logger.Debug("fetched records",
		"kind", string(kind),
		"window", window.String(),
		"count", strconv.Itoa(len(records)))
	return records, nil
}

// searchChunk is one element of the searchStream response array.
type searchChunk struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Campaign struct {
		ID                  string `json:"id"`
		Name                string `json:"name"`
		BiddingStrategyType string `json:"biddingStrategyType"`
		TargetCPA           struct {
			TargetCPAMicros string `json:"targetCpaMicros"`
		} `json:"targetCpa"`
		TargetROAS struct {
			TargetROAS float64 `json:"targetRoas"`
		} `json:"targetRoas"`
	} `json:"campaign"`
	AdGroup struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"adGroup"`
	AdGroupCriterion struct {
		CriterionID string `json:"criterionId"`
		Keyword     struct {
			Text      string `json:"text"`
			MatchType string `json:"matchType"`
		} `json:"keyword"`
		QualityInfo struct {
			QualityScore int `json:"qualityScore"`
		} `json:"qualityInfo"`
	} `json:"adGroupCriterion"`
	SearchTermView struct {
		SearchTerm string `json:"searchTerm"`
		Status     string `json:"status"`
	} `json:"searchTermView"`
	AdGroupAd struct {
		Ad struct {
			ID   string `json:"id"`
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"ad"`
		AdStrength string `json:"adStrength"`
	} `json:"adGroupAd"`
	DetailPlacementView struct {
		TargetURL string `json:"groupPlacementTargetUrl"`
	} `json:"detailPlacementView"`
	Asset struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"asset"`
	AssetFieldTypeView struct {
		FieldType string `json:"fieldType"`
	} `json:"assetFieldTypeView"`
	Metrics struct {
		CostMicros  string  `json:"costMicros"`
		Clicks      string  `json:"clicks"`
		Impressions string  `json:"impressions"`
		Conversions float64 `json:"conversions"`
	} `json:"metrics"`
}

func (r searchResult) toRecord(kind domain.Kind) domain.Record {
	rec := domain.Record{
		Kind:         kind,
		CampaignID:   r.Campaign.ID,
		CampaignName: r.Campaign.Name,
		AdGroupID:    r.AdGroup.ID,
		AdGroupName:  r.AdGroup.Name,
	}
	rec.Cost = microsToUnits(r.Metrics.CostMicros)
	rec.Clicks = parseInt64(r.Metrics.Clicks)
	rec.Impressions = parseInt64(r.Metrics.Impressions)
	rec.Conversions = r.Metrics.Conversions

	switch kind {
	case domain.KindCampaign:
		rec.ID = r.Campaign.ID
		rec.Name = r.Campaign.Name
		rec.BiddingStrategy = domain.BiddingStrategy(strings.ToLower(r.Campaign.BiddingStrategyType))
		rec.TargetCPA = microsToUnits(r.Campaign.TargetCPA.TargetCPAMicros)
		rec.TargetROAS = r.Campaign.TargetROAS.TargetROAS
	case domain.KindAdGroup:
		rec.ID = r.AdGroup.ID
		rec.Name = r.AdGroup.Name
	case domain.KindKeyword:
		rec.ID = r.AdGroupCriterion.CriterionID
		rec.Name = r.AdGroupCriterion.Keyword.Text
		rec.MatchType = domain.MatchType(strings.ToLower(r.AdGroupCriterion.Keyword.MatchType))
		if qs := r.AdGroupCriterion.QualityInfo.QualityScore; qs > 0 {
			rec.QualityScore = &qs
		}
	case domain.KindSearchTerm:
		rec.SearchTerm = r.SearchTermView.SearchTerm
		rec.AddedExcluded = strings.ToLower(r.SearchTermView.Status)
	case domain.KindAd:
		rec.ID = r.AdGroupAd.Ad.ID
		rec.Name = r.AdGroupAd.Ad.Name
		rec.AdType = r.AdGroupAd.Ad.Type
		rec.AdStrength = domain.AdStrength(strings.ToLower(r.AdGroupAd.AdStrength))
	case domain.KindPlacement:
		rec.PlacementURL = r.DetailPlacementView.TargetURL
	case domain.KindExtension:
		rec.ID = r.Asset.ID
		rec.Name = r.Asset.Name
		rec.ExtensionType = r.AssetFieldTypeView.FieldType
	}
	return rec
}

func microsToUnits(micros string) float64 {
	n, err := strconv.ParseInt(micros, 10, 64)
	if err != nil {
		return 0
	}
	return float64(n) / 1e6
}

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
