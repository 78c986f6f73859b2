package domain

// Kind identifies which report a Record was extracted from.
type Kind string

const (
	KindCampaign   Kind = "campaign"
	KindAdGroup    Kind = "ad_group"
	KindKeyword    Kind = "keyword"
	KindSearchTerm Kind = "search_term"
	KindAd         Kind = "ad"
	KindExtension  Kind = "extension"
	KindPlacement  Kind = "placement"
)

// Kinds lists every record kind in report order.
func Kinds() []Kind {
	return []Kind{
		KindCampaign,
		KindAdGroup,
		KindKeyword,
		KindSearchTerm,
		KindAd,
		KindExtension,
		KindPlacement,
	}
}

// MatchType enumerates keyword match types.
type MatchType string

const (
	MatchExact  MatchType = "exact"
	MatchPhrase MatchType = "phrase"
	MatchBroad  MatchType = "broad"
)

// AdStrength is the vendor-assigned ordinal rating of ad asset richness.
type AdStrength string

const (
	AdStrengthPoor      AdStrength = "poor"
	AdStrengthAverage   AdStrength = "average"
	AdStrengthGood      AdStrength = "good"
	AdStrengthExcellent AdStrength = "excellent"
)

// BiddingStrategy enumerates campaign bidding strategies.
type BiddingStrategy string

const (
	BiddingManualCPC       BiddingStrategy = "manual_cpc"
	BiddingMaximizeClicks  BiddingStrategy = "maximize_clicks"
	BiddingMaximizeConv    BiddingStrategy = "maximize_conversions"
	BiddingTargetCPA       BiddingStrategy = "target_cpa"
	BiddingTargetROAS      BiddingStrategy = "target_roas"
	BiddingTargetImprShare BiddingStrategy = "target_impression_share"
)

// Metrics holds the measurement fields shared by every record kind.
type Metrics struct {
	Cost        float64 `json:"cost"`
	Clicks      int64   `json:"clicks"`
	Impressions int64   `json:"impressions"`
	Conversions float64 `json:"conversions"`
}

// Add accumulates another set of measurements into m.
func (m *Metrics) Add(other Metrics) {
	m.Cost += other.Cost
	m.Clicks += other.Clicks
	m.Impressions += other.Impressions
	m.Conversions += other.Conversions
}

// Record is a single row of an account extract. Each kind populates its own
// subset of the optional fields; the measurement fields are common to all.
// Records are loaded fresh per audit run and never mutated.
type Record struct {
	Kind Kind `json:"kind"`

	// Identity
	CampaignID   string `json:"campaign_id,omitempty"`
	CampaignName string `json:"campaign_name,omitempty"`
	AdGroupID    string `json:"ad_group_id,omitempty"`
	AdGroupName  string `json:"ad_group_name,omitempty"`
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`

	Metrics

	// Keyword / search term fields
	QualityScore  *int      `json:"quality_score,omitempty"` // vendor scale 1-10, nil when not provided
	MatchType     MatchType `json:"match_type,omitempty"`
	SearchTerm    string    `json:"search_term,omitempty"`
	AddedExcluded string    `json:"added_excluded,omitempty"` // "added", "excluded", "none"

	// Ad fields
	AdStrength AdStrength `json:"ad_strength,omitempty"`
	AdType     string     `json:"ad_type,omitempty"`

	// Campaign fields
	BiddingStrategy BiddingStrategy `json:"bidding_strategy,omitempty"`
	TargetCPA       float64         `json:"target_cpa,omitempty"`
	TargetROAS      float64         `json:"target_roas,omitempty"`

	// Placement / extension fields
	PlacementURL  string `json:"placement_url,omitempty"`
	ExtensionType string `json:"extension_type,omitempty"`
}

// SubjectName returns the most specific human-readable name for the record,
// used when a recommendation references it.
func (r Record) SubjectName() string {
	switch {
	case r.Name != "":
		return r.Name
	case r.SearchTerm != "":
		return r.SearchTerm
	case r.PlacementURL != "":
		return r.PlacementURL
	case r.AdGroupName != "":
		return r.AdGroupName
	default:
		return r.CampaignName
	}
}
