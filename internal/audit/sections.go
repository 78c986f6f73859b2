package audit

import (
	"strconv"

	"github.com/adlens/ads-audit/internal/domain"
	"github.com/adlens/ads-audit/internal/report/assemble"
	"github.com/adlens/ads-audit/internal/report/classify"
	"github.com/adlens/ads-audit/internal/report/metric"
	"github.com/adlens/ads-audit/internal/report/recommend"
	"github.com/adlens/ads-audit/internal/report/segment"
)

// sectionDef ties a section name to the record kind it consumes and its
// analysis.
type sectionDef struct {
	kind    domain.Kind
	analyze func(*Service, []domain.Record) ([]assemble.Table, []recommend.Recommendation, error)
}

var sectionOrder = []string{
	"quality_score",
	"match_type",
	"ad_strength",
	"search_terms",
	"bidding",
	"placements",
	"extensions",
}

var sectionRegistry = map[string]sectionDef{
	"quality_score": {kind: domain.KindKeyword, analyze: (*Service).analyzeQualityScore},
	"match_type":    {kind: domain.KindKeyword, analyze: (*Service).analyzeMatchType},
	"ad_strength":   {kind: domain.KindAd, analyze: (*Service).analyzeAdStrength},
	"search_terms":  {kind: domain.KindSearchTerm, analyze: (*Service).analyzeSearchTerms},
	"bidding":       {kind: domain.KindCampaign, analyze: (*Service).analyzeBidding},
	"placements":    {kind: domain.KindPlacement, analyze: (*Service).analyzePlacements},
	"extensions":    {kind: domain.KindExtension, analyze: (*Service).analyzeExtensions},
}

// SectionNames lists every section in report order.
func SectionNames() []string {
	names := make([]string, len(sectionOrder))
	copy(names, sectionOrder)
	return names
}

// subjectFrom builds the rule-engine view of one record. Derived metric
// errors are impossible for validated records, whose counts are never
// negative.
func (s *Service) subjectFrom(r domain.Record) recommend.Subject {
	ctr, _ := metric.CTR(r.Clicks, r.Impressions)
	cpa, _ := metric.CPA(r.Cost, r.Conversions)
	convRate, _ := metric.ConvRate(r.Conversions, r.Clicks)

	sub := recommend.Subject{
		Kind:     r.Kind,
		Name:     r.SubjectName(),
		Campaign: r.CampaignName,
		Metrics:  r.Metrics,
		Values: map[string]metric.Value{
			"ctr":       ctr,
			"cpa":       cpa,
			"conv_rate": convRate,
		},
		Labels: map[string]classify.Classification{
			"ctr": s.tables.ctr.Classify(ctr),
		},
	}

	if r.QualityScore != nil {
		qs := metric.From(float64(*r.QualityScore))
		sub.Values["quality_score"] = qs
		sub.Labels["quality_score"] = s.tables.qualityScore.Classify(qs)
		sub.Labels["qs_band"] = s.tables.qsBands.Classify(qs)
	}
	if r.AdStrength != "" {
		sub.Labels["ad_strength"] = s.tables.adStrength.FromLabel(string(r.AdStrength))
	}
	if r.TargetCPA > 0 {
		sub.Values["target_cpa"] = metric.From(r.TargetCPA)
	}
	return sub
}

func (s *Service) subjectsFrom(records []domain.Record) []recommend.Subject {
	subjects := make([]recommend.Subject, len(records))
	for i, r := range records {
		subjects[i] = s.subjectFrom(r)
	}
	return subjects
}

// --- quality score ---

func (s *Service) qualityScoreRules() []recommend.Rule {
	return []recommend.Rule{
		{
			Name:     "low-quality-spend",
			Category: "quality_score",
			When: func(sub recommend.Subject) bool {
				return sub.Label("quality_score").Label == "Low"
			},
			Issue:  "Keyword quality score is below 7",
			Action: "Tighten ad group theming and align ad copy with the keyword",
			Impact: 3, Effort: 2,
		},
		{
			Name:     "poor-band-high-spend",
			Category: "quality_score",
			When: func(sub recommend.Subject) bool {
				return sub.Label("qs_band").Label == "Poor"
			},
			Issue:  "Keyword sits in the lowest quality band",
			Action: "Rebuild the landing page experience or pause the keyword",
			Impact: 3, Effort: 3,
		},
	}
}

func (s *Service) analyzeQualityScore(records []domain.Record) ([]assemble.Table, []recommend.Recommendation, error) {
	byBand := segment.Aggregate(records, func(r domain.Record) string {
		if r.QualityScore == nil {
			return classify.Unknown
		}
		return s.tables.qsBands.Classify(metric.From(float64(*r.QualityScore))).Label
	}, segment.SortCost)

	byScore := segment.Aggregate(records, func(r domain.Record) string {
		if r.QualityScore == nil {
			return classify.Unknown
		}
		return strconv.Itoa(*r.QualityScore)
	}, segment.SortCost)

	recs, err := recommend.Generate(s.qualityScoreRules(), s.subjectsFrom(records), s.minData)
	if err != nil {
		return nil, nil, err
	}

	tables := []assemble.Table{
		assemble.TableFromGrouping("Spend by quality band", byBand),
		assemble.TableFromGrouping("Spend by quality score", byScore),
	}
	return tables, recs, nil
}

// --- match type ---

func (s *Service) analyzeMatchType(records []domain.Record) ([]assemble.Table, []recommend.Recommendation, error) {
	g := segment.Aggregate(records, func(r domain.Record) string {
		if r.MatchType == "" {
			return "unspecified"
		}
		return string(r.MatchType)
	}, segment.SortCost)

	subjects := make([]recommend.Subject, 0, len(records))
	for _, r := range records {
		sub := s.subjectFrom(r)
		if r.MatchType == domain.MatchBroad {
			sub.Values["broad"] = metric.From(1)
		}
		subjects = append(subjects, sub)
	}

	rules := []recommend.Rule{
		{
			Name:     "broad-match-no-conversions",
			Category: "match_type",
			When: func(sub recommend.Subject) bool {
				return sub.Value("broad").Valid() && sub.Conversions == 0
			},
			Issue:  "Broad match keyword spends without converting",
			Action: "Switch to phrase match or add negative keywords",
			Impact: 2, Effort: 1,
		},
		{
			Name:     "broad-match-poor-ctr",
			Category: "match_type",
			When: func(sub recommend.Subject) bool {
				return sub.Value("broad").Valid() && sub.Label("ctr").Label == "Poor"
			},
			Issue:  "Broad match keyword has a poor click-through rate",
			Action: "Review the search terms it matches and tighten targeting",
			Impact: 2, Effort: 2,
		},
	}

	recs, err := recommend.Generate(rules, subjects, s.minData)
	if err != nil {
		return nil, nil, err
	}
	return []assemble.Table{assemble.TableFromGrouping("Spend by match type", g)}, recs, nil
}

// --- ad strength ---

func (s *Service) analyzeAdStrength(records []domain.Record) ([]assemble.Table, []recommend.Recommendation, error) {
	g := segment.Aggregate(records, func(r domain.Record) string {
		return s.tables.adStrength.FromLabel(string(r.AdStrength)).Label
	}, segment.SortImpressions)

	rules := []recommend.Rule{
		{
			Name:     "poor-ad-strength",
			Category: "ad_strength",
			When: func(sub recommend.Subject) bool {
				return sub.Label("ad_strength").Label == "Poor"
			},
			Issue:  "Ad strength is rated Poor",
			Action: "Rewrite the ad with more headlines and descriptions",
			Impact: 3, Effort: 2,
		},
		{
			Name:     "average-ad-strength",
			Category: "ad_strength",
			When: func(sub recommend.Subject) bool {
				return sub.Label("ad_strength").Label == "Average"
			},
			Issue:  "Ad strength is rated Average",
			Action: "Add distinct headlines and pin fewer assets",
			Impact: 2, Effort: 1,
		},
	}

	recs, err := recommend.Generate(rules, s.subjectsFrom(records), s.minData)
	if err != nil {
		return nil, nil, err
	}
	return []assemble.Table{assemble.TableFromGrouping("Impressions by ad strength", g)}, recs, nil
}

// --- search terms ---

func (s *Service) analyzeSearchTerms(records []domain.Record) ([]assemble.Table, []recommend.Recommendation, error) {
	g := segment.Aggregate(records, func(r domain.Record) string {
		if r.AddedExcluded == "" {
			return "none"
		}
		return r.AddedExcluded
	}, segment.SortCost)

	subjects := make([]recommend.Subject, 0, len(records))
	for _, r := range records {
		sub := s.subjectFrom(r)
		if r.AddedExcluded == "none" || r.AddedExcluded == "" {
			sub.Values["unmanaged"] = metric.From(1)
		}
		subjects = append(subjects, sub)
	}

	rules := []recommend.Rule{
		{
			Name:     "converting-term-not-added",
			Category: "search_terms",
			When: func(sub recommend.Subject) bool {
				return sub.Value("unmanaged").Valid() && sub.Conversions > 0
			},
			Issue:  "Converting search term is not a keyword yet",
			Action: "Add the term as an exact match keyword",
			Impact: 3, Effort: 1,
		},
		{
			Name:     "wasted-term-spend",
			Category: "search_terms",
			When: func(sub recommend.Subject) bool {
				return sub.Value("unmanaged").Valid() && sub.Conversions == 0
			},
			Issue:  "Search term spends without converting",
			Action: "Add the term as a negative keyword",
			Impact: 2, Effort: 1,
		},
	}

	recs, err := recommend.Generate(rules, subjects, s.minData)
	if err != nil {
		return nil, nil, err
	}
	return []assemble.Table{assemble.TableFromGrouping("Spend by term status", g)}, recs, nil
}

// --- bidding ---

func (s *Service) analyzeBidding(records []domain.Record) ([]assemble.Table, []recommend.Recommendation, error) {
	g := segment.Aggregate(records, func(r domain.Record) string {
		if r.BiddingStrategy == "" {
			return "unspecified"
		}
		return string(r.BiddingStrategy)
	}, segment.SortCost)

	subjects := make([]recommend.Subject, 0, len(records))
	for _, r := range records {
		sub := s.subjectFrom(r)
		sub.Values["strategy_"+string(r.BiddingStrategy)] = metric.From(1)
		subjects = append(subjects, sub)
	}

	rules := []recommend.Rule{
		{
			Name:     "manual-ready-for-automation",
			Category: "bidding",
			When: func(sub recommend.Subject) bool {
				return sub.Value("strategy_"+string(domain.BiddingManualCPC)).Valid() &&
					sub.Conversions >= 15
			},
			Issue:  "Manual CPC campaign has enough conversions for automated bidding",
			Action: "Test a Target CPA strategy",
			Impact: 3, Effort: 1,
		},
		{
			Name:     "cpa-target-missed",
			Category: "bidding",
			When: func(sub recommend.Subject) bool {
				target, ok := sub.Value("target_cpa").Float()
				if !ok {
					return false
				}
				cpa, ok := sub.Value("cpa").Float()
				return ok && cpa > target*1.5
			},
			Issue:  "Actual CPA exceeds the target by more than 50%",
			Action: "Raise the target gradually or trim low-intent traffic",
			Impact: 2, Effort: 2,
		},
		{
			Name:     "spend-without-conversions",
			Category: "bidding",
			When: func(sub recommend.Subject) bool {
				return sub.Conversions == 0
			},
			Issue:  "Campaign spends without recording conversions",
			Action: "Verify conversion tracking, then review targeting",
			Impact: 3, Effort: 2,
		},
	}

	recs, err := recommend.Generate(rules, subjects, s.minData)
	if err != nil {
		return nil, nil, err
	}
	return []assemble.Table{assemble.TableFromGrouping("Spend by bidding strategy", g)}, recs, nil
}

// --- placements ---

func (s *Service) analyzePlacements(records []domain.Record) ([]assemble.Table, []recommend.Recommendation, error) {
	g := segment.Aggregate(records, func(r domain.Record) string {
		ctr, _ := metric.CTR(r.Clicks, r.Impressions)
		return s.tables.ctr.Classify(ctr).Label
	}, segment.SortCost)

	rules := []recommend.Rule{
		{
			Name:     "placement-wasted-spend",
			Category: "placements",
			When: func(sub recommend.Subject) bool {
				return sub.Conversions == 0
			},
			Issue:  "Placement spends without converting",
			Action: "Exclude the placement",
			Impact: 2, Effort: 1,
		},
	}

	recs, err := recommend.Generate(rules, s.subjectsFrom(records), s.minData)
	if err != nil {
		return nil, nil, err
	}
	return []assemble.Table{assemble.TableFromGrouping("Spend by placement CTR band", g)}, recs, nil
}

// --- extensions ---

func (s *Service) analyzeExtensions(records []domain.Record) ([]assemble.Table, []recommend.Recommendation, error) {
	g := segment.Aggregate(records, func(r domain.Record) string {
		if r.ExtensionType == "" {
			return "unspecified"
		}
		return r.ExtensionType
	}, segment.SortImpressions)

	rules := []recommend.Rule{
		{
			Name:     "extension-poor-ctr",
			Category: "extensions",
			When: func(sub recommend.Subject) bool {
				return sub.Label("ctr").Label == "Poor"
			},
			Issue:  "Extension asset has a poor click-through rate",
			Action: "Refresh the asset copy",
			Impact: 1, Effort: 1,
		},
	}

	recs, err := recommend.Generate(rules, s.subjectsFrom(records), s.minData)
	if err != nil {
		return nil, nil, err
	}
	return []assemble.Table{assemble.TableFromGrouping("Impressions by extension type", g)}, recs, nil
}
