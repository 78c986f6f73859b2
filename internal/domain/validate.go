package domain

import "fmt"

// ValidationError reports a structurally invalid record. It carries row
// identity so a failed row can be traced back to the source extract. A
// validation failure fails the affected kind's section, not the whole run.
type ValidationError struct {
	Kind   Kind
	Row    int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s record (row %d): field %q: %s", e.Kind, e.Row, e.Field, e.Reason)
}

// Validate checks the record's measurement fields and kind-specific
// requirements. Row is the 1-based position in the source extract, used only
// for error reporting. Negative counts are rejected outright, never clamped.
func (r Record) Validate(row int) error {
	if r.Kind == "" {
		return &ValidationError{Kind: r.Kind, Row: row, Field: "kind", Reason: "missing record kind"}
	}
	if r.Cost < 0 {
		return &ValidationError{Kind: r.Kind, Row: row, Field: "cost", Reason: "negative value"}
	}
	if r.Clicks < 0 {
		return &ValidationError{Kind: r.Kind, Row: row, Field: "clicks", Reason: "negative value"}
	}
	if r.Impressions < 0 {
		return &ValidationError{Kind: r.Kind, Row: row, Field: "impressions", Reason: "negative value"}
	}
	if r.Conversions < 0 {
		return &ValidationError{Kind: r.Kind, Row: row, Field: "conversions", Reason: "negative value"}
	}
	if r.Clicks > r.Impressions {
		return &ValidationError{Kind: r.Kind, Row: row, Field: "clicks", Reason: "clicks exceed impressions"}
	}
	if r.QualityScore != nil && (*r.QualityScore < 1 || *r.QualityScore > 10) {
		return &ValidationError{Kind: r.Kind, Row: row, Field: "quality_score", Reason: "outside 1-10 scale"}
	}

	switch r.Kind {
	case KindCampaign:
		if r.CampaignName == "" && r.Name == "" {
			return &ValidationError{Kind: r.Kind, Row: row, Field: "campaign_name", Reason: "missing required field"}
		}
	case KindKeyword:
		if r.Name == "" {
			return &ValidationError{Kind: r.Kind, Row: row, Field: "keyword", Reason: "missing required field"}
		}
	case KindSearchTerm:
		if r.SearchTerm == "" {
			return &ValidationError{Kind: r.Kind, Row: row, Field: "search_term", Reason: "missing required field"}
		}
	case KindPlacement:
		if r.PlacementURL == "" {
			return &ValidationError{Kind: r.Kind, Row: row, Field: "placement_url", Reason: "missing required field"}
		}
	}

	return nil
}
