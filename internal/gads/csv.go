package gads

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adlens/ads-audit/internal/domain"
	"github.com/adlens/ads-audit/internal/pkg/logger"
)

// CSVSource loads records from report exports on disk. Each kind reads
// <dir>/<kind>.csv, e.g. data/exports/keyword.csv. The date range is
// informational only; exports are assumed to cover the requested window.
type CSVSource struct {
	dir string
}

// NewCSVSource creates a source rooted at dir.
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{dir: dir}
}

// Fetch reads and parses the export file for the given kind.
func (s *CSVSource) Fetch(ctx context.Context, kind domain.Kind, window DateRange) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(s.dir, string(kind)+".csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gads: open export: %w", err)
	}
	defer f.Close()

	records, err := ParseCSV(f, kind)
	if err != nil {
		return nil, fmt.Errorf("gads: parse %s: %w", path, err)
	}
	return records, nil
}

// ParseCSV parses one export stream. The first row is the header; column
// order is free. Rows that fail validation are skipped with a warning so a
// single bad export line cannot sink a whole section.
func ParseCSV(r io.Reader, kind domain.Kind) ([]domain.Record, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[normalizeHeader(name)] = i
	}

	var records []domain.Record
	row := 1
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row+1, err)
		}
		row++

		rec, err := recordFromRow(kind, cols, fields)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		if err := rec.Validate(row); err != nil {
			logger.Warn("skipping invalid export row", "kind", string(kind), "error", err.Error())
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func normalizeHeader(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "/", "_")
	return name
}

func recordFromRow(kind domain.Kind, cols map[string]int, fields []string) (domain.Record, error) {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	rec := domain.Record{
		Kind:         kind,
		CampaignID:   get("campaign_id"),
		CampaignName: firstNonEmpty(get("campaign_name"), get("campaign")),
		AdGroupID:    get("ad_group_id"),
		AdGroupName:  firstNonEmpty(get("ad_group_name"), get("ad_group")),
		ID:           get("id"),
	}

	var err error
	if rec.Cost, err = parseFloatField(get("cost")); err != nil {
		return rec, fmt.Errorf("cost: %w", err)
	}
	if rec.Clicks, err = parseIntField(get("clicks")); err != nil {
		return rec, fmt.Errorf("clicks: %w", err)
	}
	if rec.Impressions, err = parseIntField(firstNonEmpty(get("impressions"), get("impr."))); err != nil {
		return rec, fmt.Errorf("impressions: %w", err)
	}
	if rec.Conversions, err = parseFloatField(get("conversions")); err != nil {
		return rec, fmt.Errorf("conversions: %w", err)
	}

	switch kind {
	case domain.KindCampaign:
		rec.Name = firstNonEmpty(get("name"), rec.CampaignName)
		rec.BiddingStrategy = domain.BiddingStrategy(normalizeHeader(get("bidding_strategy")))
		rec.TargetCPA, _ = parseFloatField(get("target_cpa"))
		rec.TargetROAS, _ = parseFloatField(get("target_roas"))
	case domain.KindAdGroup:
		rec.Name = rec.AdGroupName
	case domain.KindKeyword:
		rec.Name = get("keyword")
		rec.MatchType = domain.MatchType(strings.ToLower(get("match_type")))
		if raw := get("quality_score"); raw != "" && raw != "--" {
			qs, err := strconv.Atoi(raw)
			if err != nil {
				return rec, fmt.Errorf("quality_score: %w", err)
			}
			rec.QualityScore = &qs
		}
	case domain.KindSearchTerm:
		rec.SearchTerm = get("search_term")
		rec.AddedExcluded = strings.ToLower(firstNonEmpty(get("added_excluded"), "none"))
	case domain.KindAd:
		rec.Name = firstNonEmpty(get("ad_name"), get("name"))
		rec.AdType = get("ad_type")
		rec.AdStrength = domain.AdStrength(strings.ToLower(get("ad_strength")))
	case domain.KindPlacement:
		rec.PlacementURL = firstNonEmpty(get("placement_url"), get("placement"))
	case domain.KindExtension:
		rec.Name = firstNonEmpty(get("asset"), get("name"))
		rec.ExtensionType = firstNonEmpty(get("extension_type"), get("field_type"))
	}

	return rec, nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// parseFloatField accepts "1,234.56", "$12.30", "12%" and empty (zero).
func parseFloatField(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "--" {
		return 0, nil
	}
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	return strconv.ParseFloat(s, 64)
}

func parseIntField(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "--" {
		return 0, nil
	}
	s = strings.ReplaceAll(s, ",", "")
	return strconv.ParseInt(s, 10, 64)
}
