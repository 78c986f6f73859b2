// Package assemble collects segment tables and recommendation lists into a
// single structured report for downstream rendering. Rendering itself
// (spreadsheet, document) is a collaborator responsibility.
package assemble

import (
	"fmt"
	"time"

	"github.com/adlens/ads-audit/internal/report/recommend"
	"github.com/adlens/ads-audit/internal/report/segment"
	"github.com/google/uuid"
)

// Table is a named, ordered tabular view ready for rendering.
type Table struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// SectionResult is the outcome of one audit section. A failed section keeps
// its slot in the report with OK=false; the rest of the report stands.
type SectionResult struct {
	Name            string                    `json:"name"`
	OK              bool                      `json:"ok"`
	Error           string                    `json:"error,omitempty"`
	RecordCount     int                       `json:"record_count"`
	Tables          []Table                   `json:"tables,omitempty"`
	Recommendations []recommend.Recommendation `json:"recommendations,omitempty"`
	Elapsed         time.Duration             `json:"elapsed_ns"`
}

// Report is the assembled output of one audit run.
type Report struct {
	ID          string          `json:"id"`
	CustomerID  string          `json:"customer_id"`
	GeneratedAt time.Time       `json:"generated_at"`
	StartDate   string          `json:"start_date,omitempty"`
	EndDate     string          `json:"end_date,omitempty"`
	Sections    []SectionResult `json:"sections"`
}

// NewReport creates an empty report for a customer.
func NewReport(customerID string) *Report {
	return &Report{
		ID:          uuid.NewString(),
		CustomerID:  customerID,
		GeneratedAt: time.Now().UTC(),
		Sections:    make([]SectionResult, 0),
	}
}

// AddSection appends a section result, preserving declared section order.
func (r *Report) AddSection(s SectionResult) {
	r.Sections = append(r.Sections, s)
}

// Section returns the named section, or nil.
func (r *Report) Section(name string) *SectionResult {
	for i := range r.Sections {
		if r.Sections[i].Name == name {
			return &r.Sections[i]
		}
	}
	return nil
}

// FailedSections lists the names of sections that did not complete.
func (r *Report) FailedSections() []string {
	var failed []string
	for _, s := range r.Sections {
		if !s.OK {
			failed = append(failed, s.Name)
		}
	}
	return failed
}

// Complete reports whether every section succeeded.
func (r *Report) Complete() bool {
	return len(r.FailedSections()) == 0
}

// Recommendations returns all sections' recommendations in section order.
// Within a section the generator's priority order is preserved.
func (r *Report) Recommendations() []recommend.Recommendation {
	var all []recommend.Recommendation
	for _, s := range r.Sections {
		all = append(all, s.Recommendations...)
	}
	return all
}

// distributionColumns is the standard column set for segment tables.
var distributionColumns = []string{
	"Segment", "Records", "Cost", "Cost %", "Clicks", "CTR %",
	"Impressions", "Conversions", "Conv %", "CPA", "Efficiency",
}

// TableFromGrouping renders a segment grouping as a table, segments in
// sorted order followed by the Total row.
func TableFromGrouping(name string, g segment.Grouping) Table {
	rows := make([][]string, 0, len(g.Segments)+1)
	for _, s := range g.Segments {
		rows = append(rows, segmentRow(s))
	}
	rows = append(rows, segmentRow(g.Total))

	return Table{Name: name, Columns: distributionColumns, Rows: rows}
}

func segmentRow(s segment.Segment) []string {
	return []string{
		s.Key,
		fmt.Sprintf("%d", s.Records),
		fmt.Sprintf("%.2f", s.Cost),
		fmt.Sprintf("%.1f", s.CostPct),
		fmt.Sprintf("%d", s.Clicks),
		s.CTR.String(),
		fmt.Sprintf("%d", s.Impressions),
		fmt.Sprintf("%.1f", s.Conversions),
		fmt.Sprintf("%.1f", s.ConversionsPct),
		s.CPA.String(),
		s.Efficiency.String(),
	}
}

// TableFromRecommendations renders a ranked recommendation list as a table.
func TableFromRecommendations(name string, recs []recommend.Recommendation) Table {
	rows := make([][]string, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, []string{
			rec.Subject,
			string(rec.Kind),
			rec.Category,
			rec.Issue,
			rec.Action,
			fmt.Sprintf("%d", rec.Priority),
			fmt.Sprintf("%.2f", rec.Cost),
		})
	}
	return Table{
		Name:    name,
		Columns: []string{"Subject", "Kind", "Category", "Issue", "Action", "Priority", "Cost"},
		Rows:    rows,
	}
}
