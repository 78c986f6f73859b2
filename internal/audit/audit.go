// Package audit orchestrates a full account audit: it fetches the records
// each section needs, runs the section analyses in parallel, and assembles
// the results into a single report. A section failure is recorded in the
// report; it never aborts the run.
package audit

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/adlens/ads-audit/internal/config"
	"github.com/adlens/ads-audit/internal/gads"
	"github.com/adlens/ads-audit/internal/pkg/logger"
	"github.com/adlens/ads-audit/internal/report/assemble"
	"github.com/adlens/ads-audit/internal/report/classify"
	"github.com/adlens/ads-audit/internal/report/recommend"
)

// Service runs account audits.
type Service struct {
	fetcher    gads.Fetcher
	customerID string
	lookback   int
	minData    recommend.MinData
	enabled    []string

	tables thresholdTables

	mu         sync.RWMutex
	lastReport *assemble.Report
	lastRun    time.Time
}

// thresholdTables bundles the classification tables the sections share.
type thresholdTables struct {
	qualityScore *classify.Table
	qsBands      *classify.Table
	ctr          *classify.Table
	efficiency   *classify.Table
	adStrength   *classify.Table
}

// NewService creates an audit service. Threshold overrides from the config
// replace the built-in tables; invalid overrides are an error rather than a
// silent fallback.
func NewService(fetcher gads.Fetcher, cfg *config.Config) (*Service, error) {
	tables := thresholdTables{
		qualityScore: classify.DefaultQualityScoreTable(),
		qsBands:      classify.DefaultQualityScoreBands(),
		ctr:          classify.DefaultCTRTable(),
		efficiency:   classify.DefaultEfficiencyTable(),
		adStrength:   classify.DefaultAdStrengthTable(),
	}

	if len(cfg.Thresholds.QualityScore) > 0 {
		t, err := tableFromConfig("quality_score", cfg.Thresholds.QualityScore)
		if err != nil {
			return nil, err
		}
		tables.qualityScore = t
	}
	if len(cfg.Thresholds.CTR) > 0 {
		t, err := tableFromConfig("ctr", cfg.Thresholds.CTR)
		if err != nil {
			return nil, err
		}
		tables.ctr = t
	}
	if len(cfg.Thresholds.Efficiency) > 0 {
		t, err := tableFromConfig("efficiency", cfg.Thresholds.Efficiency)
		if err != nil {
			return nil, err
		}
		tables.efficiency = t
	}

	enabled := cfg.Audit.Sections
	if len(enabled) == 0 {
		enabled = SectionNames()
	}
	for _, name := range enabled {
		if _, ok := sectionRegistry[name]; !ok {
			return nil, fmt.Errorf("audit: unknown section %q", name)
		}
	}

	return &Service{
		fetcher:    fetcher,
		customerID: cfg.GoogleAds.CustomerID,
		lookback:   cfg.Audit.LookbackDays,
		minData:    recommend.MinData{MinCost: cfg.Audit.MinCost, MinClicks: cfg.Audit.MinClicks},
		enabled:    enabled,
		tables:     tables,
	}, nil
}

func tableFromConfig(name string, bps []config.BreakpointConfig) (*classify.Table, error) {
	points := make([]classify.Breakpoint, len(bps))
	for i, bp := range bps {
		points[i] = classify.Breakpoint{Lower: bp.Lower, Label: bp.Label}
	}
	t, err := classify.NewTable(name, points)
	if err != nil {
		return nil, fmt.Errorf("audit: threshold override %s: %w", name, err)
	}
	return t, nil
}

// Run executes all enabled sections for the configured lookback window and
// returns the assembled report. Sections run concurrently; each failure is
// captured in its own section result.
func (s *Service) Run(ctx context.Context) (*assemble.Report, error) {
	window := gads.LastNDays(s.lookback)
	return s.RunWindow(ctx, window)
}

// RunWindow executes all enabled sections for an explicit window.
func (s *Service) RunWindow(ctx context.Context, window gads.DateRange) (*assemble.Report, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}

	logger.Info("starting audit",
		"customer_id", s.customerID,
		"window", window.String(),
		"sections", strconv.Itoa(len(s.enabled)))

	report := assemble.NewReport(s.customerID)
	report.StartDate = window.Start.Format("2006-01-02")
	report.EndDate = window.End.Format("2006-01-02")

	results := make([]assemble.SectionResult, len(s.enabled))
	var wg sync.WaitGroup
	for i, name := range s.enabled {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			results[i] = s.runSection(ctx, name, window)
		}(i, name)
	}
	wg.Wait()

	for _, res := range results {
		report.AddSection(res)
	}

	if failed := report.FailedSections(); len(failed) > 0 {
		logger.Warn("audit finished with failed sections",
			"report_id", report.ID,
			"failed", fmt.Sprintf("%v", failed))
	} else {
		logger.Info("audit finished", "report_id", report.ID)
	}

	s.mu.Lock()
	s.lastReport = report
	s.lastRun = time.Now().UTC()
	s.mu.Unlock()

	return report, nil
}

func (s *Service) runSection(ctx context.Context, name string, window gads.DateRange) (result assemble.SectionResult) {
	start := time.Now()
	section := sectionRegistry[name]

	result = assemble.SectionResult{Name: name}
	defer func() {
		result.Elapsed = time.Since(start)
	}()

	records, err := s.fetcher.Fetch(ctx, section.kind, window)
	if err != nil {
		result.Error = fmt.Sprintf("fetch %s records: %v", section.kind, err)
		logger.Error("section fetch failed", "section", name, "error", err.Error())
		return result
	}
	result.RecordCount = len(records)

	tables, recs, err := section.analyze(s, records)
	if err != nil {
		result.Error = fmt.Sprintf("analyze: %v", err)
		logger.Error("section analysis failed", "section", name, "error", err.Error())
		return result
	}

	result.OK = true
	result.Tables = tables
	result.Recommendations = recs
	return result
}

// LastReport returns the most recent report, or nil if no run completed yet.
func (s *Service) LastReport() *assemble.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastReport
}

// LastRun returns the completion time of the most recent run.
func (s *Service) LastRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun
}
