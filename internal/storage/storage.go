// Package storage archives assembled audit reports. Reports are kept in an
// in-memory cache for fast API reads and persisted to the configured
// backend: JSON files under a local directory, or S3 plus a DynamoDB run
// index when running on AWS.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/adlens/ads-audit/internal/config"
	"github.com/adlens/ads-audit/internal/pkg/logger"
	"github.com/adlens/ads-audit/internal/report/assemble"
)

// ErrNotFound is returned when no report exists for the requested ID.
var ErrNotFound = fmt.Errorf("storage: report not found")

// ReportSummary is the listing view of an archived report.
type ReportSummary struct {
	ID              string    `json:"id"`
	CustomerID      string    `json:"customer_id"`
	GeneratedAt     time.Time `json:"generated_at"`
	StartDate       string    `json:"start_date,omitempty"`
	EndDate         string    `json:"end_date,omitempty"`
	Sections        int       `json:"sections"`
	FailedSections  []string  `json:"failed_sections,omitempty"`
	Recommendations int       `json:"recommendations"`
}

// Summarize builds the listing view of a report.
func Summarize(r *assemble.Report) ReportSummary {
	return ReportSummary{
		ID:              r.ID,
		CustomerID:      r.CustomerID,
		GeneratedAt:     r.GeneratedAt,
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		Sections:        len(r.Sections),
		FailedSections:  r.FailedSections(),
		Recommendations: len(r.Recommendations()),
	}
}

// Storage provides persistent storage for audit reports
type Storage struct {
	config config.StorageConfig
	mu     sync.RWMutex

	// AWS storage (optional)
	aws *AWSStorage

	// In-memory report cache, bounded by MaxReports
	reports map[string]*assemble.Report
	order   []string
}

// New creates a new Storage instance
func New(cfg config.StorageConfig) (*Storage, error) {
	s := &Storage{
		config:  cfg,
		reports: make(map[string]*assemble.Report),
		order:   make([]string, 0),
	}

	ctx := context.Background()

	switch cfg.Type {
	case "aws":
		awsStorage, err := NewAWSStorage(ctx, cfg.DynamoDBTable, cfg.S3Bucket, cfg.AWSRegion, cfg.GetAWSProfile())
		if err != nil {
			return nil, fmt.Errorf("initializing AWS storage: %w", err)
		}
		s.aws = awsStorage

	case "local":
		if err := os.MkdirAll(cfg.LocalPath, 0755); err != nil {
			return nil, fmt.Errorf("creating storage directory: %w", err)
		}
		if err := s.loadFromDisk(); err != nil {
			// Not fatal, the archive warms up from new runs
			logger.Warn("could not load archived reports", "error", err.Error())
		}

	default:
		return nil, fmt.Errorf("storage: unknown type %q", cfg.Type)
	}

	return s, nil
}

// SaveReport archives a report in memory and on the configured backend.
func (s *Storage) SaveReport(ctx context.Context, report *assemble.Report) error {
	s.mu.Lock()
	if _, exists := s.reports[report.ID]; !exists {
		s.order = append(s.order, report.ID)
	}
	s.reports[report.ID] = report
	s.prune()
	s.mu.Unlock()

	switch s.config.Type {
	case "aws":
		if s.aws != nil {
			if err := s.aws.SaveReportToS3(ctx, report); err != nil {
				return err
			}
			return s.aws.IndexRun(ctx, Summarize(report))
		}
	case "local":
		return s.saveToFile("reports", report.ID, report)
	}

	return nil
}

// prune drops the oldest in-memory reports beyond the configured cap.
// Caller holds the write lock. Persisted copies are not touched.
func (s *Storage) prune() {
	max := s.config.MaxReports
	if max <= 0 || len(s.order) <= max {
		return
	}
	evict := s.order[:len(s.order)-max]
	s.order = append([]string(nil), s.order[len(s.order)-max:]...)
	for _, id := range evict {
		delete(s.reports, id)
	}
}

// GetReport retrieves a report by ID, falling back to the backend when the
// report has been evicted from memory.
func (s *Storage) GetReport(ctx context.Context, id string) (*assemble.Report, error) {
	s.mu.RLock()
	report, ok := s.reports[id]
	s.mu.RUnlock()
	if ok {
		return report, nil
	}

	var loaded assemble.Report
	switch s.config.Type {
	case "aws":
		if s.aws != nil {
			if err := s.aws.GetReportFromS3(ctx, id, &loaded); err != nil {
				return nil, ErrNotFound
			}
			return &loaded, nil
		}
	case "local":
		if err := s.loadFromFile("reports", id, &loaded); err != nil {
			return nil, ErrNotFound
		}
		return &loaded, nil
	}

	return nil, ErrNotFound
}

// ListReports returns report summaries for a customer, newest first. An
// empty customerID lists every customer. On AWS the DynamoDB run index is
// authoritative; otherwise the in-memory cache is.
func (s *Storage) ListReports(ctx context.Context, customerID string, limit int) ([]ReportSummary, error) {
	if s.config.Type == "aws" && s.aws != nil && customerID != "" {
		return s.aws.ListRuns(ctx, customerID, limit)
	}

	s.mu.RLock()
	summaries := make([]ReportSummary, 0, len(s.reports))
	for _, report := range s.reports {
		if customerID != "" && report.CustomerID != customerID {
			continue
		}
		summaries = append(summaries, Summarize(report))
	}
	s.mu.RUnlock()

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].GeneratedAt.After(summaries[j].GeneratedAt)
	})
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

// LatestReport returns the most recently generated report for a customer,
// or ErrNotFound.
func (s *Storage) LatestReport(ctx context.Context, customerID string) (*assemble.Report, error) {
	summaries, err := s.ListReports(ctx, customerID, 1)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, ErrNotFound
	}
	return s.GetReport(ctx, summaries[0].ID)
}

// DeleteReport removes a report from memory and from the configured
// backend. Returns ErrNotFound when the report does not exist anywhere.
func (s *Storage) DeleteReport(ctx context.Context, id string) error {
	report, err := s.GetReport(ctx, id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.reports, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	switch s.config.Type {
	case "aws":
		if s.aws != nil {
			return s.aws.DeleteReport(ctx, Summarize(report))
		}
	case "local":
		safeKey := filepath.Base(id)
		path := filepath.Join(s.config.LocalPath, "reports", safeKey+".json")
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	return nil
}

// GetCacheStats returns statistics about the in-memory archive
func (s *Storage) GetCacheStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"reports":     len(s.reports),
		"max_reports": s.config.MaxReports,
		"type":        s.config.Type,
	}
}

// GetAWSStorage returns the underlying AWS storage (for direct access if needed)
func (s *Storage) GetAWSStorage() *AWSStorage {
	return s.aws
}

// saveToFile persists data as a JSON file
func (s *Storage) saveToFile(category, key string, data interface{}) error {
	dir := filepath.Join(s.config.LocalPath, category)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	// Sanitize key for filename
	safeKey := filepath.Base(key)
	path := filepath.Join(dir, safeKey+".json")

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// loadFromFile loads data from a JSON file
func (s *Storage) loadFromFile(category, key string, data interface{}) error {
	safeKey := filepath.Base(key)
	path := filepath.Join(s.config.LocalPath, category, safeKey+".json")

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return json.NewDecoder(file).Decode(data)
}

// loadFromDisk loads archived reports from disk
func (s *Storage) loadFromDisk() error {
	reportsDir := filepath.Join(s.config.LocalPath, "reports")
	entries, err := os.ReadDir(reportsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(reportsDir, entry.Name()))
		if err != nil {
			continue
		}
		var report assemble.Report
		if err := json.Unmarshal(data, &report); err != nil || report.ID == "" {
			continue
		}
		s.reports[report.ID] = &report
		s.order = append(s.order, report.ID)
	}

	// Oldest first so pruning evicts the right end
	sort.Slice(s.order, func(i, j int) bool {
		return s.reports[s.order[i]].GeneratedAt.Before(s.reports[s.order[j]].GeneratedAt)
	})
	s.prune()
	return nil
}
