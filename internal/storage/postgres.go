package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/adlens/ads-audit/internal/report/assemble"
)

// ReportStore persists audit reports in Postgres. It complements the file
// and S3 backends for deployments that already run a database; the API
// serves history queries from here when enabled.
type ReportStore struct {
	db *sql.DB
}

// NewReportStore creates a report store on an open database handle.
func NewReportStore(db *sql.DB) *ReportStore {
	return &ReportStore{db: db}
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Init creates the reports table if it does not exist.
func (s *ReportStore) Init(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS audit_reports (
			id TEXT PRIMARY KEY,
			customer_id TEXT NOT NULL,
			generated_at TIMESTAMPTZ NOT NULL,
			start_date TEXT,
			end_date TEXT,
			complete BOOLEAN NOT NULL,
			failed_sections TEXT[],
			report JSONB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_audit_reports_customer
			ON audit_reports (customer_id, generated_at DESC);
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create audit_reports: %w", err)
	}
	return nil
}

// Save inserts or replaces a report.
func (s *ReportStore) Save(ctx context.Context, report *assemble.Report) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	query := `
		INSERT INTO audit_reports (
			id, customer_id, generated_at, start_date, end_date,
			complete, failed_sections, report
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			complete = EXCLUDED.complete,
			failed_sections = EXCLUDED.failed_sections,
			report = EXCLUDED.report
	`
	_, err = s.db.ExecContext(ctx, query,
		report.ID, report.CustomerID, report.GeneratedAt,
		report.StartDate, report.EndDate,
		report.Complete(), pq.Array(report.FailedSections()), body)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// Get loads a report by ID. Returns ErrNotFound when absent.
func (s *ReportStore) Get(ctx context.Context, id string) (*assemble.Report, error) {
	var body []byte
	query := `SELECT report FROM audit_reports WHERE id = $1`
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&body); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select report: %w", err)
	}

	var report assemble.Report
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &report, nil
}

// List returns report summaries for a customer, newest first.
func (s *ReportStore) List(ctx context.Context, customerID string, limit int) ([]ReportSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, customer_id, generated_at, start_date, end_date, failed_sections, report
		FROM audit_reports
		WHERE customer_id = $1
		ORDER BY generated_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("select reports: %w", err)
	}
	defer rows.Close()

	var summaries []ReportSummary
	for rows.Next() {
		var summary ReportSummary
		var failed pq.StringArray
		var body []byte
		if err := rows.Scan(&summary.ID, &summary.CustomerID, &summary.GeneratedAt,
			&summary.StartDate, &summary.EndDate, &failed, &body); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		summary.FailedSections = failed

		var report assemble.Report
		if err := json.Unmarshal(body, &report); err == nil {
			summary.Sections = len(report.Sections)
			summary.Recommendations = len(report.Recommendations())
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// Delete removes a report by ID.
func (s *ReportStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM audit_reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
