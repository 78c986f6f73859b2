package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adlens/ads-audit/internal/config"
	"github.com/adlens/ads-audit/internal/report/assemble"
)

func newLocalStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(config.StorageConfig{
		Type:       "local",
		LocalPath:  t.TempDir(),
		MaxReports: 50,
	})
	require.NoError(t, err)
	return s
}

func sampleReport(customerID string) *assemble.Report {
	r := assemble.NewReport(customerID)
	r.StartDate = "2026-07-01"
	r.EndDate = "2026-07-31"
	r.AddSection(assemble.SectionResult{Name: "quality_score", OK: true, RecordCount: 10})
	r.AddSection(assemble.SectionResult{Name: "bidding", OK: false, Error: "quota exceeded"})
	return r
}

func TestSaveAndGetReport(t *testing.T) {
	s := newLocalStorage(t)
	ctx := context.Background()

	report := sampleReport("123-456-7890")
	require.NoError(t, s.SaveReport(ctx, report))

	got, err := s.GetReport(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, report.ID, got.ID)
	assert.Equal(t, []string{"bidding"}, got.FailedSections())
}

func TestGetReportNotFound(t *testing.T) {
	s := newLocalStorage(t)
	_, err := s.GetReport(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListReportsNewestFirst(t *testing.T) {
	s := newLocalStorage(t)
	ctx := context.Background()

	older := sampleReport("123-456-7890")
	older.GeneratedAt = time.Now().UTC().Add(-time.Hour)
	newer := sampleReport("123-456-7890")
	other := sampleReport("999-888-7777")

	require.NoError(t, s.SaveReport(ctx, older))
	require.NoError(t, s.SaveReport(ctx, newer))
	require.NoError(t, s.SaveReport(ctx, other))

	summaries, err := s.ListReports(ctx, "123-456-7890", 0)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, newer.ID, summaries[0].ID)
	assert.Equal(t, older.ID, summaries[1].ID)
	assert.Equal(t, 2, summaries[0].Sections)
	assert.Equal(t, []string{"bidding"}, summaries[0].FailedSections)
}

func TestListReportsLimit(t *testing.T) {
	s := newLocalStorage(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.SaveReport(ctx, sampleReport("123-456-7890")))
	}

	summaries, err := s.ListReports(ctx, "123-456-7890", 3)
	require.NoError(t, err)
	assert.Len(t, summaries, 3)
}

func TestPruneEvictsOldestFromMemory(t *testing.T) {
	s, err := New(config.StorageConfig{
		Type:       "local",
		LocalPath:  t.TempDir(),
		MaxReports: 2,
	})
	require.NoError(t, err)
	ctx := context.Background()

	first := sampleReport("123-456-7890")
	require.NoError(t, s.SaveReport(ctx, first))
	require.NoError(t, s.SaveReport(ctx, sampleReport("123-456-7890")))
	require.NoError(t, s.SaveReport(ctx, sampleReport("123-456-7890")))

	s.mu.RLock()
	_, inMemory := s.reports[first.ID]
	s.mu.RUnlock()
	assert.False(t, inMemory)

	// Evicted reports are still readable from disk
	got, err := s.GetReport(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

func TestReloadFromDisk(t *testing.T) {
	dir := t.TempDir()
	cfg := config.StorageConfig{Type: "local", LocalPath: dir, MaxReports: 50}

	s, err := New(cfg)
	require.NoError(t, err)
	report := sampleReport("123-456-7890")
	require.NoError(t, s.SaveReport(context.Background(), report))

	reloaded, err := New(cfg)
	require.NoError(t, err)
	got, err := reloaded.GetReport(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Equal(t, report.ID, got.ID)
}

func TestLatestReport(t *testing.T) {
	s := newLocalStorage(t)
	ctx := context.Background()

	older := sampleReport("123-456-7890")
	older.GeneratedAt = time.Now().UTC().Add(-time.Hour)
	newer := sampleReport("123-456-7890")

	require.NoError(t, s.SaveReport(ctx, older))
	require.NoError(t, s.SaveReport(ctx, newer))

	got, err := s.LatestReport(ctx, "123-456-7890")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)

	_, err = s.LatestReport(ctx, "000-000-0000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteReport(t *testing.T) {
	s := newLocalStorage(t)
	ctx := context.Background()

	report := sampleReport("123-456-7890")
	require.NoError(t, s.SaveReport(ctx, report))

	require.NoError(t, s.DeleteReport(ctx, report.ID))
	_, err := s.GetReport(ctx, report.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Gone from disk too, so a restart does not resurrect it
	reloaded, err := New(s.config)
	require.NoError(t, err)
	_, err = reloaded.GetReport(ctx, report.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.DeleteReport(ctx, report.ID), ErrNotFound)
}

func TestUnknownStorageType(t *testing.T) {
	_, err := New(config.StorageConfig{Type: "tape"})
	assert.Error(t, err)
}
