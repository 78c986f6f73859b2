// Package gads fetches Google Ads performance records. The REST client
// talks to the searchStream endpoint; CSVSource loads exported report
// files for offline runs; CachedFetcher wraps either with a Redis cache.
package gads

import (
	"context"
	"fmt"
	"time"

	"github.com/adlens/ads-audit/internal/domain"
)

// DateRange is an inclusive reporting window.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// LastNDays returns a range ending yesterday and spanning n days.
func LastNDays(n int) DateRange {
	end := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -1)
	return DateRange{Start: end.AddDate(0, 0, -(n - 1)), End: end}
}

// String renders the range as "2026-01-01..2026-01-31".
func (r DateRange) String() string {
	return r.Start.Format("2006-01-02") + ".." + r.End.Format("2006-01-02")
}

// Validate rejects inverted or zero ranges.
func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("gads: date range has zero bound")
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("gads: date range end %s before start %s",
			r.End.Format("2006-01-02"), r.Start.Format("2006-01-02"))
	}
	return nil
}

// Fetcher retrieves performance records of one kind for a reporting window.
type Fetcher interface {
	Fetch(ctx context.Context, kind domain.Kind, window DateRange) ([]domain.Record, error)
}
