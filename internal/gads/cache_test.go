package gads

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adlens/ads-audit/internal/domain"
)

type countingFetcher struct {
	calls   int
	records []domain.Record
	err     error
}

func (f *countingFetcher) Fetch(ctx context.Context, kind domain.Kind, window DateRange) ([]domain.Record, error) {
	f.calls++
	return f.records, f.err
}

func newTestCache(t *testing.T, inner Fetcher) (*CachedFetcher, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewCachedFetcher(inner, rdb, "1234567890", time.Hour), mr
}

func TestCachedFetcherReadThrough(t *testing.T) {
	inner := &countingFetcher{records: []domain.Record{
		{Kind: domain.KindCampaign, CampaignName: "Brand", Metrics: domain.Metrics{Cost: 10, Clicks: 5, Impressions: 100}},
	}}
	cf, _ := newTestCache(t, inner)
	ctx := context.Background()

	first, err := cf.Fetch(ctx, domain.KindCampaign, testWindow())
	require.NoError(t, err)
	second, err := cf.Fetch(ctx, domain.KindCampaign, testWindow())
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, first, second)
}

func TestCachedFetcherDistinctWindows(t *testing.T) {
	inner := &countingFetcher{}
	cf, _ := newTestCache(t, inner)
	ctx := context.Background()

	_, err := cf.Fetch(ctx, domain.KindCampaign, testWindow())
	require.NoError(t, err)

	other := testWindow()
	other.End = other.End.AddDate(0, 0, 7)
	_, err = cf.Fetch(ctx, domain.KindCampaign, other)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedFetcherPropagatesFetchError(t *testing.T) {
	inner := &countingFetcher{err: errors.New("api down")}
	cf, _ := newTestCache(t, inner)

	_, err := cf.Fetch(context.Background(), domain.KindCampaign, testWindow())
	assert.EqualError(t, err, "api down")
}

func TestCachedFetcherCorruptEntryRefetches(t *testing.T) {
	inner := &countingFetcher{records: []domain.Record{{Kind: domain.KindCampaign, CampaignName: "Brand"}}}
	cf, mr := newTestCache(t, inner)
	ctx := context.Background()

	require.NoError(t, mr.Set(cf.key(domain.KindCampaign, testWindow()), "{not json"))

	records, err := cf.Fetch(ctx, domain.KindCampaign, testWindow())
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedFetcherInvalidate(t *testing.T) {
	inner := &countingFetcher{}
	cf, _ := newTestCache(t, inner)
	ctx := context.Background()

	_, err := cf.Fetch(ctx, domain.KindKeyword, testWindow())
	require.NoError(t, err)
	require.NoError(t, cf.Invalidate(ctx, domain.KindKeyword))

	_, err = cf.Fetch(ctx, domain.KindKeyword, testWindow())
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}
