package gads

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adlens/ads-audit/internal/domain"
	"github.com/adlens/ads-audit/internal/pkg/logger"
)

// CachedFetcher wraps a Fetcher with a Redis read-through cache. Fetches
// are keyed by customer, kind and window; a cache failure degrades to a
// direct fetch rather than failing the audit.
type CachedFetcher struct {
	inner      Fetcher
	rdb        *redis.Client
	customerID string
	ttl        time.Duration
}

// NewCachedFetcher wraps inner with a Redis cache.
func NewCachedFetcher(inner Fetcher, rdb *redis.Client, customerID string, ttl time.Duration) *CachedFetcher {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedFetcher{inner: inner, rdb: rdb, customerID: customerID, ttl: ttl}
}

func (c *CachedFetcher) key(kind domain.Kind, window DateRange) string {
	return fmt.Sprintf("gads:records:%s:%s:%s", c.customerID, kind, window)
}

// Fetch returns cached records when present, otherwise fetches and caches.
func (c *CachedFetcher) Fetch(ctx context.Context, kind domain.Kind, window DateRange) ([]domain.Record, error) {
	key := c.key(kind, window)

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var records []domain.Record
		if err := json.Unmarshal(data, &records); err == nil {
			logger.Debug("record cache hit", "key", key)
			return records, nil
		}
		// Corrupt entry, drop it and refetch
		c.rdb.Del(ctx, key)
	} else if err != redis.Nil {
		logger.Warn("record cache unavailable", "key", key, "error", err.Error())
	}

	records, err := c.inner.Fetch(ctx, kind, window)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(records); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			logger.Warn("record cache write failed", "key", key, "error", err.Error())
		}
	}
	return records, nil
}

// Invalidate removes all cached windows for one kind.
func (c *CachedFetcher) Invalidate(ctx context.Context, kind domain.Kind) error {
	pattern := fmt.Sprintf("gads:records:%s:%s:*", c.customerID, kind)
	iter := c.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
