// Package redis shares FIRMS fetch results between service replicas so one
// upstream call serves every replica within a cache window.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/wildfire-risk-service/internal/domain"
	"github.com/couchcryptid/wildfire-risk-service/internal/observability"
	goredis "github.com/redis/go-redis/v9"
)

// ClientInterface defines the Redis operations used by FetchCache.
type ClientInterface interface {
	Ping(ctx context.Context) *goredis.StatusCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
	Get(ctx context.Context, key string) *goredis.StringCmd
	Close() error
}

// Fetcher is the upstream the cache falls through to.
type Fetcher interface {
	Fetch(ctx context.Context) []domain.RawDetection
}

// FetchCache memoizes raw FIRMS rows in Redis under a key derived from the
// query. It implements pipeline.Fetcher.
type FetchCache struct {
	client  ClientInterface
	inner   Fetcher
	key     string
	ttl     time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

// Dial connects to Redis at addr and verifies the connection.
func Dial(ctx context.Context, addr string) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// NewFetchCache wraps inner with a Redis-backed memo.
func NewFetchCache(client ClientInterface, inner Fetcher, key string, ttl time.Duration, metrics *observability.Metrics, logger *slog.Logger) *FetchCache {
	return &FetchCache{
		client:  client,
		inner:   inner,
		key:     key,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
	}
}

// Key builds the cache key for a FIRMS query.
func Key(source, area string, days int) string {
	return fmt.Sprintf("firms:%s:%s:%d", source, area, days)
}

// Fetch returns the cached rows when present, otherwise fetches from inner
// and stores non-empty results. Redis failures fall through to inner.
func (c *FetchCache) Fetch(ctx context.Context) []domain.RawDetection {
	if rows, ok := c.get(ctx); ok {
		c.metrics.SnapshotCache.WithLabelValues("redis", "hit").Inc()
		return rows
	}
	c.metrics.SnapshotCache.WithLabelValues("redis", "miss").Inc()

	rows := c.inner.Fetch(ctx)
	// An empty result is indistinguishable from a failed fetch; don't pin it.
	if len(rows) > 0 {
		c.put(ctx, rows)
	}
	return rows
}

func (c *FetchCache) get(ctx context.Context) ([]domain.RawDetection, bool) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("redis get failed, fetching upstream", "key", c.key, "error", err)
		return nil, false
	}

	var rows []domain.RawDetection
	if err := json.Unmarshal(data, &rows); err != nil {
		c.logger.Warn("discarding unreadable cached fetch", "key", c.key, "error", err)
		return nil, false
	}
	return rows, true
}

func (c *FetchCache) put(ctx context.Context, rows []domain.RawDetection) {
	data, err := json.Marshal(rows)
	if err != nil {
		c.logger.Warn("marshal fetch for cache", "error", err)
		return
	}
	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("redis set failed", "key", c.key, "error", err)
	}
}

// CheckReadiness pings Redis.
func (c *FetchCache) CheckReadiness(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *FetchCache) Close() error {
	return c.client.Close()
}
