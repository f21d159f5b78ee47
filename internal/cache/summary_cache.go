// Package cache provides a Redis read-through cache for computed
// order-flow summaries. Cache failures degrade to recomputation; they are
// never surfaced as request failures.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"orderflow-lab/internal/domain"
)

// DefaultTTL is the default freshness window for cached summaries. Order
// flow moves fast; a few seconds is the most a dashboard tolerates.
const DefaultTTL = 3 * time.Second

// SummaryCache caches OrderFlowSummary values in Redis.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a summary cache from a Redis URL, verifying connectivity.
func New(ctx context.Context, redisURL string, ttl time.Duration) (*SummaryCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &SummaryCache{client: client, ttl: ttl}, nil
}

// Close releases the Redis client.
func (c *SummaryCache) Close() error {
	return c.client.Close()
}

// key builds the cache key for a symbol/window pair.
func key(symbol string, windowSeconds int) string {
	return fmt.Sprintf("flow:%s:%d", symbol, windowSeconds)
}

// Get returns the cached summary for symbol/window, or nil on a miss.
// Redis errors other than a plain miss are returned so the caller can log
// them; the caller treats any error as a miss.
func (c *SummaryCache) Get(ctx context.Context, symbol string, windowSeconds int) (*domain.OrderFlowSummary, error) {
	data, err := c.client.Get(ctx, key(symbol, windowSeconds)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var summary domain.OrderFlowSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		// A corrupt entry is a miss; it will be overwritten on Set.
		return nil, fmt.Errorf("cache decode: %w", err)
	}

	return &summary, nil
}

// Set stores a summary with the configured TTL.
func (c *SummaryCache) Set(ctx context.Context, summary *domain.OrderFlowSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}

	if err := c.client.Set(ctx, key(summary.Symbol, summary.WindowSeconds), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}

	return nil
}
