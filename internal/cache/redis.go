// Package cache provides the Redis access layer: busy-hours caching and
// request rate limiting.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache provides Redis cache access methods.
type Cache struct {
	client   *redis.Client
	hoursTTL time.Duration
}

// Options tunes the Redis connection pool and cache lifetimes.
type Options struct {
	PoolSize     int
	MinIdleConns int
	HoursTTL     time.Duration
}

// DefaultOptions returns the pool settings used when none are configured.
func DefaultOptions() Options {
	return Options{
		PoolSize:     10,
		MinIdleConns: 2,
		HoursTTL:     DefaultHoursTTL,
	}
}

// New creates a new Cache with a Redis client.
func New(ctx context.Context, redisURL string, opts Options) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opt.PoolSize = opts.PoolSize
	opt.MinIdleConns = opts.MinIdleConns
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return NewWithClient(client, opts.HoursTTL), nil
}

// NewWithClient wraps an existing client. A non-positive ttl selects DefaultHoursTTL.
func NewWithClient(client *redis.Client, hoursTTL time.Duration) *Cache {
	if hoursTTL <= 0 {
		hoursTTL = DefaultHoursTTL
	}
	return &Cache{client: client, hoursTTL: hoursTTL}
}

// Ping checks Redis connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client returns the underlying Redis client.
// Use sparingly - prefer adding methods to Cache.
func (c *Cache) Client() *redis.Client {
	return c.client
}
