package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meetingsapi/meetings/internal/model"
)

const (
	hoursKeyPrefix = "hours:"
	generationKey  = "meetings:generation"

	// DefaultHoursTTL is the lifetime of a cached busy-hours result.
	DefaultHoursTTL = 5 * time.Minute
)

// ErrCacheMiss is returned when no cached value exists.
var ErrCacheMiss = errors.New("cache miss")

// hoursKey builds the cache key for a busy-hours query under a generation.
// Window bounds are encoded as Unix seconds so equivalent inputs share a key.
func hoursKey(generation int64, user string, start, end time.Time) string {
	return fmt.Sprintf("%sv%d:%s:%d:%d", hoursKeyPrefix, generation, user, start.Unix(), end.Unix())
}

// generation returns the current meetings generation, 0 when unset.
func (c *Cache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get generation failed: %w", err)
	}
	return gen, nil
}

// GetHours retrieves a cached busy-hours result. It also returns the
// generation the lookup ran under; a result computed after a miss must be
// stored with SetHours under that same generation.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetHours(ctx context.Context, user string, start, end time.Time) (*model.BusyDuration, int64, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, 0, err
	}

	raw, err := c.client.Get(ctx, hoursKey(gen, user, start, end)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, ErrCacheMiss
	}
	if err != nil {
		return nil, gen, fmt.Errorf("redis get failed: %w", err)
	}

	var d model.BusyDuration
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, gen, fmt.Errorf("failed to decode cached hours: %w", err)
	}
	return &d, gen, nil
}

// SetHours stores a busy-hours result under generation gen. If a mutation
// has bumped the generation since gen was read, the entry is written under
// a retired key and is never served.
func (c *Cache) SetHours(ctx context.Context, gen int64, user string, start, end time.Time, d model.BusyDuration) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode hours: %w", err)
	}

	if err := c.client.Set(ctx, hoursKey(gen, user, start, end), raw, c.hoursTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache hours: %w", err)
	}
	return nil
}

// InvalidateHours bumps the generation so every previously cached result
// becomes unreachable. Old entries expire on their own TTL.
func (c *Cache) InvalidateHours(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate hours cache: %w", err)
	}
	return nil
}
