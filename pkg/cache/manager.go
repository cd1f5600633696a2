package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/pioneers/pkg/pioneer"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long an enriched page stays cached.
const DefaultTTL = 300 * time.Second

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Manager handles page caching with a Redis backend.
type Manager struct {
	redis *redis.Client
}

// NewManager creates a new cache manager with Redis backend.
func NewManager(redisClient *redis.Client) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Manager{
		redis: redisClient,
	}
}

// Get retrieves the enriched pioneers cached for key.
// Returns ErrCacheMiss if the key doesn't exist and ErrInvalidEntry if the
// stored payload cannot be decoded.
func (m *Manager) Get(ctx context.Context, key CacheKey) ([]pioneer.EnrichedPioneer, error) {
	data, err := m.redis.Get(ctx, key.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			CacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var items []pioneer.EnrichedPioneer
	if err := json.Unmarshal(data, &items); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	if items == nil {
		// "null" is not a page
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: null payload", ErrInvalidEntry)
	}

	CacheHits.Inc()
	return items, nil
}

// Set stores items under key. The entry is removed by Redis after ttl.
func (m *Manager) Set(ctx context.Context, key CacheKey, items []pioneer.EnrichedPioneer, ttl time.Duration) error {
	if items == nil {
		return fmt.Errorf("cache items cannot be nil")
	}
	if ttl <= 0 {
		return fmt.Errorf("cache ttl must be positive (got %s)", ttl)
	}

	data, err := json.Marshal(items)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := m.redis.Set(ctx, key.String(), data, ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	CacheSize.Set(float64(len(data)))
	return nil
}

// Delete removes a cache entry.
func (m *Manager) Delete(ctx context.Context, key CacheKey) error {
	if err := m.redis.Del(ctx, key.String()).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// TTL returns the remaining lifetime of a cache entry.
func (m *Manager) TTL(ctx context.Context, key CacheKey) (time.Duration, error) {
	ttl, err := m.redis.TTL(ctx, key.String()).Result()
	if err != nil {
		return 0, fmt.Errorf("redis ttl: %w", err)
	}
	if ttl < 0 {
		return 0, ErrCacheMiss
	}
	return ttl, nil
}

// Ping checks that Redis is reachable.
func (m *Manager) Ping(ctx context.Context) error {
	return m.redis.Ping(ctx).Err()
}
