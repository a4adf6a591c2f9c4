package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is used when a manager is created with a non-positive TTL.
const DefaultTTL = 60 * time.Second

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Hash fields of a stored entry. Bodies are stored as raw bytes.
const (
	fieldData     = "data"
	fieldEndpoint = "endpoint"
	fieldExpires  = "expires"
	fieldCachedAt = "cached_at"
)

// Manager stores response entries as Redis hashes that expire with the entry.
type Manager struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewManager creates a new cache manager with Redis backend.
func NewManager(redisClient *redis.Client, ttl time.Duration) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		redis: redisClient,
		ttl:   ttl,
	}
}

// TTL returns the lifetime given to new entries.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Get retrieves a cache entry by key.
// Returns ErrCacheMiss if the key doesn't exist or entry is expired.
func (m *Manager) Get(ctx context.Context, key CacheKey) (*CacheEntry, error) {
	fields, err := m.redis.HGetAll(ctx, key.String()).Result()
	if err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}
	if len(fields) == 0 {
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	entry, err := entryFromFields(fields)
	if err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, err
	}

	if entry.IsExpired() {
		_ = m.Delete(ctx, key)
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.Inc()
	return entry, nil
}

// Set stores entry and expires the key when the entry does. Entries that are
// already expired are not stored.
func (m *Manager) Set(ctx context.Context, key CacheKey, entry *CacheEntry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	ttl := entry.TTL()
	if ttl <= 0 {
		return nil
	}

	cacheKey := key.String()
	_, err := m.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, cacheKey)
		pipe.HSet(ctx, cacheKey,
			fieldData, entry.Data,
			fieldEndpoint, entry.Endpoint,
			fieldExpires, entry.Expires.UnixNano(),
			fieldCachedAt, entry.CachedAt.UnixNano(),
		)
		pipe.PExpire(ctx, cacheKey, ttl)
		return nil
	})
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

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

func entryFromFields(fields map[string]string) (*CacheEntry, error) {
	data, ok := fields[fieldData]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidEntry, fieldData)
	}

	expires, err := unixNanoField(fields, fieldExpires)
	if err != nil {
		return nil, err
	}
	cachedAt, err := unixNanoField(fields, fieldCachedAt)
	if err != nil {
		return nil, err
	}

	return &CacheEntry{
		Data:     []byte(data),
		Endpoint: fields[fieldEndpoint],
		Expires:  expires,
		CachedAt: cachedAt,
	}, nil
}

func unixNanoField(fields map[string]string, name string) (time.Time, error) {
	n, err := strconv.ParseInt(fields[name], 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", ErrInvalidEntry, name, err)
	}
	return time.Unix(0, n), nil
}
