// Package cache stores decoded TikTok API responses in Redis.
//
// Entries are keyed by the unsigned request URL, so a hit skips both the
// signing call and the origin request. Signed URLs are single-use and are
// never part of a key.
//
// Each entry is a Redis hash with the fields data, endpoint, expires and
// cached_at. The key expires together with the entry.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	manager := cache.NewManager(redisClient, time.Minute)
//
//	key, err := cache.KeyFromURL("https://m.tiktok.com/api/item/detail/?itemId=1")
//	if err != nil {
//		return err
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from origin, then:
//		_ = manager.Set(ctx, key, cache.NewEntry(key.Endpoint, body, manager.TTL()))
//	}
//
// # Metrics
//
//   - tiktok_cache_hits_total
//   - tiktok_cache_misses_total
//   - tiktok_cache_errors_total{operation}
package cache
