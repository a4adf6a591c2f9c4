package cache

import (
	"time"
)

// CacheEntry is a cached, already decompressed origin response body.
type CacheEntry struct {
	// Data is the decoded JSON body.
	Data []byte

	// Endpoint is the API path the body came from.
	Endpoint string

	// Expires is when the entry becomes stale.
	Expires time.Time

	// CachedAt is when we cached this response.
	CachedAt time.Time
}

// NewEntry creates an entry for data that expires after ttl.
func NewEntry(endpoint string, data []byte, ttl time.Duration) *CacheEntry {
	now := time.Now()
	return &CacheEntry{
		Data:     data,
		Endpoint: endpoint,
		Expires:  now.Add(ttl),
		CachedAt: now,
	}
}

// IsExpired returns true if the cache entry has expired.
func (e *CacheEntry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *CacheEntry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
