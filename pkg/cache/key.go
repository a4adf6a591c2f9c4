package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// keyPrefix namespaces all cache keys in Redis.
const keyPrefix = "tiktok"

// CacheKey identifies a cached response by its unsigned request URL.
type CacheKey struct {
	// Host is the origin host (e.g., "m.tiktok.com").
	Host string

	// Endpoint is the API path (e.g., "/api/item/detail/").
	Endpoint string

	// QueryParams are the unsigned query parameters.
	QueryParams url.Values
}

// KeyFromURL builds a key from an unsigned request URL. Signature parameters,
// if present, are dropped so that a signed URL maps to the same key.
func KeyFromURL(rawURL string) (CacheKey, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return CacheKey{}, fmt.Errorf("parse cache url: %w", err)
	}

	query := u.Query()
	query.Del("_signature")
	query.Del("verifyFp")

	return CacheKey{
		Host:        u.Host,
		Endpoint:    u.Path,
		QueryParams: query,
	}, nil
}

// String generates a deterministic cache key string.
// Format: tiktok:host:endpoint:param1=val1:param2=val2
//
// Example:
//
//	tiktok:m.tiktok.com:api/item/detail:itemId=6812
func (k CacheKey) String() string {
	parts := []string{keyPrefix}

	if k.Host != "" {
		parts = append(parts, k.Host)
	}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(k.QueryParams) > 0 {
		queryKeys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, strings.Join(k.QueryParams[key], ",")))
		}
	}

	return strings.Join(parts, ":")
}
