// Package metrics provides the Prometheus registry and HTTP handler for the
// TikTok client. Metrics are defined in their own packages (client, signer,
// pagination, cache) and registered through promauto.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the client.
var Registry = prometheus.DefaultRegisterer

// Handler returns the HTTP handler serving all registered metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - tiktok_requests_total{endpoint, status} (Counter): origin requests by API path and HTTP status
//   - tiktok_request_duration_seconds{endpoint} (Histogram): origin request duration
//   - tiktok_errors_total{class} (Counter): fetch failures by class (network, empty, malformed, signature)
//
// Signing Metrics (pkg/signer):
//   - tiktok_sign_requests_total{mode, result} (Counter): signing calls by signer mode
//   - tiktok_sign_duration_seconds{mode} (Histogram): signing latency
//
// Pagination Metrics (pkg/pagination):
//   - tiktok_pages_fetched_total{collection} (Counter): non-empty pages yielded
//   - tiktok_cursor_exhausted_total{collection} (Counter): cursors that reached an empty page
//
// Cache Metrics (pkg/cache):
//   - tiktok_cache_hits_total (Counter)
//   - tiktok_cache_misses_total (Counter)
//   - tiktok_cache_errors_total{operation} (Counter)
//
// Example Prometheus Queries:
//
//   # Signing failure rate
//   sum(rate(tiktok_sign_requests_total{result="error"}[5m])) /
//   sum(rate(tiktok_sign_requests_total[5m]))
//
//   # Empty upstream responses (origin refusing requests)
//   rate(tiktok_errors_total{class="empty"}[5m])
//
//   # P95 origin latency
//   histogram_quantile(0.95, rate(tiktok_request_duration_seconds_bucket[5m]))
