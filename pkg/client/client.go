// Package client fetches signed TikTok API URLs and decodes their compressed
// JSON bodies, with an optional Redis response cache.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tikstock/tiktok-go/pkg/cache"
)

// Prometheus metrics for origin requests.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiktok_requests_total",
		Help: "Total TikTok API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tiktok_request_duration_seconds",
		Help:    "TikTok API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiktok_errors_total",
		Help: "Total TikTok API errors by class",
	}, []string{"class"})
)

// ErrorClass represents a classification of fetch failures.
type ErrorClass string

const (
	// ErrorClassNetwork represents connection, timeout and body read errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassEmpty represents an empty body from the origin.
	ErrorClassEmpty ErrorClass = "empty"

	// ErrorClassMalformed represents bodies that fail decompression or JSON parsing.
	ErrorClassMalformed ErrorClass = "malformed"

	// ErrorClassSignature represents a failure to sign the request URL.
	ErrorClassSignature ErrorClass = "signature"
)

// Request header template sent with every API call.
const (
	DefaultUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 11_0 like Mac OS X) " +
		"AppleWebKit/604.1.38 (KHTML, like Gecko) Version/11.0 Mobile/15A372 Safari/604.1"
	DefaultReferer = "https://www.tiktok.com/trending?lang=en"
	acceptEncoding = "gzip, deflate, br"
)

const (
	// maxBodyBytes caps the compressed body read from the origin.
	maxBodyBytes = 16 << 20

	// maxDecodedBytes caps the decompressed body.
	maxDecodedBytes = 32 << 20
)

// URLSigner turns an unsigned URL into a signed one.
// *signer.Adapter satisfies it.
type URLSigner interface {
	SignURL(ctx context.Context, rawURL string) (string, error)
}

// Config holds the client configuration.
type Config struct {
	// Signer signs every URL before it is requested. Required.
	Signer URLSigner

	// UserAgent and Referer override the header template.
	UserAgent string
	Referer   string

	// Timeout bounds a single HTTP exchange.
	Timeout time.Duration

	// Redis enables the response cache when set.
	Redis *redis.Client

	// CacheTTL is the lifetime of cached responses.
	CacheTTL time.Duration
}

// DefaultConfig returns a configuration using the mobile Safari header template.
func DefaultConfig(signer URLSigner) Config {
	return Config{
		Signer:    signer,
		UserAgent: DefaultUserAgent,
		Referer:   DefaultReferer,
		Timeout:   30 * time.Second,
		CacheTTL:  cache.DefaultTTL,
	}
}

// Client fetches and decodes TikTok API responses.
type Client struct {
	httpClient *http.Client
	signer     URLSigner
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger
}

// New creates a new client.
func New(cfg Config) (*Client, error) {
	if cfg.Signer == nil {
		return nil, fmt.Errorf("signer is required")
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must be >= 0 (got %s)", cfg.Timeout)
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Referer == "" {
		cfg.Referer = DefaultReferer
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		signer:     cfg.Signer,
		config:     cfg,
		logger:     log.With().Str("component", "tiktok-client").Logger(),
	}
	if cfg.Redis != nil {
		c.cache = cache.NewManager(cfg.Redis, cfg.CacheTTL)
	}

	return c, nil
}

// FetchJSON signs rawURL, requests it, decodes the body and unmarshals it into v.
// The HTTP status is logged but not interpreted; callers inspect the payload.
func (c *Client) FetchJSON(ctx context.Context, rawURL string, v any) error {
	body, err := c.Fetch(ctx, rawURL)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		endpoint := endpointOf(rawURL)
		errorsTotal.WithLabelValues(string(ErrorClassMalformed)).Inc()
		return &FetchError{ErrorClass: ErrorClassMalformed, Endpoint: endpoint, Err: err}
	}
	return nil
}

// Fetch returns the decoded JSON body for rawURL. Served from cache when possible.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	endpoint := endpointOf(rawURL)
	logger := c.logger.With().
		Str("endpoint", endpoint).
		Str("request_id", uuid.NewString()).
		Logger()

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	cacheKey, cacheable := c.cacheKey(rawURL)
	if cacheable {
		entry, err := c.cache.Get(ctx, cacheKey)
		switch {
		case err == nil:
			logger.Debug().Msg("Cache hit")
			requestsTotal.WithLabelValues(endpoint, "cached").Inc()
			return entry.Data, nil
		case !errors.Is(err, cache.ErrCacheMiss):
			logger.Warn().Err(err).Msg("Cache get error")
		}
	}

	signedURL, err := c.signer.SignURL(ctx, rawURL)
	if err != nil {
		logger.Error().Err(err).Msg("Signing failed")
		errorsTotal.WithLabelValues(string(ErrorClassSignature)).Inc()
		return nil, &FetchError{ErrorClass: ErrorClassSignature, Endpoint: endpoint, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, signedURL, nil)
	if err != nil {
		return nil, c.fail(logger, ErrorClassNetwork, endpoint, 0, fmt.Errorf("create request: %w", err))
	}
	c.setHeaders(req)

	logger.Debug().Msg("Executing TikTok request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return nil, c.fail(logger, ErrorClassNetwork, endpoint, 0, err)
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
	if resp.StatusCode != http.StatusOK {
		logger.Warn().Int("status", resp.StatusCode).Msg("Non-200 response from origin")
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, c.fail(logger, ErrorClassNetwork, endpoint, resp.StatusCode, fmt.Errorf("read body: %w", err))
	}
	if len(raw) == 0 {
		return nil, c.fail(logger, ErrorClassEmpty, endpoint, resp.StatusCode, errors.New("origin returned no body"))
	}

	encoding := resp.Header.Get("Content-Encoding")
	body, err := decodeBody(encoding, raw)
	if err != nil {
		return nil, c.fail(logger, ErrorClassMalformed, endpoint, resp.StatusCode, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, c.fail(logger, ErrorClassEmpty, endpoint, resp.StatusCode, errors.New("decoded body is empty"))
	}
	if !json.Valid(body) {
		return nil, c.fail(logger, ErrorClassMalformed, endpoint, resp.StatusCode, errors.New("body is not valid JSON"))
	}

	logger.Debug().
		Str("encoding", encoding).
		Int("bytes", len(body)).
		Msg("Decoded response")

	if cacheable && resp.StatusCode == http.StatusOK && originOK(body) {
		if err := c.cache.Set(ctx, cacheKey, cache.NewEntry(endpoint, body, c.cache.TTL())); err != nil {
			logger.Warn().Err(err).Msg("Failed to cache response")
		}
	}

	return body, nil
}

// originOK reports whether body carries no origin error status. Refusals such
// as 10201 or 10202 can be transient and are never cached.
func originOK(body []byte) bool {
	var status struct {
		StatusCode json.RawMessage `json:"statusCode"`
	}
	if err := json.Unmarshal(body, &status); err != nil {
		return false
	}
	switch string(bytes.TrimSpace(status.StatusCode)) {
	case "", "0", `"0"`, "null":
		return true
	default:
		return false
	}
}

func (c *Client) fail(logger zerolog.Logger, class ErrorClass, endpoint string, status int, err error) error {
	errorsTotal.WithLabelValues(string(class)).Inc()
	logger.Error().
		Err(err).
		Str("error_class", string(class)).
		Int("status", status).
		Msg("TikTok request failed")
	return &FetchError{ErrorClass: class, Endpoint: endpoint, StatusCode: status, Err: err}
}

func (c *Client) setHeaders(req *http.Request) {
	// The origin expects the method repeated as a header.
	req.Header.Set("method", http.MethodGet)
	req.Header.Set("Accept-Encoding", acceptEncoding)
	req.Header.Set("Referer", c.config.Referer)
	req.Header.Set("User-Agent", c.config.UserAgent)
}

func (c *Client) cacheKey(rawURL string) (cache.CacheKey, bool) {
	if c.cache == nil {
		return cache.CacheKey{}, false
	}
	key, err := cache.KeyFromURL(rawURL)
	if err != nil {
		return cache.CacheKey{}, false
	}
	return key, true
}

func endpointOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return "unknown"
	}
	return u.Path
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// GetCache returns the cache manager, or nil when caching is disabled.
func (c *Client) GetCache() *cache.Manager {
	return c.cache
}
