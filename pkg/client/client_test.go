package client

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/redis/go-redis/v9"
)

// stubSigner appends a fixed signature and counts calls.
type stubSigner struct {
	calls atomic.Int32
	err   error
}

func (s *stubSigner) SignURL(_ context.Context, rawURL string) (string, error) {
	s.calls.Add(1)
	if s.err != nil {
		return "", s.err
	}
	return rawURL + "&_signature=test-sig", nil
}

// setupTestRedis starts an in-memory Redis.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client
}

func gzipBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write([]byte(s)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func newTestClient(t *testing.T, s URLSigner, redisClient *redis.Client) *Client {
	t.Helper()
	cfg := DefaultConfig(s)
	cfg.Redis = redisClient
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
		errorMsg    string
	}{
		{
			name:   "valid config",
			config: DefaultConfig(&stubSigner{}),
		},
		{
			name:   "defaults filled in",
			config: Config{Signer: &stubSigner{}},
		},
		{
			name:        "nil signer",
			config:      Config{UserAgent: "x"},
			expectError: true,
			errorMsg:    "signer is required",
		},
		{
			name:        "negative timeout",
			config:      Config{Signer: &stubSigner{}, Timeout: -time.Second},
			expectError: true,
			errorMsg:    "timeout must be >= 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.config)
			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("error = %q, want substring %q", err.Error(), tt.errorMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c.config.UserAgent != DefaultUserAgent {
				t.Errorf("UserAgent = %q, want default", c.config.UserAgent)
			}
			if c.GetCache() != nil {
				t.Error("cache should be disabled without redis")
			}
		})
	}
}

func TestFetchJSON_HeaderTemplate(t *testing.T) {
	var got http.Header
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"statusCode":0}`))
	}))
	defer server.Close()

	c := newTestClient(t, &stubSigner{}, nil)

	var out struct {
		StatusCode int `json:"statusCode"`
	}
	if err := c.FetchJSON(context.Background(), server.URL+"/api/item/detail/?itemId=1", &out); err != nil {
		t.Fatalf("FetchJSON() error = %v", err)
	}

	if !strings.Contains(gotQuery, "_signature=test-sig") {
		t.Errorf("request was not signed: %q", gotQuery)
	}
	checks := map[string]string{
		"Method":          "GET",
		"Accept-Encoding": "gzip, deflate, br",
		"Referer":         DefaultReferer,
		"User-Agent":      DefaultUserAgent,
	}
	for k, want := range checks {
		if v := got.Get(k); v != want {
			t.Errorf("header %s = %q, want %q", k, v, want)
		}
	}
}

func TestFetchJSON_Gzip(t *testing.T) {
	body := gzipBytes(t, `{"statusCode":0,"items":[{"id":"1"}]}`)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		w.Write(body)
	}))
	defer server.Close()

	c := newTestClient(t, &stubSigner{}, nil)

	var out struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	if err := c.FetchJSON(context.Background(), server.URL+"/api/item_list/?count=1", &out); err != nil {
		t.Fatalf("FetchJSON() error = %v", err)
	}
	if len(out.Items) != 1 || out.Items[0].ID != "1" {
		t.Errorf("items = %+v", out.Items)
	}
}

func TestFetchJSON_NonOKStatusStillParsed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"statusCode":10202}`))
	}))
	defer server.Close()

	c := newTestClient(t, &stubSigner{}, nil)

	var out struct {
		StatusCode int `json:"statusCode"`
	}
	if err := c.FetchJSON(context.Background(), server.URL+"/api/user/detail/?uniqueId=x", &out); err != nil {
		t.Fatalf("FetchJSON() error = %v", err)
	}
	if out.StatusCode != 10202 {
		t.Errorf("statusCode = %d, want 10202", out.StatusCode)
	}
}

func TestFetchJSON_Failures(t *testing.T) {
	tests := []struct {
		name     string
		encoding string
		body     []byte
		want     error
	}{
		{name: "empty body", body: nil, want: ErrEmptyUpstreamResponse},
		{name: "whitespace body", body: []byte("  \n"), want: ErrEmptyUpstreamResponse},
		{name: "invalid json", body: []byte("<html>blocked</html>"), want: ErrMalformedResponse},
		{name: "bad gzip", encoding: "gzip", body: []byte("not gzip"), want: ErrMalformedResponse},
		{name: "unknown encoding", encoding: "zstd", body: []byte("{}"), want: ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.encoding != "" {
					w.Header().Set("Content-Encoding", tt.encoding)
				}
				w.Write(tt.body)
			}))
			defer server.Close()

			c := newTestClient(t, &stubSigner{}, nil)

			var out map[string]any
			err := c.FetchJSON(context.Background(), server.URL+"/api/x/?a=1", &out)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}

			var fetchErr *FetchError
			if !errors.As(err, &fetchErr) {
				t.Fatalf("error %T is not *FetchError", err)
			}
			if fetchErr.Endpoint != "/api/x/" {
				t.Errorf("Endpoint = %q", fetchErr.Endpoint)
			}
		})
	}
}

func TestFetchJSON_TypeMismatchIsMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"statusCode":"zero"}`))
	}))
	defer server.Close()

	c := newTestClient(t, &stubSigner{}, nil)

	var out struct {
		StatusCode int `json:"statusCode"`
	}
	if err := c.FetchJSON(context.Background(), server.URL+"/api/x/?a=1", &out); !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("error = %v, want ErrMalformedResponse", err)
	}
}

func TestFetchJSON_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	c := newTestClient(t, &stubSigner{}, nil)

	var out map[string]any
	err := c.FetchJSON(context.Background(), addr+"/api/x/?a=1", &out)
	if !errors.Is(err, ErrTransportFailure) {
		t.Errorf("error = %v, want ErrTransportFailure", err)
	}
}

func TestFetchJSON_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	c := newTestClient(t, &stubSigner{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var out map[string]any
	if err := c.FetchJSON(ctx, server.URL+"/api/x/?a=1", &out); !errors.Is(err, ErrTransportFailure) {
		t.Errorf("error = %v, want ErrTransportFailure", err)
	}
}

func TestFetchJSON_SignerFailure(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	sentinel := errors.New("signer down")
	c := newTestClient(t, &stubSigner{err: sentinel}, nil)

	var out map[string]any
	err := c.FetchJSON(context.Background(), server.URL+"/api/x/?a=1", &out)
	if !errors.Is(err, sentinel) {
		t.Errorf("error = %v, want wrapped signer error", err)
	}
	if hits.Load() != 0 {
		t.Errorf("origin called %d times after signing failure", hits.Load())
	}
}

func TestFetch_CacheSkipsSigning(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"statusCode":0}`))
	}))
	defer server.Close()

	s := &stubSigner{}
	c := newTestClient(t, s, setupTestRedis(t))
	ctx := context.Background()
	target := server.URL + "/api/item/detail/?itemId=7"

	for i := 0; i < 3; i++ {
		body, err := c.Fetch(ctx, target)
		if err != nil {
			t.Fatalf("Fetch() #%d error = %v", i, err)
		}
		if string(body) != `{"statusCode":0}` {
			t.Errorf("body = %q", body)
		}
	}

	if hits.Load() != 1 {
		t.Errorf("origin hits = %d, want 1", hits.Load())
	}
	if s.calls.Load() != 1 {
		t.Errorf("signer calls = %d, want 1", s.calls.Load())
	}
}

func TestFetch_NonOKNotCached(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"statusCode":10201}`))
	}))
	defer server.Close()

	c := newTestClient(t, &stubSigner{}, setupTestRedis(t))
	target := server.URL + "/api/user/detail/?uniqueId=x"

	for i := 0; i < 2; i++ {
		if _, err := c.Fetch(context.Background(), target); err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
	}
	if hits.Load() != 2 {
		t.Errorf("origin hits = %d, want 2", hits.Load())
	}
}

func TestFetch_OriginErrorStatusNotCached(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int32
	}{
		{"not found", `{"statusCode":10202}`, 2},
		{"illegal identifier", `{"statusCode":10201}`, 2},
		{"video not found", `{"statusCode":"10204"}`, 2},
		{"ok", `{"statusCode":0,"itemInfo":{}}`, 1},
		{"no status field", `{"body":{"itemListData":[]}}`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := newTestClient(t, &stubSigner{}, setupTestRedis(t))
			target := server.URL + "/api/item/detail/?itemId=1"

			for i := 0; i < 2; i++ {
				if _, err := c.Fetch(context.Background(), target); err != nil {
					t.Fatalf("Fetch() error = %v", err)
				}
			}
			if hits.Load() != tt.want {
				t.Errorf("origin hits = %d, want %d", hits.Load(), tt.want)
			}
		})
	}
}

func TestFetch_CacheDownFallsThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()
	mr.Close()

	c := newTestClient(t, &stubSigner{}, redisClient)
	if _, err := c.Fetch(context.Background(), server.URL+"/api/x/?a=1"); err != nil {
		t.Errorf("Fetch() with redis down error = %v", err)
	}
}

func TestSetHTTPClient(t *testing.T) {
	c := newTestClient(t, &stubSigner{}, nil)
	custom := &http.Client{Timeout: time.Second}
	c.SetHTTPClient(custom)
	if c.httpClient != custom {
		t.Error("SetHTTPClient did not replace client")
	}
}
