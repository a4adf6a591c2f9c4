// Package testutil provides a mock TikTok origin and mock signers for tests.
package testutil

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// MockResponse defines the behavior for a mock origin endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string

	// Encoding compresses Body and sets Content-Encoding: gzip, deflate or br.
	Encoding string

	Delay time.Duration
}

// MockTikTok is a configurable mock TikTok API origin.
type MockTikTok struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount    int
	UnsignedCount   int
	LastRequestURL  string
	LastRequestHead http.Header
	requests        []string
}

// NewMockTikTok creates a new mock origin. Requests without a _signature
// parameter get an empty 200 body, the way the origin refuses them.
func NewMockTikTok() *MockTikTok {
	mock := &MockTikTok{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestURL = r.URL.String()
		mock.LastRequestHead = r.Header.Clone()
		mock.requests = append(mock.requests, r.URL.String())
		signed := r.URL.Query().Get("_signature") != ""
		if !signed {
			mock.UnsignedCount++
		}
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if !signed {
			w.WriteHeader(http.StatusOK)
			return
		}

		if exists {
			handler(w, r)
			return
		}

		WriteResponse(w, MockResponse{StatusCode: http.StatusOK, Body: StatusBody(10202)})
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockTikTok) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockTikTok) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockTikTok) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.UnsignedCount = 0
	m.LastRequestURL = ""
	m.LastRequestHead = nil
	m.requests = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockTikTok) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockTikTok) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		WriteResponse(w, resp)
	})
}

// SetPages serves bodies keyed by the maxCursor query parameter. Unknown
// cursors get an empty standard listing.
func (m *MockTikTok) SetPages(path string, pages map[string]string, encoding string) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Query().Get("maxCursor")]
		if !ok {
			body = `{"statusCode":0}`
		}
		WriteResponse(w, MockResponse{StatusCode: http.StatusOK, Body: body, Encoding: encoding})
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockTikTok) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetUnsignedCount returns the number of requests without a signature.
func (m *MockTikTok) GetUnsignedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.UnsignedCount
}

// Requests returns the request URLs in arrival order.
func (m *MockTikTok) Requests() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.requests...)
}

// WriteResponse writes resp, compressing the body when Encoding is set.
func WriteResponse(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}

	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	body := []byte(resp.Body)
	if resp.Encoding != "" && len(body) > 0 {
		compressed, err := Compress(resp.Encoding, body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Encoding", resp.Encoding)
		body = compressed
	}

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	w.Write(body)
}

// Compress encodes data with gzip, deflate (zlib) or br.
func Compress(encoding string, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	var err error

	switch encoding {
	case "gzip":
		zw := gzip.NewWriter(&buf)
		if _, err = zw.Write(data); err == nil {
			err = zw.Close()
		}
	case "deflate":
		zw := zlib.NewWriter(&buf)
		if _, err = zw.Write(data); err == nil {
			err = zw.Close()
		}
	case "br":
		bw := brotli.NewWriter(&buf)
		if _, err = bw.Write(data); err == nil {
			err = bw.Close()
		}
	default:
		return nil, fmt.Errorf("unknown encoding %q", encoding)
	}

	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// StatusBody returns a payload carrying only an origin status code.
func StatusBody(code int) string {
	return fmt.Sprintf(`{"statusCode":%d}`, code)
}

// ItemJSON returns a standard-family item with the given id.
func ItemJSON(id string) string {
	return fmt.Sprintf(`{"id":%q,"desc":"video %s","author":{"id":"u-%s","uniqueId":"author%s"},`+
		`"stats":{"playCount":100,"diggCount":10,"commentCount":2,"shareCount":1},`+
		`"challenges":[{"id":"t1","title":"fyp"}],"music":{"id":"m-%s","title":"sound %s"}}`,
		id, id, id, id, id, id)
}

// TopItemJSON returns a top-videos-family item with the given id.
func TopItemJSON(id string) string {
	return fmt.Sprintf(`{"itemInfos":{"id":%q,"text":"video %s","playCount":100,"diggCount":10,`+
		`"commentCount":2,"shareCount":1},"authorInfos":{"userId":"u-%s","uniqueId":"author%s"},`+
		`"challengeInfoList":[{"challengeId":"t1","challengeName":"fyp"}],`+
		`"musicInfos":{"musicId":"m-%s","musicName":"sound %s"}}`,
		id, id, id, id, id, id)
}

// ItemListBody returns a standard listing page.
func ItemListBody(ids []string, maxCursor string) string {
	items := make([]string, 0, len(ids))
	for _, id := range ids {
		items = append(items, ItemJSON(id))
	}
	return fmt.Sprintf(`{"statusCode":0,"items":[%s],"maxCursor":%q}`, strings.Join(items, ","), maxCursor)
}

// TopListBody returns a top-videos listing page.
func TopListBody(ids []string, maxCursor string) string {
	items := make([]string, 0, len(ids))
	for _, id := range ids {
		items = append(items, TopItemJSON(id))
	}
	return fmt.Sprintf(`{"statusCode":0,"body":{"itemListData":[%s],"maxCursor":%q}}`, strings.Join(items, ","), maxCursor)
}

// ItemDetailBody returns a video detail payload.
func ItemDetailBody(id string) string {
	return fmt.Sprintf(`{"statusCode":0,"itemInfo":{"itemStruct":%s}}`, ItemJSON(id))
}

// UserDetailBody returns a user detail payload.
func UserDetailBody(id, username string) string {
	return fmt.Sprintf(`{"statusCode":0,"userInfo":{"user":{"id":%q,"uniqueId":%q,`+
		`"avatarThumb":"https://cdn.example/%s.jpg","nickname":"Nick %s","signature":"hello"},`+
		`"stats":{"followingCount":5,"followerCount":1000,"heartCount":20000,"videoCount":42}}}`,
		id, username, username, username)
}

// MusicDetailBody returns an audio detail payload.
func MusicDetailBody(id string) string {
	return fmt.Sprintf(`{"statusCode":0,"musicInfo":{"music":{"id":%q,"title":"sound %s",`+
		`"authorName":"artist","coverThumb":"s.jpg","coverMedium":"m.jpg","coverLarge":"l.jpg",`+
		`"playUrl":"https://cdn.example/%s.mp3","duration":15}}}`, id, id, id)
}

// ChallengeDetailBody returns a tag detail payload.
func ChallengeDetailBody(id, title string) string {
	return fmt.Sprintf(`{"statusCode":0,"challengeInfo":{"challenge":{"id":%q,"title":%q,"desc":"about %s"},`+
		`"stats":{"videoCount":12,"viewCount":3400}}}`, id, title, title)
}

// IDs returns n sequential ids starting at from.
func IDs(from, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%d", from+i)
	}
	return ids
}
