package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// setupTestRedis starts an in-memory Redis for unit tests.
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
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

	return client, mr
}

func testKey(t *testing.T) CacheKey {
	t.Helper()
	key, err := KeyFromURL("https://m.tiktok.com/api/item/detail/?itemId=6812")
	if err != nil {
		t.Fatalf("KeyFromURL: %v", err)
	}
	return key
}

func TestNewManager(t *testing.T) {
	client, _ := setupTestRedis(t)

	manager := NewManager(client, 0)
	if manager == nil {
		t.Fatal("NewManager returned nil")
	}
	if manager.redis != client {
		t.Error("Manager redis client not set correctly")
	}
	if manager.TTL() != DefaultTTL {
		t.Errorf("TTL() = %v, want %v", manager.TTL(), DefaultTTL)
	}
}

func TestNewManager_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewManager should panic with nil redis client")
		}
	}()
	NewManager(nil, time.Minute)
}

func TestManager_SetAndGet(t *testing.T) {
	client, mr := setupTestRedis(t)
	manager := NewManager(client, time.Minute)
	ctx := context.Background()
	key := testKey(t)

	entry := NewEntry(key.Endpoint, []byte(`{"statusCode":0}`), manager.TTL())
	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if !mr.Exists(key.String()) {
		t.Fatalf("key %q not stored in redis", key.String())
	}
	if ttl := mr.TTL(key.String()); ttl <= 0 || ttl > time.Minute {
		t.Errorf("redis TTL = %v, want within (0, 1m]", ttl)
	}

	got, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got.Data) != `{"statusCode":0}` {
		t.Errorf("Data = %q", got.Data)
	}
	if got.Endpoint != key.Endpoint {
		t.Errorf("Endpoint = %q, want %q", got.Endpoint, key.Endpoint)
	}
}

func TestManager_CacheMiss(t *testing.T) {
	client, _ := setupTestRedis(t)
	manager := NewManager(client, time.Minute)

	_, err := manager.Get(context.Background(), testKey(t))
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() error = %v, want ErrCacheMiss", err)
	}
}

func TestManager_RedisExpiry(t *testing.T) {
	client, mr := setupTestRedis(t)
	manager := NewManager(client, time.Minute)
	ctx := context.Background()
	key := testKey(t)

	if err := manager.Set(ctx, key, NewEntry(key.Endpoint, []byte(`{}`), 10*time.Second)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	mr.FastForward(11 * time.Second)

	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() after expiry error = %v, want ErrCacheMiss", err)
	}
}

func TestManager_ExpiredEntry(t *testing.T) {
	client, _ := setupTestRedis(t)
	manager := NewManager(client, time.Minute)
	ctx := context.Background()
	key := testKey(t)

	expired := &CacheEntry{
		Data:     []byte(`{}`),
		Endpoint: key.Endpoint,
		Expires:  time.Now().Add(-time.Second),
		CachedAt: time.Now().Add(-time.Minute),
	}
	if err := manager.Set(ctx, key, expired); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() error = %v, want ErrCacheMiss", err)
	}
}

func TestManager_InvalidEntry(t *testing.T) {
	client, mr := setupTestRedis(t)
	manager := NewManager(client, time.Minute)
	key := testKey(t)

	tests := []struct {
		name   string
		fields []string
	}{
		{"missing data", []string{fieldEndpoint, "/api/item/detail/", fieldExpires, "1", fieldCachedAt, "1"}},
		{"bad expires", []string{fieldData, "{}", fieldExpires, "soon", fieldCachedAt, "1"}},
		{"missing cached_at", []string{fieldData, "{}", fieldExpires, "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mr.Del(key.String())
			mr.HSet(key.String(), tt.fields...)

			_, err := manager.Get(context.Background(), key)
			if !errors.Is(err, ErrInvalidEntry) {
				t.Errorf("Get() error = %v, want ErrInvalidEntry", err)
			}
		})
	}
}

func TestManager_SetReplacesEntry(t *testing.T) {
	client, mr := setupTestRedis(t)
	manager := NewManager(client, time.Minute)
	ctx := context.Background()
	key := testKey(t)

	if err := manager.Set(ctx, key, NewEntry(key.Endpoint, []byte(`{"v":1}`), time.Minute)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := manager.Set(ctx, key, NewEntry(key.Endpoint, []byte(`{"v":2}`), 5*time.Second)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if got := mr.HGet(key.String(), fieldData); got != `{"v":2}` {
		t.Errorf("stored data = %q, want second body", got)
	}
	if ttl := mr.TTL(key.String()); ttl > 5*time.Second {
		t.Errorf("redis TTL = %v, want at most 5s", ttl)
	}
}

func TestManager_Delete(t *testing.T) {
	client, mr := setupTestRedis(t)
	manager := NewManager(client, time.Minute)
	ctx := context.Background()
	key := testKey(t)

	if err := manager.Set(ctx, key, NewEntry(key.Endpoint, []byte(`{}`), time.Minute)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := manager.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if mr.Exists(key.String()) {
		t.Error("key still present after Delete")
	}
}

func TestManager_SetNilEntry(t *testing.T) {
	client, _ := setupTestRedis(t)
	manager := NewManager(client, time.Minute)

	if err := manager.Set(context.Background(), testKey(t), nil); err == nil {
		t.Error("Set(nil) should return error")
	}
}

func TestManager_RedisDown(t *testing.T) {
	client, mr := setupTestRedis(t)
	manager := NewManager(client, time.Minute)
	mr.Close()

	_, err := manager.Get(context.Background(), testKey(t))
	if err == nil || errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() error = %v, want redis error", err)
	}
}
