package cache

import (
	"net/url"
	"testing"
)

func TestCacheKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  CacheKey
		want string
	}{
		{
			name: "endpoint only",
			key:  CacheKey{Endpoint: "/api/item/detail/"},
			want: "tiktok:api/item/detail",
		},
		{
			name: "host and endpoint",
			key:  CacheKey{Host: "m.tiktok.com", Endpoint: "/api/user/detail/"},
			want: "tiktok:m.tiktok.com:api/user/detail",
		},
		{
			name: "sorted query params",
			key: CacheKey{
				Host:     "m.tiktok.com",
				Endpoint: "/api/item_list/",
				QueryParams: url.Values{
					"type":  []string{"5"},
					"count": []string{"30"},
					"id":    []string{"1"},
				},
			},
			want: "tiktok:m.tiktok.com:api/item_list:count=30:id=1:type=5",
		},
		{
			name: "multi value param",
			key: CacheKey{
				Endpoint:    "/api/x/",
				QueryParams: url.Values{"a": []string{"1", "2"}},
			},
			want: "tiktok:api/x:a=1,2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKeyFromURL(t *testing.T) {
	unsigned := "https://m.tiktok.com/api/item/detail/?itemId=6812"
	signed := unsigned + "&_signature=abc&verifyFp=verify_x"

	k1, err := KeyFromURL(unsigned)
	if err != nil {
		t.Fatalf("KeyFromURL(unsigned) error = %v", err)
	}
	k2, err := KeyFromURL(signed)
	if err != nil {
		t.Fatalf("KeyFromURL(signed) error = %v", err)
	}

	if k1.String() != k2.String() {
		t.Errorf("signed and unsigned keys differ: %q vs %q", k1.String(), k2.String())
	}
	if want := "tiktok:m.tiktok.com:api/item/detail:itemId=6812"; k1.String() != want {
		t.Errorf("String() = %q, want %q", k1.String(), want)
	}
}

func TestKeyFromURL_Invalid(t *testing.T) {
	if _, err := KeyFromURL("://bad"); err == nil {
		t.Error("expected error for malformed url")
	}
}
