package tiktok

import (
	"encoding/json"
	"testing"
)

func TestRawCursor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"maxCursor":"30"}`, "30"},
		{`{"maxCursor":30}`, "30"},
		{`{"maxCursor":1589372018000}`, "1589372018000"},
		{`{"maxCursor":null}`, ""},
		{`{}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var v struct {
				MaxCursor rawCursor `json:"maxCursor"`
			}
			if err := json.Unmarshal([]byte(tt.in), &v); err != nil {
				t.Fatalf("Unmarshal error = %v", err)
			}
			if string(v.MaxCursor) != tt.want {
				t.Errorf("cursor = %q, want %q", v.MaxCursor, tt.want)
			}
		})
	}
}

func TestRawCursor_Invalid(t *testing.T) {
	var v struct {
		MaxCursor rawCursor `json:"maxCursor"`
	}
	if err := json.Unmarshal([]byte(`{"maxCursor":{}}`), &v); err == nil {
		t.Error("expected error for object cursor")
	}
}

func TestRawCount(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{`{"n":42}`, 42},
		{`{"n":"42"}`, 42},
		{`{"n":""}`, 0},
		{`{"n":null}`, 0},
		{`{"n":1.5e3}`, 1500},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var v struct {
				N rawCount `json:"n"`
			}
			if err := json.Unmarshal([]byte(tt.in), &v); err != nil {
				t.Fatalf("Unmarshal error = %v", err)
			}
			if int64(v.N) != tt.want {
				t.Errorf("count = %d, want %d", v.N, tt.want)
			}
		})
	}
}

func TestItemListMissingItems(t *testing.T) {
	var raw rawItemList
	if err := json.Unmarshal([]byte(`{"statusCode":0,"maxCursor":"9"}`), &raw); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if raw.Items != nil {
		t.Error("Items should be nil when the field is absent")
	}

	if err := json.Unmarshal([]byte(`{"items":[]}`), &raw); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if raw.Items == nil || len(*raw.Items) != 0 {
		t.Error("Items should be an empty, non-nil slice")
	}
}
