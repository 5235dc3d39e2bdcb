package pagination

import (
	"math"
	"strconv"
	"testing"
)

func TestClamp(t *testing.T) {
	cfg := Config{DefaultLimit: 10, MaxLimit: 100}
	tests := []struct {
		name      string
		page      string
		limit     string
		wantPage  int
		wantLimit int
	}{
		{name: "missing", wantPage: 1, wantLimit: 10},
		{name: "valid", page: "3", limit: "25", wantPage: 3, wantLimit: 25},
		{name: "negative", page: "-2", limit: "-5", wantPage: 1, wantLimit: 10},
		{name: "zero", page: "0", limit: "0", wantPage: 1, wantLimit: 10},
		{name: "garbage", page: "abc", limit: "1.5", wantPage: 1, wantLimit: 10},
		{name: "capped", page: "2", limit: "1000", wantPage: 2, wantLimit: 100},
		{name: "whitespace", page: " 4 ", limit: " 5", wantPage: 4, wantLimit: 5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Clamp(tc.page, tc.limit, cfg)
			if got.Page != tc.wantPage || got.Limit != tc.wantLimit {
				t.Fatalf("Clamp(%q, %q) = %+v, want page=%d limit=%d", tc.page, tc.limit, got, tc.wantPage, tc.wantLimit)
			}
		})
	}
}

func TestClampWithoutDefaultFallsBackToOne(t *testing.T) {
	got := Clamp("", "", Config{})
	if got.Limit != 1 {
		t.Fatalf("limit = %d, want 1", got.Limit)
	}
}

func TestRequestOffsetAndPageCount(t *testing.T) {
	req := Request{Page: 3, Limit: 10}
	if got := req.Offset(); got != 20 {
		t.Fatalf("offset = %d, want 20", got)
	}
	tests := map[int]int{0: 0, 1: 1, 10: 1, 11: 2, 25: 3}
	for total, want := range tests {
		if got := req.PageCount(total); got != want {
			t.Fatalf("PageCount(%d) = %d, want %d", total, got, want)
		}
	}
}

func TestClampHugePageKeepsOffsetPastEnd(t *testing.T) {
	cfg := Config{DefaultLimit: 10, MaxLimit: 100}
	for _, raw := range []string{"922337203685477582", strconv.Itoa(math.MaxInt)} {
		req := Clamp(raw, "10", cfg)
		if req.Page != math.MaxInt/10 {
			t.Fatalf("Clamp(%q) page = %d, want %d", raw, req.Page, math.MaxInt/10)
		}
		if got := req.Offset(); got <= 0 {
			t.Fatalf("Clamp(%q) offset = %d, want positive", raw, got)
		}
	}
}
