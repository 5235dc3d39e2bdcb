// Package pagination normalizes offset-style page/limit query parameters.
package pagination

import (
	"math"
	"strconv"
	"strings"
)

// Config configures page size normalization.
type Config struct {
	DefaultLimit int
	MaxLimit     int
}

// Request is a normalized page request; Page and Limit are always >= 1.
type Request struct {
	Page  int
	Limit int
}

// Offset returns the number of rows to skip.
func (r Request) Offset() int {
	return (r.Page - 1) * r.Limit
}

// PageCount returns how many pages total rows occupy at this limit.
func (r Request) PageCount(total int) int {
	if total <= 0 || r.Limit <= 0 {
		return 0
	}
	return (total + r.Limit - 1) / r.Limit
}

// Clamp parses raw page and limit values; missing, malformed or non-positive
// values fall back to page 1 and the default limit, and the limit is capped.
// The page is capped so Offset never overflows.
func Clamp(rawPage, rawLimit string, cfg Config) Request {
	page := parsePositive(rawPage)
	if page <= 0 {
		page = 1
	}
	limit := parsePositive(rawLimit)
	if limit <= 0 {
		limit = cfg.DefaultLimit
	}
	if cfg.MaxLimit > 0 && limit > cfg.MaxLimit {
		limit = cfg.MaxLimit
	}
	if limit <= 0 {
		limit = 1
	}
	if maxPage := math.MaxInt / limit; page > maxPage {
		page = maxPage
	}
	return Request{Page: page, Limit: limit}
}

func parsePositive(raw string) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return 0
	}
	return value
}
