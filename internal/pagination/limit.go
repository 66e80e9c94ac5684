package pagination

import (
	"strconv"
	"strings"
)

const (
	MinLimit = 1
	MaxLimit = 100

	DefaultEventLimit = 20
	DefaultRSVPLimit  = 50
)

// ParseLimit reads a ?limit= value.  Empty or non-numeric input yields def;
// numbers are clamped to [MinLimit, MaxLimit].
func ParseLimit(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return ClampLimit(def)
	}
	return ClampLimit(n)
}

// ClampLimit bounds n to [MinLimit, MaxLimit].
func ClampLimit(n int) int {
	if n < MinLimit {
		return MinLimit
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}

// HasMore implements the full-page heuristic: a page holding exactly limit
// rows gets a next cursor.  When the total is a multiple of limit the
// client sees one trailing empty page.
func HasMore(rows, limit int) bool {
	return rows == limit
}
