package util

import (
	"strconv"
	"time"
)

// DateLayout is the canonical trade-date format used across the service.
const DateLayout = "2006-01-02"

// ParseDate tries the canonical date layout, then compact yyyymmdd, then
// unix seconds. Returns (t, true) if any worked.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("20060102", s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 1e9 {
		return time.Unix(ts, 0).UTC().Truncate(24 * time.Hour), true
	}
	return time.Time{}, false
}

// ParseDateDefault parses a date or returns default if empty/invalid.
func ParseDateDefault(s string, def time.Time) time.Time {
	if t, ok := ParseDate(s); ok {
		return t
	}
	return def
}

// FormatDate renders a time in the canonical trade-date layout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// SameDate reports whether two times fall on the same calendar day.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
