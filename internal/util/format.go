package util

import (
	"fmt"
	"time"
)

// FormatWatts formats a power value with W/kW suffix for readability.
// Examples: 12.345 -> "12.35 W", 1500 -> "1.50 kW"
func FormatWatts(w float64) string {
	if w >= 1000 || w <= -1000 {
		return fmt.Sprintf("%.2f kW", w/1000)
	}
	return fmt.Sprintf("%.2f W", w)
}

// FormatMillis formats epoch milliseconds as "2006-01-02 15:04:05.000" in loc.
// A nil loc means UTC.
func FormatMillis(ms int64, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return time.UnixMilli(ms).In(loc).Format("2006-01-02 15:04:05.000")
}

// FormatOptionalMillis is FormatMillis for optional values; nil renders as "none".
func FormatOptionalMillis(ms *int64, loc *time.Location) string {
	if ms == nil {
		return "none"
	}
	return FormatMillis(*ms, loc)
}

// FormatPause renders a gap length in seconds, minutes or hours.
// Examples: 42 -> "42.0s", 150 -> "2.5min", 5400 -> "1.5h"
func FormatPause(seconds float64) string {
	switch {
	case seconds < 60:
		return fmt.Sprintf("%.1fs", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%.1fmin", seconds/60)
	default:
		return fmt.Sprintf("%.1fh", seconds/3600)
	}
}

// FormatNumber formats an int64 with K/M suffix for readability.
// Examples: 500 -> "500", 1500 -> "1.5K", 1500000 -> "1.5M"
func FormatNumber(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000)
}

// FormatPercent renders a ratio already expressed in percent.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}
