package timeline

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/emiliopalmerini/wattline/internal/domain"
)

// DefaultWindowSize is the aggregation width used when none is configured.
const DefaultWindowSize int64 = 100

// WindowOptions configures Aggregate.
type WindowOptions struct {
	// SizeMs is the window width in milliseconds. It must be positive.
	SizeMs int64
	// SuppressZero drops windows whose accumulated value is exactly zero.
	SuppressZero bool
	// Location sets TimeWindow.Time. Nil means UTC.
	Location *time.Location
}

// Aggregate folds points into epoch-aligned windows in a single pass over
// the input order. Only windows that received at least one point are emitted.
func Aggregate(points []domain.Point, opts WindowOptions) ([]domain.TimeWindow, error) {
	if err := ValidateWindowSize(opts.SizeMs); err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, nil
	}

	var (
		windows []domain.TimeWindow
		start   = AlignWindow(points[0].TS, opts.SizeMs)
		acc     float64
	)
	emit := func() {
		if opts.SuppressZero && acc == 0 {
			return
		}
		windows = append(windows, domain.TimeWindow{
			Start: start,
			Value: acc,
			Time:  windowTime(start, opts.Location),
		})
	}

	acc = points[0].Value
	for _, p := range points[1:] {
		if p.TS < start+opts.SizeMs {
			acc += p.Value
			continue
		}
		emit()
		start = AlignWindow(p.TS, opts.SizeMs)
		acc = p.Value
	}
	emit()

	return windows, nil
}

// AlignWindow returns the start of the size-wide window containing ts,
// using floor semantics so negative timestamps align too.
func AlignWindow(ts, size int64) int64 {
	r := ts % size
	if r < 0 {
		r += size
	}
	return ts - r
}

func windowTime(startMs int64, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.UnixMilli(startMs).In(loc)
}

// ValidateWindowSize rejects non-positive widths.
func ValidateWindowSize(ms int64) error {
	if ms <= 0 {
		return fmt.Errorf("window size must be positive, got %d: %w", ms, domain.ErrInvalidWindowSize)
	}
	return nil
}

// ParseWindowSize parses a user supplied width in milliseconds.
// Go duration strings such as "250ms" or "1s" are accepted too.
func ParseWindowSize(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return ms, ValidateWindowSize(ms)
	}
	if d, err := time.ParseDuration(raw); err == nil {
		ms := d.Milliseconds()
		return ms, ValidateWindowSize(ms)
	}
	return 0, fmt.Errorf("window size %q is not a number: %w", raw, domain.ErrInvalidWindowSize)
}

// Cumulative returns the running total of the window values.
func Cumulative(windows []domain.TimeWindow) []domain.TimeWindow {
	if len(windows) == 0 {
		return nil
	}
	out := make([]domain.TimeWindow, len(windows))
	var total float64
	for i, w := range windows {
		total += w.Value
		out[i] = w
		out[i].Value = total
	}
	return out
}

// Clip keeps the windows starting inside the range. An unresolved range
// leaves the input unchanged.
func Clip(windows []domain.TimeWindow, r domain.TimeRange) []domain.TimeWindow {
	start, end, ok := r.Bounds()
	if !ok {
		return windows
	}
	var out []domain.TimeWindow
	for _, w := range windows {
		if w.Start >= start && w.Start <= end {
			out = append(out, w)
		}
	}
	return out
}
