package domain

import (
	"fmt"
	"time"
)

// TimeRange is a resolved [Start, End] interval in epoch milliseconds.
// Either side may be nil when no boundary could be derived.
type TimeRange struct {
	Start *int64
	End   *int64
}

// NewTimeRange returns a fully resolved range.
func NewTimeRange(start, end int64) TimeRange {
	return TimeRange{Start: &start, End: &end}
}

// Resolved reports whether both sides are known.
func (r TimeRange) Resolved() bool {
	return r.Start != nil && r.End != nil
}

// Bounds returns both sides and whether the range is resolved.
func (r TimeRange) Bounds() (int64, int64, bool) {
	if !r.Resolved() {
		return 0, 0, false
	}
	return *r.Start, *r.End, true
}

// Duration is End-Start. It may be zero or negative; callers must tolerate that.
func (r TimeRange) Duration() time.Duration {
	start, end, ok := r.Bounds()
	if !ok {
		return 0
	}
	return time.Duration(end-start) * time.Millisecond
}

// Contains reports whether ms lies inside the inclusive range.
func (r TimeRange) Contains(ms int64) bool {
	start, end, ok := r.Bounds()
	return ok && ms >= start && ms <= end
}

func (r TimeRange) String() string {
	side := func(v *int64) string {
		if v == nil {
			return "none"
		}
		return fmt.Sprintf("%d", *v)
	}
	return fmt.Sprintf("[%s, %s]", side(r.Start), side(r.End))
}
