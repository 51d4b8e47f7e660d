package timeline

import (
	"fmt"
	"math"
	"sort"
	"time"

	"k8s.io/klog/v2"

	"github.com/emiliopalmerini/wattline/internal/domain"
	"github.com/emiliopalmerini/wattline/internal/ports"
)

// Policy decides what a filter returns when the range cannot be applied.
type Policy int

const (
	// Strict returns nothing rather than data outside the range.
	Strict Policy = iota
	// Lenient falls back to the unfiltered input.
	Lenient
)

func (p Policy) String() string {
	if p == Lenient {
		return "lenient"
	}
	return "strict"
}

// Outcome classifies how a filter call ended.
type Outcome int

const (
	OutcomeFiltered Outcome = iota
	OutcomeEmptyInput
	OutcomeNoBoundary
	OutcomeNoTimestamps
	OutcomeNoOverlap
	OutcomeNoneInRange
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFiltered:
		return "filtered"
	case OutcomeEmptyInput:
		return "empty_input"
	case OutcomeNoBoundary:
		return "no_boundary"
	case OutcomeNoTimestamps:
		return "no_timestamps"
	case OutcomeNoOverlap:
		return "no_overlap"
	case OutcomeNoneInRange:
		return "none_in_range"
	default:
		return "unknown"
	}
}

// FilterReport describes one filter call.
type FilterReport struct {
	Outcome Outcome
	Policy  Policy
	Input   int
	Kept    int
	// Extent is the min/max timestamp of the input in epoch milliseconds.
	Extent  domain.TimeRange
	Message string
}

// FellBack reports whether the lenient policy returned the unfiltered input.
func (r FilterReport) FellBack() bool {
	return r.Policy == Lenient && r.Outcome != OutcomeFiltered && r.Outcome != OutcomeEmptyInput
}

// Err maps the strict failure outcomes onto the error taxonomy.
func (r FilterReport) Err() error {
	if r.Policy != Strict {
		return nil
	}
	switch r.Outcome {
	case OutcomeNoBoundary:
		return domain.ErrUnresolvableTimeRange
	case OutcomeNoOverlap, OutcomeNoneInRange:
		return domain.ErrNoOverlappingTimeRange
	}
	return nil
}

// RangeFilter restricts a raw series to a time range. Every call emits
// exactly one status line to Reporter.
type RangeFilter struct {
	Reporter ports.StatusReporter
	// Location is used to render times in status lines. Nil means UTC.
	Location *time.Location
}

// Intervals keeps the host intervals whose host timestamp, or failing that
// any consumer timestamp, lies in the range.
func (f RangeFilter) Intervals(series []domain.HostInterval, r domain.TimeRange, p Policy, n Normalizer) ([]domain.HostInterval, FilterReport) {
	rep := FilterReport{Policy: p, Input: len(series)}
	if len(series) == 0 {
		rep.Outcome = OutcomeEmptyInput
		return nil, f.finish(rep, "No energy data to filter")
	}

	var (
		tally  unitTally
		found  bool
		lo, hi float64
	)
	for _, iv := range series {
		visitTimestamps(iv, n, &tally, func(sec float64) {
			if !found || sec < lo {
				lo = sec
			}
			if !found || sec > hi {
				hi = sec
			}
			found = true
		})
	}
	if tally.inferred > 0 {
		klog.V(2).InfoS("Inferred timestamp unit from magnitude", "records", tally.inferred, "explicit", tally.explicit)
	}
	if found {
		rep.Extent = domain.NewTimeRange(int64(math.Round(lo*1000)), int64(math.Round(hi*1000)))
	}

	start, end, ok := r.Bounds()
	if !ok {
		rep.Outcome = OutcomeNoBoundary
		return f.fallback(series, rep, fmt.Sprintf("No time boundaries provided, showing all %d energy data points", len(series)),
			"No time boundaries available for the selected experiment")
	}
	if !found {
		rep.Outcome = OutcomeNoTimestamps
		return f.fallback(series, rep, "No timestamp fields found in energy data, showing all data",
			"No timestamp fields found in energy data")
	}

	startSec, endSec := float64(start)/1000, float64(end)/1000
	if hi < startSec || lo > endSec {
		rep.Outcome = OutcomeNoOverlap
		msg := fmt.Sprintf("No overlap between experiment time (%s - %s) and energy data (%s - %s)",
			f.format(start), f.format(end), f.format(*rep.Extent.Start), f.format(*rep.Extent.End))
		return f.fallback(series, rep, msg+", showing all data instead", msg+", no energy data to display")
	}

	var kept []domain.HostInterval
	for _, iv := range series {
		if intervalInRange(iv, n, startSec, endSec) {
			kept = append(kept, iv)
		}
	}
	if len(kept) == 0 {
		rep.Outcome = OutcomeNoneInRange
		return f.fallback(series, rep, "No energy data found within the exact experiment timeframe, showing all data instead",
			fmt.Sprintf("No energy data found within the experiment timeframe (%s - %s)", f.format(start), f.format(end)))
	}

	rep.Outcome = OutcomeFiltered
	rep.Kept = len(kept)
	return kept, f.finish(rep, fmt.Sprintf("Filtered energy data: kept %d/%d entries (%.1f%%)",
		len(kept), len(series), float64(len(kept))/float64(len(series))*100))
}

// Samples applies the same policy to power samples.
func (f RangeFilter) Samples(samples []domain.PowerSample, r domain.TimeRange, p Policy) ([]domain.PowerSample, FilterReport) {
	rep := FilterReport{Policy: p, Input: len(samples)}
	if len(samples) == 0 {
		rep.Outcome = OutcomeEmptyInput
		return nil, f.finish(rep, "No power samples to filter")
	}

	lo, hi := samples[0].Timestamp.UnixMilli(), samples[0].Timestamp.UnixMilli()
	for _, s := range samples[1:] {
		ms := s.Timestamp.UnixMilli()
		if ms < lo {
			lo = ms
		}
		if ms > hi {
			hi = ms
		}
	}
	rep.Extent = domain.NewTimeRange(lo, hi)

	start, end, ok := r.Bounds()
	if !ok {
		rep.Outcome = OutcomeNoBoundary
		return f.fallbackSamples(samples, rep, fmt.Sprintf("No time boundaries provided, showing all %d power samples", len(samples)),
			"No time boundaries available for power samples")
	}
	if hi < start || lo > end {
		rep.Outcome = OutcomeNoOverlap
		msg := fmt.Sprintf("No overlap between experiment time (%s - %s) and power samples (%s - %s)",
			f.format(start), f.format(end), f.format(lo), f.format(hi))
		return f.fallbackSamples(samples, rep, msg+", showing all data instead", msg+", no power data to display")
	}

	var kept []domain.PowerSample
	for _, s := range samples {
		if ms := s.Timestamp.UnixMilli(); ms >= start && ms <= end {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		rep.Outcome = OutcomeNoneInRange
		return f.fallbackSamples(samples, rep, "No power samples found within time range, showing all data",
			"No power samples found within the experiment time range")
	}

	rep.Outcome = OutcomeFiltered
	rep.Kept = len(kept)
	return kept, f.finish(rep, fmt.Sprintf("Filtered power samples: kept %d/%d entries (%.1f%%)",
		len(kept), len(samples), float64(len(kept))/float64(len(samples))*100))
}

func (f RangeFilter) fallback(series []domain.HostInterval, rep FilterReport, lenientMsg, strictMsg string) ([]domain.HostInterval, FilterReport) {
	if rep.Policy == Lenient {
		rep.Kept = len(series)
		return series, f.warn(rep, lenientMsg)
	}
	return nil, f.warn(rep, strictMsg)
}

func (f RangeFilter) fallbackSamples(samples []domain.PowerSample, rep FilterReport, lenientMsg, strictMsg string) ([]domain.PowerSample, FilterReport) {
	if rep.Policy == Lenient {
		rep.Kept = len(samples)
		return samples, f.warn(rep, lenientMsg)
	}
	return nil, f.warn(rep, strictMsg)
}

func (f RangeFilter) finish(rep FilterReport, msg string) FilterReport {
	rep.Message = msg
	if f.Reporter != nil {
		f.Reporter.Status(msg)
	}
	return rep
}

func (f RangeFilter) warn(rep FilterReport, msg string) FilterReport {
	rep.Message = msg
	if f.Reporter != nil {
		f.Reporter.Warn(msg)
	}
	return rep
}

func (f RangeFilter) format(ms int64) string {
	return formatSeconds(ms, f.Location)
}

// formatSeconds renders epoch milliseconds at second precision in loc, or UTC when loc is nil.
func formatSeconds(ms int64, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return time.UnixMilli(ms).In(loc).Format("2006-01-02 15:04:05")
}

// visitTimestamps calls fn with every host and consumer timestamp of iv in seconds.
func visitTimestamps(iv domain.HostInterval, n Normalizer, tally *unitTally, fn func(sec float64)) {
	visit := func(raw *float64) {
		if raw == nil {
			return
		}
		_, inferred := n.unitFor(*raw)
		tally.add(inferred)
		fn(n.Seconds(*raw))
	}
	if iv.Host != nil {
		visit(iv.Host.Timestamp)
	}
	for _, c := range iv.Consumers {
		visit(c.Timestamp)
	}
}

func intervalInRange(iv domain.HostInterval, n Normalizer, startSec, endSec float64) bool {
	in := func(raw *float64) bool {
		if raw == nil {
			return false
		}
		sec := n.Seconds(*raw)
		return sec >= startSec && sec <= endSec
	}
	if iv.Host != nil && in(iv.Host.Timestamp) {
		return true
	}
	for _, c := range iv.Consumers {
		if in(c.Timestamp) {
			return true
		}
	}
	return false
}

// sortSamples orders samples by timestamp, keeping input order for ties.
func sortSamples(samples []domain.PowerSample) []domain.PowerSample {
	out := make([]domain.PowerSample, len(samples))
	copy(out, samples)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}
