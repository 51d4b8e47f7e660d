package timeline

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/emiliopalmerini/wattline/internal/domain"
)

const nanosPerMilli = 1_000_000.0

// RunBoundaries resolves the extent of every run. Runs without both sides
// are skipped. Run numbers default to the 1-based position.
func RunBoundaries(exp domain.ExperimentRecord) []domain.RunBoundary {
	var out []domain.RunBoundary
	for i, run := range exp.Runs {
		start, end, ok := runExtent(run)
		if !ok {
			continue
		}
		out = append(out, domain.RunBoundary{RunNumber: RunNumber(run, i), Start: start, End: end})
	}
	return out
}

func runExtent(run domain.RunRecord) (int64, int64, bool) {
	var start, end *int64
	start = run.StartTimestamp
	switch {
	case run.EndTimestamp != nil:
		end = run.EndTimestamp
	case run.StartTimestamp != nil && run.ElapsedTimeMs != nil:
		end = ptr(*run.StartTimestamp + *run.ElapsedTimeMs)
	case run.Timestamp != nil:
		end = run.Timestamp
		if run.ElapsedTimeMs != nil {
			start = ptr(*run.Timestamp - *run.ElapsedTimeMs)
		}
	}
	if start == nil || end == nil {
		return 0, 0, false
	}
	return *start, *end, true
}

// RunNumber is the recorded run number, or the 1-based position when absent.
func RunNumber(run domain.RunRecord, index int) int64 {
	if run.RunNumber != nil {
		return *run.RunNumber
	}
	return int64(index + 1)
}

// LatencyPoint is one request latency in milliseconds.
type LatencyPoint struct {
	TS        int64
	LatencyMs float64
	RunNumber int64
}

// LatencySeries flattens the per-request latencies of every run, in run order.
func LatencySeries(exp domain.ExperimentRecord) []LatencyPoint {
	var out []LatencyPoint
	for i, run := range exp.Runs {
		n := RunNumber(run, i)
		for _, l := range run.Latencies {
			out = append(out, LatencyPoint{TS: l.Timestamp, LatencyMs: float64(l.LatencyNs) / nanosPerMilli, RunNumber: n})
		}
	}
	return out
}

// RunRate is the throughput and goodput of one run, stamped at its start.
type RunRate struct {
	RunNumber  int64
	TS         int64
	Throughput float64
	Goodput    *float64
}

// ThroughputSeries lists runs that report throughput and a start, ordered by start.
func ThroughputSeries(exp domain.ExperimentRecord) []RunRate {
	var out []RunRate
	for i, run := range exp.Runs {
		if run.Throughput == nil || run.StartTimestamp == nil {
			continue
		}
		r := RunRate{RunNumber: RunNumber(run, i), TS: *run.StartTimestamp, Throughput: *run.Throughput}
		if run.Goodput != nil {
			r.Goodput = ptr(*run.Goodput)
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TS < out[j].TS })
	return out
}

// LatencyStats summarises latencies using the empirical quantile.
func LatencyStats(points []LatencyPoint) domain.LatencyStats {
	if len(points) == 0 {
		return domain.LatencyStats{}
	}
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.LatencyMs
	}
	sort.Float64s(values)

	return domain.LatencyStats{
		Count:  len(values),
		Min:    values[0],
		Median: stat.Quantile(0.5, stat.Empirical, values, nil),
		P95:    stat.Quantile(0.95, stat.Empirical, values, nil),
		P99:    stat.Quantile(0.99, stat.Empirical, values, nil),
		Max:    values[len(values)-1],
		Mean:   floats.Sum(values) / float64(len(values)),
	}
}

// SuccessRate is the percentage of successful requests of a run.
// ok is false when the run lacks either count.
func SuccessRate(run domain.RunRecord) (rate float64, ok bool) {
	if run.SuccessfulRequests == nil || run.TotalRequests == nil {
		return 0, false
	}
	if *run.TotalRequests <= 0 {
		return 0, true
	}
	return float64(*run.SuccessfulRequests) / float64(*run.TotalRequests) * 100, true
}

// DistributionMs converts the harness's latency summary to milliseconds.
// Missing values are reported as zero.
func DistributionMs(d *domain.LatencyDistribution) (median, p95, p99 float64) {
	if d == nil {
		return 0, 0, 0
	}
	if d.MedianNs != nil {
		median = *d.MedianNs / nanosPerMilli
	}
	return median, d.Percentiles["p95"] / nanosPerMilli, d.Percentiles["p99"] / nanosPerMilli
}
