package domain

import (
	"strings"
)

// ExperimentRecord is one benchmark experiment and its ordered runs.
type ExperimentRecord struct {
	ID                 string
	Runs               []RunRecord
	DurationSeconds    *float64
	RequestsPerSecond  *float64
	PauseBetweenRunsMs *int64
	RunsConfigured     *int64
	Connections        *int64
	Probabilities      map[string]float64
}

// IsWarmup reports whether the experiment belongs to the warmup subset.
func (e ExperimentRecord) IsWarmup() bool {
	return IsWarmupID(e.ID)
}

// IsWarmupID reports whether id names a warmup experiment.
// This is a naming convention, not a schema field.
func IsWarmupID(id string) bool {
	return strings.Contains(strings.ToLower(id), "warmup")
}

// LatencySample is a single request latency observed during a run.
type LatencySample struct {
	Timestamp int64
	LatencyNs int64
}

// LatencyDistribution is the summary the harness writes per run.
type LatencyDistribution struct {
	MedianNs    *float64
	MinNs       *float64
	MaxNs       *float64
	Percentiles map[string]float64
}

// RunRecord is one run of an experiment. All timestamps are epoch milliseconds.
type RunRecord struct {
	RunNumber           *int64
	StartTimestamp      *int64
	EndTimestamp        *int64
	ElapsedTimeMs       *int64
	Timestamp           *int64
	Latencies           []LatencySample
	LatencyDistribution *LatencyDistribution
	Throughput          *float64
	Goodput             *float64
	TotalRequests       *int64
	SuccessfulRequests  *int64
}

// SchemaVariant names the historical layout a run record was written in.
type SchemaVariant int

const (
	VariantUnknown SchemaVariant = iota
	// VariantExplicitEnd carries start_timestamp and end_timestamp.
	VariantExplicitEnd
	// VariantElapsed carries start_timestamp and elapsed_time_ms.
	VariantElapsed
	// VariantLegacyTimestamp only carries the generic end-of-run timestamp.
	VariantLegacyTimestamp
)

func (v SchemaVariant) String() string {
	switch v {
	case VariantExplicitEnd:
		return "start+end"
	case VariantElapsed:
		return "start+elapsed"
	case VariantLegacyTimestamp:
		return "legacy-timestamp"
	default:
		return "unknown"
	}
}

// Variant classifies the run by the boundary fields it carries,
// in the same precedence the boundary resolver applies.
func (r RunRecord) Variant() SchemaVariant {
	switch {
	case r.StartTimestamp != nil && r.EndTimestamp != nil:
		return VariantExplicitEnd
	case r.StartTimestamp != nil && r.ElapsedTimeMs != nil:
		return VariantElapsed
	case r.Timestamp != nil:
		return VariantLegacyTimestamp
	default:
		return VariantUnknown
	}
}

// RunBoundary is the resolved extent of one run, used to annotate overlays.
type RunBoundary struct {
	RunNumber int64
	Start     int64
	End       int64
}

// Gap is the idle pause between two adjacent experiments on the timeline.
type Gap struct {
	After   string
	Before  string
	Start   int64
	End     int64
	Seconds float64
	// Labeled is set when the pause is long enough to annotate.
	Labeled bool
}
