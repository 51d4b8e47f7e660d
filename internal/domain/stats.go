package domain

import "time"

// Summary describes one aggregated series.
type Summary struct {
	Windows int
	Total   float64
	Mean    float64
	StdDev  float64
	Min     float64
	Max     float64
	First   int64
	Last    int64
}

// Span is the distance between the first and the last window start.
func (s Summary) Span() time.Duration {
	if s.Windows == 0 {
		return 0
	}
	return time.Duration(s.Last-s.First) * time.Millisecond
}

// LatencyStats summarises request latencies in milliseconds.
type LatencyStats struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min_ms"`
	Median float64 `json:"median_ms"`
	P95    float64 `json:"p95_ms"`
	P99    float64 `json:"p99_ms"`
	Max    float64 `json:"max_ms"`
	Mean   float64 `json:"mean_ms"`
}
