package ports

import (
	"context"
	"time"
)

// MetricsExporter exports aggregation results to an external observability system.
type MetricsExporter interface {
	// ExportSeriesMetrics exports the outcome of building one series.
	ExportSeriesMetrics(ctx context.Context, m *SeriesMetrics) error
	// Close shuts down the exporter and flushes any pending metrics.
	Close(ctx context.Context) error
}

// SeriesMetrics describes one built series within a view.
type SeriesMetrics struct {
	LoadID string
	View   string
	Series string
	Source string

	WindowSize    time.Duration
	Windows       int64
	TotalWatts    float64
	PeakWatts     float64
	InputRecords  int64
	KeptRecords   int64
	FilterOutcome string

	RangeStart *time.Time
	RangeEnd   *time.Time
}
