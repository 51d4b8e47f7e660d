package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/emiliopalmerini/wattline/internal/ports"
)

const (
	serviceName    = "wattline"
	serviceVersion = "1.0.0"
)

// Exporter exports series aggregation metrics to an OTEL Collector.
type Exporter struct {
	provider      *sdkmetric.MeterProvider
	windowsTotal  metric.Int64Counter
	energyTotal   metric.Float64Counter
	peakHist      metric.Float64Histogram
	recordsTotal  metric.Int64Counter
	keptTotal     metric.Int64Counter
	outcomesTotal metric.Int64Counter
}

// NewExporter creates a new OTEL metrics exporter pushing over OTLP/gRPC.
func NewExporter(ctx context.Context, cfg Config) (*Exporter, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return nil, fmt.Errorf("OTEL exporter is disabled or endpoint not configured")
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	e, err := newExporter(ctx, sdkmetric.NewPeriodicReader(exp))
	if err != nil {
		return nil, err
	}
	otel.SetMeterProvider(e.provider)
	return e, nil
}

func newExporter(ctx context.Context, reader sdkmetric.Reader) (*Exporter, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	)
	meter := provider.Meter(serviceName)

	e := &Exporter{provider: provider}

	if e.windowsTotal, err = meter.Int64Counter(
		"wattline_series_windows_total",
		metric.WithDescription("Aggregation windows produced per series"),
		metric.WithUnit("{window}"),
	); err != nil {
		return nil, fmt.Errorf("creating windows counter: %w", err)
	}

	if e.energyTotal, err = meter.Float64Counter(
		"wattline_series_energy_watts",
		metric.WithDescription("Sum of window power values per series"),
		metric.WithUnit("W"),
	); err != nil {
		return nil, fmt.Errorf("creating energy counter: %w", err)
	}

	if e.peakHist, err = meter.Float64Histogram(
		"wattline_series_peak_watts",
		metric.WithDescription("Highest window value per series"),
		metric.WithUnit("W"),
	); err != nil {
		return nil, fmt.Errorf("creating peak histogram: %w", err)
	}

	if e.recordsTotal, err = meter.Int64Counter(
		"wattline_filter_input_records_total",
		metric.WithDescription("Telemetry records offered to the range filter"),
		metric.WithUnit("{record}"),
	); err != nil {
		return nil, fmt.Errorf("creating input records counter: %w", err)
	}

	if e.keptTotal, err = meter.Int64Counter(
		"wattline_filter_kept_records_total",
		metric.WithDescription("Telemetry records kept by the range filter"),
		metric.WithUnit("{record}"),
	); err != nil {
		return nil, fmt.Errorf("creating kept records counter: %w", err)
	}

	if e.outcomesTotal, err = meter.Int64Counter(
		"wattline_filter_outcomes_total",
		metric.WithDescription("Range filter outcomes"),
		metric.WithUnit("{outcome}"),
	); err != nil {
		return nil, fmt.Errorf("creating outcomes counter: %w", err)
	}

	return e, nil
}

// ExportSeriesMetrics records the outcome of building one series.
func (e *Exporter) ExportSeriesMetrics(ctx context.Context, m *ports.SeriesMetrics) error {
	attrs := []attribute.KeyValue{
		attribute.String("load_id", m.LoadID),
		attribute.String("view", m.View),
		attribute.String("series", m.Series),
		attribute.String("source", m.Source),
		attribute.Int64("window_ms", m.WindowSize.Milliseconds()),
	}
	opt := metric.WithAttributes(attrs...)

	e.windowsTotal.Add(ctx, m.Windows, opt)
	e.energyTotal.Add(ctx, m.TotalWatts, opt)
	if m.Windows > 0 {
		e.peakHist.Record(ctx, m.PeakWatts, opt)
	}
	e.recordsTotal.Add(ctx, m.InputRecords, opt)
	e.keptTotal.Add(ctx, m.KeptRecords, opt)

	if m.FilterOutcome != "" {
		e.outcomesTotal.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String("outcome", m.FilterOutcome))...))
	}
	return nil
}

// Close shuts down the exporter and flushes any pending metrics.
func (e *Exporter) Close(ctx context.Context) error {
	return e.provider.Shutdown(ctx)
}
