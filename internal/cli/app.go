package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/emiliopalmerini/wattline/internal/adapters/logging"
	"github.com/emiliopalmerini/wattline/internal/adapters/otel"
	"github.com/emiliopalmerini/wattline/internal/config"
	"github.com/emiliopalmerini/wattline/internal/domain"
	"github.com/emiliopalmerini/wattline/internal/loader"
	"github.com/emiliopalmerini/wattline/internal/ports"
	"github.com/emiliopalmerini/wattline/internal/timeline"
)

// AppContext holds all shared dependencies for CLI commands.
type AppContext struct {
	Analysis config.Analysis
	Dataset  *domain.Dataset
	Resolver *timeline.Resolver
	Reporter ports.StatusReporter
	Exporter ports.MetricsExporter
}

// NewAppContext resolves the configuration and loads the input documents.
func NewAppContext(cmd *cobra.Command) (*AppContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if resultsPath == "" {
		return nil, fmt.Errorf("--results is required")
	}

	reporter := logging.NewKlogReporter("")
	analysis, err := config.Load(configPath, flagSettings(cmd), reporter)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	ds, err := loader.New(reporter).Load(ctx, loader.Request{
		ResultsPath:     resultsPath,
		MetadataPath:    metadataPath,
		PowerAPIAPIPath: powerAPIAPIPath,
		PowerAPIDBPath:  powerAPIDBPath,
	})
	if err != nil {
		return nil, err
	}

	bound := reporter.WithLoadID(ds.LoadID)
	return &AppContext{
		Analysis: analysis,
		Dataset:  ds,
		Resolver: timeline.NewResolver(ds, analysis.Sources, bound),
		Reporter: bound,
		Exporter: newMetricsExporter(ctx),
	}, nil
}

// newMetricsExporter falls back to a no-op exporter when OTEL is not configured.
func newMetricsExporter(ctx context.Context) ports.MetricsExporter {
	cfg, err := otel.LoadConfig()
	if err != nil {
		klog.Warningf("Ignoring OTEL configuration: %v", err)
		return otel.NewNoOpExporter()
	}
	if !cfg.Enabled {
		return otel.NewNoOpExporter()
	}
	exp, err := otel.NewExporter(ctx, cfg)
	if err != nil {
		klog.Warningf("OTEL exporter unavailable: %v", err)
		return otel.NewNoOpExporter()
	}
	return exp
}

// Builder returns a series builder bound to the resolved analysis.
func (a *AppContext) Builder() timeline.Builder {
	return timeline.Builder{
		Sources:      a.Analysis.Sources,
		Filter:       timeline.RangeFilter{Reporter: a.Reporter, Location: a.Analysis.Location},
		Window:       a.Analysis.Window,
		Accumulation: a.Analysis.Accumulation,
		Reporter:     a.Reporter,
	}
}

// SeriesSpecs returns the configured series. Without an explicit selection,
// power series are only included when their dump was loaded.
func (a *AppContext) SeriesSpecs() ([]timeline.SeriesSpec, error) {
	specs := timeline.StandardSeries(a.Dataset.Containers, a.Analysis.MatchMode)
	if len(a.Analysis.Series) == 0 {
		out := specs[:0]
		for _, s := range specs {
			if s.Source == timeline.SourcePowerAPIAPI && len(a.Dataset.PowerAPIAPI) == 0 {
				continue
			}
			if s.Source == timeline.SourcePowerAPIDB && len(a.Dataset.PowerAPIDB) == 0 {
				continue
			}
			out = append(out, s)
		}
		return out, nil
	}

	selected, unknown := timeline.SelectSeries(specs, a.Analysis.Series)
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown series: %s", strings.Join(unknown, ", "))
	}
	return selected, nil
}

// ExportSeries pushes the metrics of built series to the configured exporter.
func (a *AppContext) ExportSeries(ctx context.Context, view timeline.View, series []timeline.Series) {
	for _, s := range series {
		if s.Disabled != nil {
			continue
		}
		if err := a.Exporter.ExportSeriesMetrics(ctx, seriesMetrics(a, view, s)); err != nil {
			klog.ErrorS(err, "Failed to export series metrics", "series", s.Name)
		}
	}
}

// Close releases all resources held by the AppContext.
func (a *AppContext) Close(ctx context.Context) error {
	if a.Exporter != nil {
		return a.Exporter.Close(ctx)
	}
	return nil
}

func seriesMetrics(a *AppContext, view timeline.View, s timeline.Series) *ports.SeriesMetrics {
	m := &ports.SeriesMetrics{
		LoadID:        a.Dataset.LoadID,
		View:          view.Selector,
		Series:        s.Name,
		Source:        string(s.Source),
		WindowSize:    time.Duration(a.Analysis.Window.SizeMs) * time.Millisecond,
		Windows:       int64(s.Summary.Windows),
		TotalWatts:    s.Summary.Total,
		PeakWatts:     s.Summary.Max,
		InputRecords:  int64(s.Filter.Input),
		KeptRecords:   int64(s.Filter.Kept),
		FilterOutcome: s.Filter.Outcome.String(),
	}
	if start, end, ok := view.Range.Bounds(); ok {
		st, en := time.UnixMilli(start).UTC(), time.UnixMilli(end).UTC()
		m.RangeStart, m.RangeEnd = &st, &en
	}
	return m
}

// flagSettings collects the configuration layer set on the command line.
func flagSettings(cmd *cobra.Command) config.Settings {
	s := config.Settings{
		Window:       windowFlag,
		Match:        matchFlag,
		Accumulation: accumulateFlag,
		Timezone:     timezoneFlag,
		Series:       splitList(seriesFlag),
	}
	if cmd.Flags().Changed("suppress-zero") {
		s.SuppressZero = &suppressZero
	}
	return s
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// View resolves selector, rejecting experiment ids absent from the dataset.
func (a *AppContext) View(selector string) (timeline.View, error) {
	switch selector {
	case timeline.SelectorAll, timeline.SelectorAllNoWarmup, timeline.SelectorAllData:
	default:
		if _, ok := a.Dataset.Experiment(selector); !ok {
			return timeline.View{}, fmt.Errorf("%w: %s", domain.ErrUnknownExperiment, selector)
		}
	}
	return a.Resolver.View(selector), nil
}

// BuildView builds the configured series for selector and exports their metrics.
func (a *AppContext) BuildView(ctx context.Context, selector string) (timeline.View, []timeline.Series, error) {
	view, err := a.View(selector)
	if err != nil {
		return view, nil, err
	}
	specs, err := a.SeriesSpecs()
	if err != nil {
		return view, nil, err
	}
	series := a.Builder().BuildAll(a.Dataset, view, specs)
	a.ExportSeries(ctx, view, series)
	return view, series, nil
}
