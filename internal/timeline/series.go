package timeline

import (
	"errors"
	"fmt"
	"strings"

	"k8s.io/klog/v2"

	"github.com/emiliopalmerini/wattline/internal/domain"
	"github.com/emiliopalmerini/wattline/internal/ports"
)

// Source names the document a series reads from.
type Source string

const (
	SourceAPIEnergy   Source = "api_server_energy"
	SourceDBEnergy    Source = "db_server_energy"
	SourcePowerAPIAPI Source = "powerapi_api"
	SourcePowerAPIDB  Source = "powerapi_db"
)

// IsPower reports whether the source holds power samples rather than host intervals.
func (s Source) IsPower() bool {
	return s == SourcePowerAPIAPI || s == SourcePowerAPIDB
}

// Standard series names.
const (
	SeriesAPI         = "api"
	SeriesDB          = "db"
	SeriesHostAPI     = "host-api"
	SeriesHostDB      = "host-db"
	SeriesJava        = "java"
	SeriesPostgres    = "postgres"
	SeriesPowerAPIAPI = "powerapi-api"
	SeriesPowerAPIDB  = "powerapi-db"
)

// ErrNoPowerSamples disables a power series whose dump was not loaded.
var ErrNoPowerSamples = errors.New("no power samples loaded")

// SeriesSpec describes one logical series.
type SeriesSpec struct {
	Name   string
	Source Source
	// Target applies to host-agent sources.
	Target Target
	// PowerTarget applies to power sources. Empty selects automatically.
	PowerTarget string
}

// StandardSeries returns the eight series of the energy views.
func StandardSeries(ids domain.ContainerIdentity, mode domain.MatchMode) []SeriesSpec {
	return []SeriesSpec{
		{Name: SeriesAPI, Source: SourceAPIEnergy, Target: ContainerTarget(ids.APIContainerID, mode)},
		{Name: SeriesDB, Source: SourceDBEnergy, Target: ContainerTarget(ids.DBContainerID, mode)},
		{Name: SeriesHostAPI, Source: SourceAPIEnergy, Target: HostTarget()},
		{Name: SeriesHostDB, Source: SourceDBEnergy, Target: HostTarget()},
		{Name: SeriesJava, Source: SourceAPIEnergy, Target: ProcessTarget("java")},
		{Name: SeriesPostgres, Source: SourceDBEnergy, Target: ProcessTarget("postgres")},
		{Name: SeriesPowerAPIAPI, Source: SourcePowerAPIAPI},
		{Name: SeriesPowerAPIDB, Source: SourcePowerAPIDB},
	}
}

// SelectSeries keeps the specs whose names appear in names, in names order.
// Unknown names are returned separately.
func SelectSeries(specs []SeriesSpec, names []string) ([]SeriesSpec, []string) {
	if len(names) == 0 {
		return specs, nil
	}
	byName := make(map[string]SeriesSpec, len(specs))
	for _, s := range specs {
		byName[s.Name] = s
	}
	var (
		out     []SeriesSpec
		unknown []string
	)
	for _, n := range names {
		s, ok := byName[strings.TrimSpace(n)]
		if !ok {
			unknown = append(unknown, n)
			continue
		}
		out = append(out, s)
	}
	return out, unknown
}

// Accumulation selects how window values are presented.
type Accumulation int

const (
	// AccumulateWindow keeps per-window sums.
	AccumulateWindow Accumulation = iota
	// AccumulateCumulative presents the running total.
	AccumulateCumulative
	// AccumulateConsumed clips to the view range before the running total.
	AccumulateConsumed
)

func (a Accumulation) String() string {
	switch a {
	case AccumulateCumulative:
		return "cumulative"
	case AccumulateConsumed:
		return "consumed"
	default:
		return "window"
	}
}

// ParseAccumulation accepts "window", "cumulative" and "consumed".
func ParseAccumulation(s string) (Accumulation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "window":
		return AccumulateWindow, nil
	case "cumulative", "accumulated":
		return AccumulateCumulative, nil
	case "consumed":
		return AccumulateConsumed, nil
	}
	return AccumulateWindow, fmt.Errorf("unknown accumulation %q (use window, cumulative or consumed)", s)
}

// Series is one built series.
type Series struct {
	Name    string
	Source  Source
	Target  string
	Windows []domain.TimeWindow
	// Summary describes the per-window values before accumulation.
	Summary domain.Summary
	Filter  FilterReport
	Points  int
	// Disabled is set when the series could not be built.
	Disabled error
}

// Builder turns raw documents into window series for a view.
type Builder struct {
	Sources      Sources
	Filter       RangeFilter
	Window       WindowOptions
	Accumulation Accumulation
	Reporter     ports.StatusReporter
}

// BuildAll builds every spec in order.
func (b Builder) BuildAll(ds *domain.Dataset, view View, specs []SeriesSpec) []Series {
	out := make([]Series, 0, len(specs))
	for _, spec := range specs {
		out = append(out, b.Build(ds, view, spec))
	}
	return out
}

// Build filters, matches, normalizes and aggregates one series.
func (b Builder) Build(ds *domain.Dataset, view View, spec SeriesSpec) Series {
	s := Series{Name: spec.Name, Source: spec.Source}

	var (
		points []domain.Point
		err    error
	)
	if spec.Source.IsPower() {
		points, err = b.powerPoints(ds, view, spec, &s)
	} else {
		points, err = b.hostPoints(ds, view, spec, &s)
	}
	if err != nil {
		s.Disabled = err
		b.warn(fmt.Sprintf("Series %s disabled: %v", spec.Name, err))
		return s
	}

	s.Points = len(points)
	windows, err := Aggregate(points, b.Window)
	if err != nil {
		s.Disabled = err
		b.warn(fmt.Sprintf("Series %s disabled: %v", spec.Name, err))
		return s
	}
	s.Summary = Summarize(windows)

	switch b.Accumulation {
	case AccumulateCumulative:
		windows = Cumulative(windows)
	case AccumulateConsumed:
		windows = Cumulative(Clip(windows, view.Range))
	}
	s.Windows = windows

	klog.V(2).InfoS("Built series", "series", s.Name, "view", view.Selector, "points", s.Points, "windows", len(windows))
	return s
}

func (b Builder) hostPoints(ds *domain.Dataset, view View, spec SeriesSpec, s *Series) ([]domain.Point, error) {
	s.Target = spec.Target.String()
	if spec.Target.Kind == TargetContainer && spec.Target.ContainerID == "" {
		return nil, fmt.Errorf("series %s: %w", spec.Name, domain.ErrNoContainerIdentity)
	}

	intervals, n := ds.APIEnergy, b.Sources.API
	if spec.Source == SourceDBEnergy {
		intervals, n = ds.DBEnergy, b.Sources.DB
	}

	filtered, rep := b.Filter.Intervals(intervals, view.Range, view.Policy, n)
	s.Filter = rep
	return HostPoints(filtered, spec.Target, n), nil
}

func (b Builder) powerPoints(ds *domain.Dataset, view View, spec SeriesSpec, s *Series) ([]domain.Point, error) {
	samples, containerID := ds.PowerAPIAPI, ds.Containers.APIContainerID
	if spec.Source == SourcePowerAPIDB {
		samples, containerID = ds.PowerAPIDB, ds.Containers.DBContainerID
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("series %s: %w", spec.Name, ErrNoPowerSamples)
	}

	target := spec.PowerTarget
	if target == "" {
		target = AutoSelectPowerTarget(samples, containerID)
	}
	s.Target = target

	filtered, rep := b.Filter.Samples(SelectPowerTarget(samples, target), view.Range, view.Policy)
	s.Filter = rep
	return PowerPoints(filtered), nil
}

func (b Builder) warn(msg string) {
	if b.Reporter != nil {
		b.Reporter.Warn(msg)
	}
}

// HostPoints extracts normalized points for target in stream order.
// Host targets read the host reading; other targets sum the matching
// consumers of each interval and stamp the sum with the interval's last
// consumer timestamp. Records missing consumption or timestamp are skipped.
func HostPoints(intervals []domain.HostInterval, target Target, n Normalizer) []domain.Point {
	var (
		points []domain.Point
		tally  unitTally
	)
	for _, iv := range intervals {
		if target.Kind == TargetHost {
			if iv.Host == nil || iv.Host.Consumption == nil || iv.Host.Timestamp == nil {
				continue
			}
			ms, inferred := n.epochMillis(*iv.Host.Timestamp)
			tally.add(inferred)
			points = append(points, domain.Point{TS: ms, Value: Watts(*iv.Host.Consumption)})
			continue
		}

		var (
			matched bool
			sum     float64
			stamp   *float64
		)
		for _, c := range iv.Consumers {
			if c.Timestamp != nil {
				stamp = c.Timestamp
			}
			if c.Consumption == nil || c.Timestamp == nil {
				continue
			}
			if target.Matches(c) {
				matched = true
				sum += *c.Consumption
			}
		}
		if !matched || stamp == nil {
			continue
		}
		ms, inferred := n.epochMillis(*stamp)
		tally.add(inferred)
		points = append(points, domain.Point{TS: ms, Value: Watts(sum)})
	}
	if tally.inferred > 0 {
		klog.V(3).InfoS("Inferred timestamp unit from magnitude", "target", target.String(), "records", tally.inferred)
	}
	return points
}

// HostSeries aggregates a host-agent document for one target.
func HostSeries(intervals []domain.HostInterval, target Target, n Normalizer, opts WindowOptions) ([]domain.TimeWindow, error) {
	return Aggregate(HostPoints(intervals, target, n), opts)
}

// PowerTargets lists the distinct target names in first-seen order.
func PowerTargets(samples []domain.PowerSample) []string {
	seen := make(map[string]bool)
	var targets []string
	for _, s := range samples {
		if s.Target == "" || seen[s.Target] {
			continue
		}
		seen[s.Target] = true
		targets = append(targets, s.Target)
	}
	return targets
}

// AutoSelectPowerTarget picks the first target containing containerID,
// else the first target.
func AutoSelectPowerTarget(samples []domain.PowerSample, containerID string) string {
	targets := PowerTargets(samples)
	if len(targets) == 0 {
		return ""
	}
	if containerID != "" {
		for _, t := range targets {
			if strings.Contains(t, containerID) {
				return t
			}
		}
	}
	return targets[0]
}

// SelectPowerTarget keeps the samples of one target.
func SelectPowerTarget(samples []domain.PowerSample, target string) []domain.PowerSample {
	var out []domain.PowerSample
	for _, s := range samples {
		if s.Target == target {
			out = append(out, s)
		}
	}
	return out
}

// PowerPoints sorts samples by time and converts them to points.
func PowerPoints(samples []domain.PowerSample) []domain.Point {
	sorted := sortSamples(samples)
	points := make([]domain.Point, len(sorted))
	for i, s := range sorted {
		points[i] = domain.Point{TS: s.Timestamp.UnixMilli(), Value: s.Power}
	}
	return points
}

// PowerSeries aggregates the samples of one power target.
func PowerSeries(samples []domain.PowerSample, target string, opts WindowOptions) ([]domain.TimeWindow, error) {
	return Aggregate(PowerPoints(SelectPowerTarget(samples, target)), opts)
}
