package timeline

import (
	"fmt"
	"sort"

	"k8s.io/klog/v2"

	"github.com/emiliopalmerini/wattline/internal/domain"
	"github.com/emiliopalmerini/wattline/internal/ports"
)

// Multi-experiment view selectors.
const (
	SelectorAll         = "ALL"
	SelectorAllNoWarmup = "ALL_NO_WARMUP"
	// SelectorAllData is never filtered.
	SelectorAllData = "ALL_DATA"
)

// Step names the rule that produced one side of a resolved range.
type Step int

const (
	StepNone Step = iota
	StepRunStart
	StepRunEnd
	StepElapsed
	StepLegacyTimestamp
	StepTelemetry
	StepAggregate
)

func (s Step) String() string {
	switch s {
	case StepRunStart:
		return "start_timestamp"
	case StepRunEnd:
		return "end_timestamp"
	case StepElapsed:
		return "start+elapsed"
	case StepLegacyTimestamp:
		return "timestamp"
	case StepTelemetry:
		return "telemetry"
	case StepAggregate:
		return "experiments"
	default:
		return "none"
	}
}

// Resolution records which step produced each side of a range.
type Resolution struct {
	Start Step
	End   Step
}

// Sources holds the timestamp normalizers of the two host-agent documents.
type Sources struct {
	API Normalizer
	DB  Normalizer
}

// Resolver derives time ranges for experiments and multi-experiment views.
// It is immutable once constructed.
type Resolver struct {
	experiments map[string]domain.ExperimentRecord
	order       []string
	telemetry   domain.TimeRange
	reporter    ports.StatusReporter
}

// NewResolver indexes the dataset's experiments and computes the telemetry
// extent used as the last-resort fallback.
func NewResolver(ds *domain.Dataset, sources Sources, reporter ports.StatusReporter) *Resolver {
	order := ds.ExperimentIDs()
	if len(order) == 0 {
		for id := range ds.Experiments {
			order = append(order, id)
		}
		sort.Strings(order)
	}
	return &Resolver{
		experiments: ds.Experiments,
		order:       order,
		telemetry:   TelemetryRange(ds, sources),
		reporter:    reporter,
	}
}

// TelemetryRange is the min/max over every host and consumer timestamp of
// both host-agent documents, in epoch milliseconds.
func TelemetryRange(ds *domain.Dataset, sources Sources) domain.TimeRange {
	var (
		found  bool
		lo, hi int64
	)
	visit := func(raw *float64, n Normalizer) {
		if raw == nil {
			return
		}
		ms := n.EpochMillis(*raw)
		if !found || ms < lo {
			lo = ms
		}
		if !found || ms > hi {
			hi = ms
		}
		found = true
	}
	scan := func(intervals []domain.HostInterval, n Normalizer) {
		for _, iv := range intervals {
			if iv.Host != nil {
				visit(iv.Host.Timestamp, n)
			}
			for _, c := range iv.Consumers {
				visit(c.Timestamp, n)
			}
		}
	}
	scan(ds.APIEnergy, sources.API)
	scan(ds.DBEnergy, sources.DB)

	if !found {
		return domain.TimeRange{}
	}
	return domain.NewTimeRange(lo, hi)
}

// Telemetry returns the telemetry extent computed at construction.
func (r *Resolver) Telemetry() domain.TimeRange {
	return r.telemetry
}

// IDs returns experiment ids in document order.
func (r *Resolver) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Resolve resolves an experiment id or one of the view selectors.
func (r *Resolver) Resolve(selector string) (domain.TimeRange, Resolution) {
	switch selector {
	case SelectorAll:
		return r.All()
	case SelectorAllNoWarmup:
		return r.AllNoWarmup()
	case SelectorAllData:
		return domain.TimeRange{}, Resolution{}
	default:
		return r.Experiment(selector)
	}
}

// Experiment resolves the range of a single experiment from its first and
// last runs, falling back through the legacy fields and finally the
// telemetry extent. It returns an unresolved range when nothing applies.
func (r *Resolver) Experiment(id string) (domain.TimeRange, Resolution) {
	exp, ok := r.experiments[id]
	if !ok {
		r.warn(fmt.Sprintf("Experiment %q not found: %v", id, domain.ErrUnknownExperiment))
		return domain.TimeRange{}, Resolution{}
	}
	if len(exp.Runs) == 0 {
		klog.V(2).InfoS("Experiment has no runs", "experiment", id)
		return domain.TimeRange{}, Resolution{}
	}

	first, last := exp.Runs[0], exp.Runs[len(exp.Runs)-1]
	var (
		start, end *int64
		res        Resolution
	)

	if first.StartTimestamp != nil {
		start, res.Start = ptr(*first.StartTimestamp), StepRunStart
	}
	if last.EndTimestamp != nil {
		end, res.End = ptr(*last.EndTimestamp), StepRunEnd
	}
	if end == nil && last.StartTimestamp != nil && last.ElapsedTimeMs != nil {
		end, res.End = ptr(*last.StartTimestamp+*last.ElapsedTimeMs), StepElapsed
	}
	if start == nil && first.Timestamp != nil {
		v := *first.Timestamp
		if first.ElapsedTimeMs != nil {
			v -= *first.ElapsedTimeMs
		}
		start, res.Start = ptr(v), StepLegacyTimestamp
	}
	if end == nil && last.Timestamp != nil {
		end, res.End = ptr(*last.Timestamp), StepLegacyTimestamp
	}

	if (start == nil || end == nil) && r.telemetry.Resolved() {
		if start == nil {
			start, res.Start = ptr(*r.telemetry.Start), StepTelemetry
		}
		if end == nil {
			end, res.End = ptr(*r.telemetry.End), StepTelemetry
		}
		klog.V(2).InfoS("Filled experiment boundary from telemetry", "experiment", id, "start", res.Start, "end", res.End)
	}

	if start == nil || end == nil {
		return domain.TimeRange{}, Resolution{}
	}
	return domain.TimeRange{Start: start, End: end}, res
}

// All spans every experiment. Without any resolvable experiment it falls
// back to the telemetry extent.
func (r *Resolver) All() (domain.TimeRange, Resolution) {
	var (
		found      bool
		start, end int64
	)
	for _, id := range r.order {
		s, e, ok := r.bounds(id)
		if !ok {
			continue
		}
		if !found || s < start {
			start = s
		}
		if !found || e > end {
			end = e
		}
		found = true
	}
	if found {
		return domain.NewTimeRange(start, end), Resolution{Start: StepAggregate, End: StepAggregate}
	}
	if r.telemetry.Resolved() {
		return r.telemetry, Resolution{Start: StepTelemetry, End: StepTelemetry}
	}
	return domain.TimeRange{}, Resolution{}
}

// AllNoWarmup spans the non-warmup experiments, starting no earlier than the
// end of the last warmup.
func (r *Resolver) AllNoWarmup() (domain.TimeRange, Resolution) {
	var (
		warmupEnd           *int64
		mainStart, mainEnd  *int64
		nonWarmupExperiment bool
	)
	for _, id := range r.order {
		warmup := domain.IsWarmupID(id)
		if !warmup {
			nonWarmupExperiment = true
		}
		s, e, ok := r.bounds(id)
		if !ok {
			continue
		}
		if warmup {
			if warmupEnd == nil || e > *warmupEnd {
				warmupEnd = ptr(e)
			}
			continue
		}
		if mainStart == nil || s < *mainStart {
			mainStart = ptr(s)
		}
		if mainEnd == nil || e > *mainEnd {
			mainEnd = ptr(e)
		}
	}

	if !nonWarmupExperiment || mainStart == nil || mainEnd == nil {
		return domain.TimeRange{}, Resolution{}
	}
	start := *mainStart
	if warmupEnd != nil && *warmupEnd > start {
		start = *warmupEnd
	}
	return domain.NewTimeRange(start, *mainEnd), Resolution{Start: StepAggregate, End: StepAggregate}
}

func (r *Resolver) warn(msg string) {
	if r.reporter != nil {
		r.reporter.Warn(msg)
	}
}

func (r *Resolver) bounds(id string) (int64, int64, bool) {
	tr, _ := r.Experiment(id)
	return tr.Bounds()
}

// View is a resolved selection ready for filtering.
type View struct {
	Selector   string
	Range      domain.TimeRange
	Resolution Resolution
	Policy     Policy
}

// View resolves selector and pairs it with its filter policy.
func (r *Resolver) View(selector string) View {
	tr, res := r.Resolve(selector)
	return View{Selector: selector, Range: tr, Resolution: res, Policy: PolicyFor(selector)}
}

// PolicyFor returns lenient for multi-experiment views and strict otherwise.
func PolicyFor(selector string) Policy {
	switch selector {
	case SelectorAll, SelectorAllNoWarmup, SelectorAllData:
		return Lenient
	default:
		return Strict
	}
}

func ptr[T any](v T) *T { return &v }
