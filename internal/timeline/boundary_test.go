package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/wattline/internal/adapters/logging"
	"github.com/emiliopalmerini/wattline/internal/domain"
)

func resolver(ds *domain.Dataset) (*Resolver, *logging.Recorder) {
	rec := logging.NewRecorder()
	return NewResolver(ds, Sources{API: millis, DB: millis}, rec), rec
}

func assertRange(t *testing.T, tr domain.TimeRange, start, end int64) {
	t.Helper()
	s, e, ok := tr.Bounds()
	require.True(t, ok, "expected resolved range, got %s", tr)
	assert.Equal(t, start, s, "start")
	assert.Equal(t, end, e, "end")
}

func TestResolver_Experiment(t *testing.T) {
	tests := []struct {
		name       string
		runs       []domain.RunRecord
		start, end int64
		resolution Resolution
	}{
		{
			name:       "start and end timestamps",
			runs:       []domain.RunRecord{run(withStart(100), withEnd(200))},
			start:      100,
			end:        200,
			resolution: Resolution{StepRunStart, StepRunEnd},
		},
		{
			name:       "start plus elapsed",
			runs:       []domain.RunRecord{run(withStart(100), withElapsed(50))},
			start:      100,
			end:        150,
			resolution: Resolution{StepRunStart, StepElapsed},
		},
		{
			name:       "first and last run",
			runs:       []domain.RunRecord{run(withStart(100), withEnd(150)), run(withStart(160), withEnd(300))},
			start:      100,
			end:        300,
			resolution: Resolution{StepRunStart, StepRunEnd},
		},
		{
			name:       "legacy timestamp minus elapsed",
			runs:       []domain.RunRecord{run(withTS(500), withElapsed(200))},
			start:      300,
			end:        500,
			resolution: Resolution{StepLegacyTimestamp, StepLegacyTimestamp},
		},
		{
			name:       "legacy timestamp without elapsed",
			runs:       []domain.RunRecord{run(withTS(500)), run(withTS(900))},
			start:      500,
			end:        900,
			resolution: Resolution{StepLegacyTimestamp, StepLegacyTimestamp},
		},
		{
			name:       "end from legacy timestamp of last run",
			runs:       []domain.RunRecord{run(withStart(100)), run(withTS(700))},
			start:      100,
			end:        700,
			resolution: Resolution{StepRunStart, StepLegacyTimestamp},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := resolver(dataset(experiment("exp1", tt.runs...)))
			tr, res := r.Experiment("exp1")
			assertRange(t, tr, tt.start, tt.end)
			assert.Equal(t, tt.resolution, res)
		})
	}
}

func TestResolver_ScenarioB(t *testing.T) {
	r, _ := resolver(dataset(experiment("exp1", run(withStart(100), withEnd(200)))))
	tr, _ := r.Resolve("exp1")
	assertRange(t, tr, 100, 200)
}

func TestResolver_ScenarioC(t *testing.T) {
	r, _ := resolver(dataset(experiment("exp1", run(withStart(100), withElapsed(50)))))
	tr, _ := r.Resolve("exp1")
	assertRange(t, tr, 100, 150)
}

func TestResolver_ScenarioD(t *testing.T) {
	r, _ := resolver(dataset(
		experiment("warmup-1", run(withStart(0), withEnd(500))),
		experiment("main", run(withStart(600), withEnd(900))),
	))
	tr, res := r.Resolve(SelectorAllNoWarmup)
	assertRange(t, tr, 600, 900)
	assert.Equal(t, Resolution{StepAggregate, StepAggregate}, res)
}

func TestResolver_FallbackMonotonicity(t *testing.T) {
	t.Run("explicit end wins over elapsed", func(t *testing.T) {
		r, _ := resolver(dataset(experiment("exp1", run(withStart(100), withEnd(200), withElapsed(999)))))
		tr, res := r.Experiment("exp1")
		assertRange(t, tr, 100, 200)
		assert.Equal(t, StepRunEnd, res.End)
	})

	t.Run("explicit end wins over legacy timestamp", func(t *testing.T) {
		r, _ := resolver(dataset(experiment("exp1", run(withStart(100), withEnd(200), withTS(5000)))))
		tr, _ := r.Experiment("exp1")
		assertRange(t, tr, 100, 200)
	})

	t.Run("elapsed wins over legacy timestamp", func(t *testing.T) {
		r, _ := resolver(dataset(experiment("exp1", run(withStart(100), withElapsed(50), withTS(5000)))))
		tr, res := r.Experiment("exp1")
		assertRange(t, tr, 100, 150)
		assert.Equal(t, StepElapsed, res.End)
	})

	t.Run("explicit start wins over legacy timestamp", func(t *testing.T) {
		r, _ := resolver(dataset(experiment("exp1", run(withStart(100), withTS(5000), withElapsed(10)))))
		tr, res := r.Experiment("exp1")
		assertRange(t, tr, 100, 110)
		assert.Equal(t, StepRunStart, res.Start)
	})

	t.Run("run fields win over telemetry", func(t *testing.T) {
		ds := dataset(experiment("exp1", run(withStart(100), withEnd(200))))
		ds.APIEnergy = []domain.HostInterval{hostTick(10, 1), hostTick(90_000, 1)}
		r, _ := resolver(ds)
		tr, _ := r.Experiment("exp1")
		assertRange(t, tr, 100, 200)
	})

	t.Run("adding a field never loses resolution", func(t *testing.T) {
		base := []func(*domain.RunRecord){withStart(100), withElapsed(50)}
		extras := []func(*domain.RunRecord){withEnd(300), withTS(400)}
		for _, extra := range extras {
			r, _ := resolver(dataset(experiment("exp1", run(append(base, extra)...))))
			tr, _ := r.Experiment("exp1")
			assert.True(t, tr.Resolved())
		}
	})
}

func TestResolver_TelemetryFallback(t *testing.T) {
	ds := dataset(
		experiment("no-end", run(withStart(1500))),
		experiment("nothing", run()),
	)
	ds.APIEnergy = []domain.HostInterval{
		hostTick(1000, 1),
		{Consumers: []domain.ConsumerRecord{consumer("c", "", 4000, 1)}},
	}
	ds.DBEnergy = []domain.HostInterval{hostTick(2500, 1)}
	r, _ := resolver(ds)

	assertRange(t, r.Telemetry(), 1000, 4000)

	tr, res := r.Experiment("no-end")
	assertRange(t, tr, 1500, 4000)
	assert.Equal(t, Resolution{StepRunStart, StepTelemetry}, res)

	tr, res = r.Experiment("nothing")
	assertRange(t, tr, 1000, 4000)
	assert.Equal(t, Resolution{StepTelemetry, StepTelemetry}, res)
}

// Only the missing side comes from the telemetry extent. A side resolved from
// run data is never widened to the telemetry min or max.
func TestResolver_TelemetryFillsOnlyMissingSide(t *testing.T) {
	ds := dataset(
		experiment("start-only", run(withStart(2000))),
		experiment("end-only", run(withEnd(3000))),
	)
	ds.APIEnergy = []domain.HostInterval{hostTick(1000, 1), hostTick(5000, 1)}
	r, _ := resolver(ds)

	tr, res := r.Experiment("start-only")
	assertRange(t, tr, 2000, 5000)
	assert.Equal(t, Resolution{StepRunStart, StepTelemetry}, res)

	tr, res = r.Experiment("end-only")
	assertRange(t, tr, 1000, 3000)
	assert.Equal(t, Resolution{StepTelemetry, StepRunEnd}, res)
}

func TestResolver_NilReporter(t *testing.T) {
	r := NewResolver(dataset(experiment("exp1", run(withStart(1), withEnd(2)))), Sources{API: millis, DB: millis}, nil)

	assert.NotPanics(t, func() {
		tr, _ := r.Experiment("missing")
		assert.False(t, tr.Resolved())
	})
}

func TestResolver_TelemetryUsesSourceUnits(t *testing.T) {
	ds := dataset()
	ds.APIEnergy = []domain.HostInterval{hostTick(1_700_000_000, 1)}
	ds.DBEnergy = []domain.HostInterval{hostTick(1_700_000_005_000, 1)}

	r := NewResolver(ds, Sources{}, logging.Discard{})
	assertRange(t, r.Telemetry(), 1_700_000_000_000, 1_700_000_005_000)
}

func TestResolver_Unresolved(t *testing.T) {
	r, rec := resolver(dataset(
		experiment("empty"),
		experiment("partial", run(withStart(100))),
	))

	tr, res := r.Experiment("empty")
	assert.False(t, tr.Resolved())
	assert.Equal(t, Resolution{}, res)

	tr, _ = r.Experiment("partial")
	assert.Nil(t, tr.Start, "a half resolved range collapses to unresolved")
	assert.Nil(t, tr.End)

	tr, _ = r.Experiment("missing")
	assert.False(t, tr.Resolved())
	assert.True(t, rec.Contains(`"missing" not found`))
}

func TestResolver_All(t *testing.T) {
	r, _ := resolver(dataset(
		experiment("b", run(withStart(600), withEnd(900))),
		experiment("a", run(withStart(100), withEnd(200))),
		experiment("broken"),
	))
	tr, res := r.Resolve(SelectorAll)
	assertRange(t, tr, 100, 900)
	assert.Equal(t, Resolution{StepAggregate, StepAggregate}, res)
}

func TestResolver_AllFallsBackToTelemetry(t *testing.T) {
	ds := dataset(experiment("broken"))
	ds.APIEnergy = []domain.HostInterval{hostTick(10, 1), hostTick(20, 1)}
	r, _ := resolver(ds)

	tr, res := r.Resolve(SelectorAll)
	assertRange(t, tr, 10, 20)
	assert.Equal(t, Resolution{StepTelemetry, StepTelemetry}, res)

	empty, _ := resolver(dataset())
	tr, _ = empty.Resolve(SelectorAll)
	assert.False(t, tr.Resolved())
}

func TestResolver_AllNoWarmup(t *testing.T) {
	tests := []struct {
		name       string
		exps       []domain.ExperimentRecord
		resolved   bool
		start, end int64
	}{
		{
			name: "no warmups",
			exps: []domain.ExperimentRecord{
				experiment("a", run(withStart(100), withEnd(200))),
				experiment("b", run(withStart(300), withEnd(400))),
			},
			resolved: true, start: 100, end: 400,
		},
		{
			name: "warmup overlapping main start",
			exps: []domain.ExperimentRecord{
				experiment("WarmUp", run(withStart(0), withEnd(700))),
				experiment("main", run(withStart(600), withEnd(900))),
			},
			resolved: true, start: 700, end: 900,
		},
		{
			name: "latest of several warmups",
			exps: []domain.ExperimentRecord{
				experiment("warmup-1", run(withStart(0), withEnd(200))),
				experiment("warmup-2", run(withStart(250), withEnd(450))),
				experiment("main", run(withStart(500), withEnd(900))),
			},
			resolved: true, start: 500, end: 900,
		},
		{
			name: "only warmups",
			exps: []domain.ExperimentRecord{
				experiment("warmup", run(withStart(0), withEnd(200))),
			},
		},
		{
			name: "non-warmup without bounds",
			exps: []domain.ExperimentRecord{
				experiment("warmup", run(withStart(0), withEnd(200))),
				experiment("main"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := resolver(dataset(tt.exps...))
			tr, _ := r.Resolve(SelectorAllNoWarmup)
			if !tt.resolved {
				assert.False(t, tr.Resolved())
				return
			}
			assertRange(t, tr, tt.start, tt.end)
		})
	}
}

func TestResolver_AllDataIsNeverResolved(t *testing.T) {
	r, _ := resolver(dataset(experiment("a", run(withStart(100), withEnd(200)))))
	v := r.View(SelectorAllData)
	assert.False(t, v.Range.Resolved())
	assert.Equal(t, Lenient, v.Policy)
}

func TestPolicyFor(t *testing.T) {
	assert.Equal(t, Lenient, PolicyFor(SelectorAll))
	assert.Equal(t, Lenient, PolicyFor(SelectorAllNoWarmup))
	assert.Equal(t, Lenient, PolicyFor(SelectorAllData))
	assert.Equal(t, Strict, PolicyFor("exp1"))
}
