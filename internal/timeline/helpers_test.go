package timeline

import (
	"time"

	"github.com/emiliopalmerini/wattline/internal/domain"
)

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }

// hostTick builds an interval with only a host reading.
func hostTick(ts, microWatts float64) domain.HostInterval {
	return domain.HostInterval{Host: &domain.HostReading{Consumption: f64(microWatts), Timestamp: f64(ts)}}
}

func consumer(containerID, exe string, ts, microWatts float64) domain.ConsumerRecord {
	c := domain.ConsumerRecord{Exe: exe, Consumption: f64(microWatts), Timestamp: f64(ts)}
	if containerID != "" {
		c.Container = &domain.Container{ID: containerID}
	}
	return c
}

func sample(target string, ms int64, watts float64) domain.PowerSample {
	return domain.PowerSample{Timestamp: time.UnixMilli(ms).UTC(), Power: watts, Target: target}
}

func run(fields ...func(*domain.RunRecord)) domain.RunRecord {
	var r domain.RunRecord
	for _, f := range fields {
		f(&r)
	}
	return r
}

func withStart(v int64) func(*domain.RunRecord)   { return func(r *domain.RunRecord) { r.StartTimestamp = i64(v) } }
func withEnd(v int64) func(*domain.RunRecord)     { return func(r *domain.RunRecord) { r.EndTimestamp = i64(v) } }
func withElapsed(v int64) func(*domain.RunRecord) { return func(r *domain.RunRecord) { r.ElapsedTimeMs = i64(v) } }
func withTS(v int64) func(*domain.RunRecord)      { return func(r *domain.RunRecord) { r.Timestamp = i64(v) } }

func dataset(exps ...domain.ExperimentRecord) *domain.Dataset {
	ds := &domain.Dataset{Experiments: make(map[string]domain.ExperimentRecord)}
	for _, e := range exps {
		ds.Experiments[e.ID] = e
		ds.ExperimentOrder = append(ds.ExperimentOrder, e.ID)
	}
	return ds
}

func experiment(id string, runs ...domain.RunRecord) domain.ExperimentRecord {
	return domain.ExperimentRecord{ID: id, Runs: runs}
}

func windowValues(ws []domain.TimeWindow) [][2]float64 {
	out := make([][2]float64, len(ws))
	for i, w := range ws {
		out[i] = [2]float64{float64(w.Start), w.Value}
	}
	return out
}

var millis = Normalizer{Unit: domain.UnitMilliseconds}
