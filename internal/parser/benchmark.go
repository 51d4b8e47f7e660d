package parser

import (
	"encoding/json"
	"fmt"

	"github.com/emiliopalmerini/wattline/internal/domain"
)

// Mandatory keys of the benchmark results document.
const (
	KeyAPIServerEnergy = "api_server_energy"
	KeyDBServerEnergy  = "db_server_energy"
	KeyExperiments     = "benchmark_results.experiments"
)

// Results is the validated benchmark results document.
type Results struct {
	APIEnergy   []domain.HostInterval
	DBEnergy    []domain.HostInterval
	Experiments map[string]domain.ExperimentRecord
	Order       []string
	// Containers comes from the optional container_info section.
	Containers domain.ContainerIdentity
	// Skipped counts malformed intervals, runs and experiment fields that were dropped.
	Skipped int
}

type rawResults struct {
	APIServerEnergy  json.RawMessage `json:"api_server_energy"`
	DBServerEnergy   json.RawMessage `json:"db_server_energy"`
	BenchmarkResults *struct {
		Experiments json.RawMessage `json:"experiments"`
	} `json:"benchmark_results"`
	ContainerInfo *struct {
		APIContainerID string `json:"api_container_id"`
		DBContainerID  string `json:"db_container_id"`
	} `json:"container_info"`
}

type rawInterval struct {
	Host      *rawHost          `json:"host"`
	Consumers []json.RawMessage `json:"consumers"`
}

type rawHost struct {
	Consumption *float64 `json:"consumption"`
	Timestamp   *float64 `json:"timestamp"`
}

type rawConsumer struct {
	Exe         string   `json:"exe"`
	PID         *int64   `json:"pid"`
	Consumption *float64 `json:"consumption"`
	Timestamp   *float64 `json:"timestamp"`
	Container   *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"container"`
}

type rawExperiment struct {
	Runs               json.RawMessage `json:"runs"`
	DurationSeconds    json.RawMessage `json:"duration_seconds"`
	RequestsPerSecond  json.RawMessage `json:"requests_per_second"`
	PauseBetweenRunsMs json.RawMessage `json:"pause_between_runs_ms"`
	RunsConfigured     json.RawMessage `json:"runs_configured"`
	Connections        json.RawMessage `json:"connections"`
	Probabilities      json.RawMessage `json:"probabilities"`
}

type rawRun struct {
	RunNumber           *float64 `json:"run_number"`
	StartTimestamp      *float64 `json:"start_timestamp"`
	EndTimestamp        *float64 `json:"end_timestamp"`
	ElapsedTimeMs       *float64 `json:"elapsed_time_ms"`
	Timestamp           *float64 `json:"timestamp"`
	Latencies           []struct {
		Timestamp *float64 `json:"timestamp"`
		LatencyNs *float64 `json:"latency_ns"`
	} `json:"latencies"`
	LatencyDistribution *struct {
		MedianNs    *float64           `json:"median_latency_ns"`
		MinNs       *float64           `json:"min_latency_ns"`
		MaxNs       *float64           `json:"max_latency_ns"`
		Percentiles map[string]float64 `json:"percentiles"`
	} `json:"latency_distribution"`
	Throughput         *float64 `json:"throughput"`
	Goodput            *float64 `json:"goodput"`
	TotalRequests      *float64 `json:"total_requests"`
	SuccessfulRequests *float64 `json:"successful_requests"`
}

// ParseResults reads and validates a benchmark results document.
func ParseResults(path string) (*Results, error) {
	data, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	res, err := DecodeResults(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

// DecodeResults validates a benchmark results document. A missing or null
// mandatory key fails the whole document; malformed intervals and runs are
// skipped and counted.
func DecodeResults(data []byte) (*Results, error) {
	var raw rawResults
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, decodeError(err, "results document must be an object")
	}

	var experiments json.RawMessage
	if raw.BenchmarkResults != nil {
		experiments = raw.BenchmarkResults.Experiments
	}
	required := []struct {
		key   string
		value json.RawMessage
	}{
		{KeyAPIServerEnergy, raw.APIServerEnergy},
		{KeyDBServerEnergy, raw.DBServerEnergy},
		{KeyExperiments, experiments},
	}
	for _, r := range required {
		if absent(r.value) {
			return nil, fmt.Errorf("%w: missing required key %q", domain.ErrSchemaViolation, r.key)
		}
	}

	res := &Results{}
	var err error
	if res.APIEnergy, err = decodeIntervals(KeyAPIServerEnergy, raw.APIServerEnergy, &res.Skipped); err != nil {
		return nil, err
	}
	if res.DBEnergy, err = decodeIntervals(KeyDBServerEnergy, raw.DBServerEnergy, &res.Skipped); err != nil {
		return nil, err
	}
	if res.Experiments, res.Order, err = decodeExperiments(experiments, &res.Skipped); err != nil {
		return nil, err
	}
	if raw.ContainerInfo != nil {
		res.Containers = domain.ContainerIdentity{
			APIContainerID: raw.ContainerInfo.APIContainerID,
			DBContainerID:  raw.ContainerInfo.DBContainerID,
		}
	}
	return res, nil
}

func decodeIntervals(key string, raw json.RawMessage, skipped *int) ([]domain.HostInterval, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %q must be an array", domain.ErrSchemaViolation, key)
	}

	intervals := make([]domain.HostInterval, 0, len(items))
	for _, item := range items {
		var ri rawInterval
		if err := json.Unmarshal(item, &ri); err != nil {
			*skipped++
			continue
		}
		iv := domain.HostInterval{Consumers: make([]domain.ConsumerRecord, 0, len(ri.Consumers))}
		if ri.Host != nil {
			iv.Host = &domain.HostReading{Consumption: ri.Host.Consumption, Timestamp: ri.Host.Timestamp}
		}
		for _, rawC := range ri.Consumers {
			var rc rawConsumer
			if err := json.Unmarshal(rawC, &rc); err != nil {
				*skipped++
				continue
			}
			c := domain.ConsumerRecord{Exe: rc.Exe, PID: rc.PID, Consumption: rc.Consumption, Timestamp: rc.Timestamp}
			if rc.Container != nil {
				c.Container = &domain.Container{ID: rc.Container.ID, Name: rc.Container.Name}
			}
			iv.Consumers = append(iv.Consumers, c)
		}
		intervals = append(intervals, iv)
	}
	return intervals, nil
}

func decodeExperiments(raw json.RawMessage, skipped *int) (map[string]domain.ExperimentRecord, []string, error) {
	order, err := objectKeys(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %q must be an object", domain.ErrSchemaViolation, KeyExperiments)
	}
	var byID map[string]json.RawMessage
	if err := json.Unmarshal(raw, &byID); err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", domain.ErrSchemaViolation, KeyExperiments, err)
	}

	experiments := make(map[string]domain.ExperimentRecord, len(byID))
	for _, id := range order {
		experiments[id] = decodeExperiment(id, byID[id], skipped)
	}
	return experiments, order, nil
}

// decodeExperiment keeps every field that decodes and counts the rest as
// skipped. A malformed experiment is kept with no runs.
func decodeExperiment(id string, raw json.RawMessage, skipped *int) domain.ExperimentRecord {
	exp := domain.ExperimentRecord{ID: id}

	var re rawExperiment
	if err := json.Unmarshal(raw, &re); err != nil {
		if !absent(raw) {
			*skipped++
		}
		return exp
	}

	exp.DurationSeconds = optionalFloat(re.DurationSeconds, skipped)
	exp.RequestsPerSecond = optionalFloat(re.RequestsPerSecond, skipped)
	exp.PauseBetweenRunsMs = toInt64(optionalFloat(re.PauseBetweenRunsMs, skipped))
	exp.RunsConfigured = toInt64(optionalFloat(re.RunsConfigured, skipped))
	exp.Connections = toInt64(optionalFloat(re.Connections, skipped))
	if !absent(re.Probabilities) {
		if err := json.Unmarshal(re.Probabilities, &exp.Probabilities); err != nil {
			exp.Probabilities = nil
			*skipped++
		}
	}

	if absent(re.Runs) {
		return exp
	}
	var runs []json.RawMessage
	if err := json.Unmarshal(re.Runs, &runs); err != nil {
		*skipped++
		return exp
	}
	for _, item := range runs {
		run, ok := decodeRun(item)
		if !ok {
			*skipped++
			continue
		}
		exp.Runs = append(exp.Runs, run)
	}
	return exp
}

func optionalFloat(raw json.RawMessage, skipped *int) *float64 {
	if absent(raw) {
		return nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		*skipped++
		return nil
	}
	return &v
}

func decodeRun(item json.RawMessage) (domain.RunRecord, bool) {
	var rr rawRun
	if err := json.Unmarshal(item, &rr); err != nil {
		return domain.RunRecord{}, false
	}

	run := domain.RunRecord{
		RunNumber:          toInt64(rr.RunNumber),
		StartTimestamp:     toInt64(rr.StartTimestamp),
		EndTimestamp:       toInt64(rr.EndTimestamp),
		ElapsedTimeMs:      toInt64(rr.ElapsedTimeMs),
		Timestamp:          toInt64(rr.Timestamp),
		Throughput:         rr.Throughput,
		Goodput:            rr.Goodput,
		TotalRequests:      toInt64(rr.TotalRequests),
		SuccessfulRequests: toInt64(rr.SuccessfulRequests),
	}
	for _, l := range rr.Latencies {
		if l.Timestamp == nil || l.LatencyNs == nil {
			continue
		}
		run.Latencies = append(run.Latencies, domain.LatencySample{
			Timestamp: *toInt64(l.Timestamp),
			LatencyNs: *toInt64(l.LatencyNs),
		})
	}
	if d := rr.LatencyDistribution; d != nil {
		run.LatencyDistribution = &domain.LatencyDistribution{
			MedianNs:    d.MedianNs,
			MinNs:       d.MinNs,
			MaxNs:       d.MaxNs,
			Percentiles: d.Percentiles,
		}
	}
	return run, true
}
