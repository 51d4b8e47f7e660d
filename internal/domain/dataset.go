package domain

// ContainerIdentity holds the container ids the benchmark ran in.
type ContainerIdentity struct {
	APIContainerID string
	DBContainerID  string
}

// Degradation records an optional feature that was disabled during load.
type Degradation struct {
	Feature string
	Reason  string
	Err     error
}

// Dataset is everything loaded for one analysis session.
// It is read-only once handed to the engine.
type Dataset struct {
	LoadID      string
	ResultsPath string

	APIEnergy []HostInterval
	DBEnergy  []HostInterval

	Experiments     map[string]ExperimentRecord
	ExperimentOrder []string

	Containers ContainerIdentity

	PowerAPIAPI []PowerSample
	PowerAPIDB  []PowerSample

	Degradations []Degradation
	// SkippedRecords counts malformed intervals and runs dropped while decoding.
	SkippedRecords int
}

// Experiment returns the experiment with the given id.
func (d *Dataset) Experiment(id string) (ExperimentRecord, bool) {
	exp, ok := d.Experiments[id]
	return exp, ok
}

// ExperimentIDs returns ids in document order.
func (d *Dataset) ExperimentIDs() []string {
	out := make([]string, len(d.ExperimentOrder))
	copy(out, d.ExperimentOrder)
	return out
}

// Degrade records that feature is unavailable.
func (d *Dataset) Degrade(feature, reason string, err error) {
	d.Degradations = append(d.Degradations, Degradation{Feature: feature, Reason: reason, Err: err})
}
