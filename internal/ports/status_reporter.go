package ports

// StatusReporter receives the human-readable status lines the engine emits
// for every filter outcome, degradation and load step. Messages never
// influence control flow.
type StatusReporter interface {
	Status(message string)
	Warn(message string)
	Error(message string)
}
