package domain

import "errors"

// Error taxonomy. Callers wrap these with context and test them with errors.Is.
var (
	ErrFileNotFound           = errors.New("file not found")
	ErrEmptyFile              = errors.New("file is empty")
	ErrMalformedDocument      = errors.New("malformed document")
	ErrSchemaViolation        = errors.New("schema violation")
	ErrNoContainerIdentity    = errors.New("no container identity")
	ErrNoOverlappingTimeRange = errors.New("no overlapping time range")
	ErrUnresolvableTimeRange  = errors.New("unresolvable time range")
	ErrInvalidWindowSize      = errors.New("invalid window size")
	ErrLoadInProgress         = errors.New("load already in progress")
	ErrUnknownExperiment      = errors.New("unknown experiment")
)
