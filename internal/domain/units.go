package domain

import (
	"fmt"
	"strings"
)

// TimestampUnit declares how a source encodes its numeric timestamps.
type TimestampUnit int

const (
	// UnitAuto infers the unit from the magnitude of each value.
	UnitAuto TimestampUnit = iota
	UnitSeconds
	UnitMilliseconds
)

func (u TimestampUnit) String() string {
	switch u {
	case UnitSeconds:
		return "seconds"
	case UnitMilliseconds:
		return "milliseconds"
	default:
		return "auto"
	}
}

// ParseTimestampUnit accepts "auto", "s"/"seconds" and "ms"/"milliseconds".
func ParseTimestampUnit(s string) (TimestampUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return UnitAuto, nil
	case "s", "sec", "seconds":
		return UnitSeconds, nil
	case "ms", "millis", "milliseconds":
		return UnitMilliseconds, nil
	}
	return UnitAuto, fmt.Errorf("unknown timestamp unit %q (use auto, seconds or milliseconds)", s)
}

// UnmarshalText lets the unit be read from YAML and environment variables.
func (u *TimestampUnit) UnmarshalText(text []byte) error {
	parsed, err := ParseTimestampUnit(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

func (u TimestampUnit) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// MatchMode selects how a configured container id is compared
// against the id recorded on a consumer.
type MatchMode int

const (
	// MatchPrefix requires the recorded id to start with the configured id.
	MatchPrefix MatchMode = iota
	// MatchContains tolerates short or partial ids recorded by other tools.
	MatchContains
)

func (m MatchMode) String() string {
	if m == MatchContains {
		return "contains"
	}
	return "prefix"
}

// ParseMatchMode accepts "prefix" and "contains".
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "prefix":
		return MatchPrefix, nil
	case "contains", "substring":
		return MatchContains, nil
	}
	return MatchPrefix, fmt.Errorf("unknown match mode %q (use prefix or contains)", s)
}

func (m *MatchMode) UnmarshalText(text []byte) error {
	parsed, err := ParseMatchMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m MatchMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}
