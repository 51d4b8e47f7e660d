// Package timeline reconciles host-agent energy samples, power samples and
// benchmark runs onto one epoch-millisecond timeline and folds them into
// fixed-width windows.
package timeline

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/emiliopalmerini/wattline/internal/domain"
)

const (
	// millisThreshold separates second-based from millisecond-based raw
	// timestamps when the unit is inferred.
	millisThreshold = 1e10

	microWattsPerWatt = 1_000_000.0
)

// Normalizer converts raw source values onto the common timeline.
// The zero value infers timestamp units from their magnitude.
type Normalizer struct {
	Unit domain.TimestampUnit
}

// NewNormalizer returns a normalizer for a source with the declared unit.
func NewNormalizer(unit domain.TimestampUnit) Normalizer {
	return Normalizer{Unit: unit}
}

// unitFor reports the unit raw is expressed in and whether it was inferred.
func (n Normalizer) unitFor(raw float64) (domain.TimestampUnit, bool) {
	switch n.Unit {
	case domain.UnitSeconds, domain.UnitMilliseconds:
		return n.Unit, false
	}
	if raw > millisThreshold {
		return domain.UnitMilliseconds, true
	}
	return domain.UnitSeconds, true
}

// EpochMillis converts a raw timestamp to epoch milliseconds.
func (n Normalizer) EpochMillis(raw float64) int64 {
	ms, _ := n.epochMillis(raw)
	return ms
}

func (n Normalizer) epochMillis(raw float64) (int64, bool) {
	unit, inferred := n.unitFor(raw)
	if unit == domain.UnitMilliseconds {
		return int64(math.Round(raw)), inferred
	}
	return int64(math.Round(raw * 1000)), inferred
}

// Seconds converts a raw timestamp to fractional epoch seconds.
func (n Normalizer) Seconds(raw float64) float64 {
	if unit, _ := n.unitFor(raw); unit == domain.UnitMilliseconds {
		return raw / 1000
	}
	return raw
}

// Watts converts a host-agent consumption reading from micro-watts.
func Watts(microWatts float64) float64 {
	return microWatts / microWattsPerWatt
}

// unitTally counts how timestamps of one pass were interpreted.
type unitTally struct {
	inferred int
	explicit int
}

func (t *unitTally) add(inferred bool) {
	if inferred {
		t.inferred++
	} else {
		t.explicit++
	}
}

var powerTimestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParsePowerTimestamp parses an ISO-8601 instant from the power dump.
// Values without a zone are taken as UTC.
func ParsePowerTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range powerTimestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
