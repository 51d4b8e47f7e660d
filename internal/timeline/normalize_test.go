package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/wattline/internal/domain"
)

func TestNormalizer_EpochMillis(t *testing.T) {
	tests := []struct {
		name     string
		unit     domain.TimestampUnit
		raw      float64
		expected int64
	}{
		{"auto seconds", domain.UnitAuto, 1_700_000_000, 1_700_000_000_000},
		{"auto fractional seconds", domain.UnitAuto, 1_700_000_000.25, 1_700_000_000_250},
		{"auto milliseconds", domain.UnitAuto, 1_700_000_000_123, 1_700_000_000_123},
		{"auto at threshold is seconds", domain.UnitAuto, 1e10, 1e13},
		{"auto small value is seconds", domain.UnitAuto, 1000, 1_000_000},
		{"explicit seconds above threshold", domain.UnitSeconds, 2e10, 2e13},
		{"explicit milliseconds below threshold", domain.UnitMilliseconds, 1050, 1050},
		{"rounds to nearest millisecond", domain.UnitAuto, 1.005, 1005},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NewNormalizer(tt.unit).EpochMillis(tt.raw))
		})
	}
}

func TestNormalizer_InferenceIsReported(t *testing.T) {
	_, inferred := Normalizer{}.epochMillis(1000)
	assert.True(t, inferred)

	_, inferred = millis.epochMillis(1000)
	assert.False(t, inferred)
}

func TestNormalizer_Seconds(t *testing.T) {
	assert.InDelta(t, 1_700_000_000.5, Normalizer{}.Seconds(1_700_000_000_500), 1e-6)
	assert.InDelta(t, 1_700_000_000.5, Normalizer{}.Seconds(1_700_000_000.5), 1e-6)
	assert.InDelta(t, 1.05, millis.Seconds(1050), 1e-9)
}

func TestWatts(t *testing.T) {
	assert.Equal(t, 2.0, Watts(2_000_000))
	assert.Equal(t, 0.0, Watts(0))
	assert.InDelta(t, 0.000001, Watts(1), 1e-12)
}

func TestParsePowerTimestamp(t *testing.T) {
	want := time.Date(2024, 3, 1, 12, 30, 15, 250_000_000, time.UTC)
	tests := []struct {
		name string
		in   string
	}{
		{"zulu with fraction", "2024-03-01T12:30:15.250Z"},
		{"offset", "2024-03-01T14:30:15.25+02:00"},
		{"offset without colon", "2024-03-01T14:30:15.25+0200"},
		{"zero offset without colon", "2024-03-01T12:30:15.250+0000"},
		{"no zone", "2024-03-01T12:30:15.250"},
		{"space separator", "2024-03-01 12:30:15.25"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePowerTimestamp(tt.in)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %v", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}

	_, err := ParsePowerTimestamp("yesterday")
	assert.Error(t, err)
}
