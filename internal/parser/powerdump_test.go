package parser

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/wattline/internal/domain"
)

func TestParsePowerDump_Fixture(t *testing.T) {
	samples, err := ParsePowerDump(filepath.Join("testdata", "powerapi_api.json"))
	require.NoError(t, err)
	require.Len(t, samples, 4)

	assert.Equal(t, "rapl", samples[0].Target)
	assert.Equal(t, int64(1_700_000_000_050), samples[0].Timestamp.UnixMilli())
	assert.Equal(t, time.UTC, samples[0].Timestamp.Location())
	assert.Equal(t, 2.25, samples[1].Power)
	assert.Equal(t, int64(1_700_000_000_000), samples[1].Timestamp.UnixMilli())
	assert.Equal(t, int64(1_700_000_000_100), samples[2].Timestamp.UnixMilli())
	assert.Equal(t, int64(1_700_000_000_200), samples[3].Timestamp.UnixMilli())
}

func TestDecodePowerDump_Errors(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		wantErr  error
		contains string
	}{
		{"empty array", `[]`, domain.ErrEmptyFile, "no data found"},
		{"not an array", `{"power": 1}`, domain.ErrSchemaViolation, "list of energy measurements"},
		{"invalid json", `[{"power": `, domain.ErrMalformedDocument, ""},
		{
			"missing fields",
			`[{"timestamp": {"$date": "2024-01-01T00:00:00Z"}, "power": 1, "target": "a"},
			  {"power": 1, "target": "a"},
			  {"timestamp": {"$date": "2024-01-01T00:00:00Z"}, "target": "a"},
			  {"timestamp": {"$date": "2024-01-01T00:00:00Z"}, "power": 1}]`,
			domain.ErrSchemaViolation,
			"entries [1 2 3]",
		},
		{
			"bad date counts as missing",
			`[{"timestamp": {"$date": "not a date"}, "power": 1, "target": "a"}]`,
			domain.ErrSchemaViolation,
			"entries [0]",
		},
		{
			"only first five indices named",
			`[{}, {}, {}, {}, {}, {}, {}]`,
			domain.ErrSchemaViolation,
			"entries [0 1 2 3 4] (7 invalid)",
		},
		{
			"no targets",
			`[{"timestamp": {"$date": "2024-01-01T00:00:00Z"}, "power": 1, "target": ""}]`,
			domain.ErrSchemaViolation,
			"no target services",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples, err := DecodePowerDump([]byte(tt.doc))
			assert.Nil(t, samples)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}

func TestMongoDate_BareString(t *testing.T) {
	samples, err := DecodePowerDump([]byte(`[{"timestamp": "2024-01-01T00:00:00.5Z", "power": 1, "target": "a"}]`))
	require.NoError(t, err)
	want := time.Date(2024, 1, 1, 0, 0, 0, 500_000_000, time.UTC)
	assert.True(t, want.Equal(samples[0].Timestamp), "got %v", samples[0].Timestamp)
}
