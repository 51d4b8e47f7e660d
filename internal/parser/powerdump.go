package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/emiliopalmerini/wattline/internal/domain"
	"github.com/emiliopalmerini/wattline/internal/timeline"
)

// maxReportedEntries caps how many bad entry indices an error names.
const maxReportedEntries = 5

var powerRequiredFields = []string{"timestamp", "power", "target"}

type rawPowerEntry struct {
	Timestamp *mongoDate `json:"timestamp"`
	Power     *float64   `json:"power"`
	Target    *string    `json:"target"`
}

// mongoDate accepts the extended-JSON date forms written by mongoexport:
// {"$date": "<ISO-8601>"}, {"$date": <epoch ms>}, {"$date": {"$numberLong": "<epoch ms>"}}
// and a bare ISO-8601 string.
type mongoDate struct {
	time.Time
}

func (d *mongoDate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return d.parseISO(s)
	}

	var wrapper struct {
		Date json.RawMessage `json:"$date"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return err
	}
	if absent(wrapper.Date) {
		return fmt.Errorf("missing $date")
	}

	var s string
	if err := json.Unmarshal(wrapper.Date, &s); err == nil {
		return d.parseISO(s)
	}
	var ms float64
	if err := json.Unmarshal(wrapper.Date, &ms); err == nil {
		d.Time = time.UnixMilli(int64(ms)).UTC()
		return nil
	}
	var long struct {
		NumberLong string `json:"$numberLong"`
	}
	if err := json.Unmarshal(wrapper.Date, &long); err == nil && long.NumberLong != "" {
		v, err := strconv.ParseInt(long.NumberLong, 10, 64)
		if err != nil {
			return err
		}
		d.Time = time.UnixMilli(v).UTC()
		return nil
	}
	return fmt.Errorf("unsupported $date value %s", wrapper.Date)
}

func (d *mongoDate) parseISO(s string) error {
	t, err := timeline.ParsePowerTimestamp(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ParsePowerDump reads and validates a power sample export.
func ParsePowerDump(path string) ([]domain.PowerSample, error) {
	data, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	samples, err := DecodePowerDump(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return samples, nil
}

// DecodePowerDump validates every entry. Any entry lacking a required field
// fails the whole dump.
func DecodePowerDump(data []byte) ([]domain.PowerSample, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, decodeError(err, "expected a list of energy measurements")
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no data found in the file", domain.ErrEmptyFile)
	}

	var (
		samples = make([]domain.PowerSample, 0, len(items))
		invalid []int
	)
	for i, item := range items {
		var e rawPowerEntry
		if err := json.Unmarshal(item, &e); err != nil || e.Timestamp == nil || e.Power == nil || e.Target == nil {
			invalid = append(invalid, i)
			continue
		}
		samples = append(samples, domain.PowerSample{Timestamp: e.Timestamp.Time, Power: *e.Power, Target: *e.Target})
	}
	if len(invalid) > 0 {
		shown := invalid
		if len(shown) > maxReportedEntries {
			shown = shown[:maxReportedEntries]
		}
		return nil, fmt.Errorf("%w: missing required fields in entries %v (%d invalid); each entry must contain: %s",
			domain.ErrSchemaViolation, shown, len(invalid), strings.Join(powerRequiredFields, ", "))
	}
	if len(timeline.PowerTargets(samples)) == 0 {
		return nil, fmt.Errorf("%w: no target services found", domain.ErrSchemaViolation)
	}
	return samples, nil
}
