package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/wattline/internal/adapters/logging"
	"github.com/emiliopalmerini/wattline/internal/domain"
)

func newFilter() (RangeFilter, *logging.Recorder) {
	rec := logging.NewRecorder()
	return RangeFilter{Reporter: rec}, rec
}

func TestRangeFilter_Intervals(t *testing.T) {
	series := []domain.HostInterval{
		hostTick(100, 1),
		hostTick(150, 1),
		hostTick(250, 1),
		{Consumers: []domain.ConsumerRecord{consumer("c", "", 50, 1), consumer("c", "", 180, 1)}},
	}

	f, rec := newFilter()
	kept, rep := f.Intervals(series, domain.NewTimeRange(100, 200), Strict, millis)

	require.Len(t, kept, 3)
	assert.Equal(t, series[0], kept[0])
	assert.Equal(t, series[1], kept[1])
	assert.Equal(t, series[3], kept[2], "kept through a consumer timestamp")
	assert.Equal(t, OutcomeFiltered, rep.Outcome)
	assert.Equal(t, 4, rep.Input)
	assert.Equal(t, 3, rep.Kept)
	assert.NoError(t, rep.Err())
	assert.Equal(t, []string{"Filtered energy data: kept 3/4 entries (75.0%)"}, rec.Messages(""))
}

func TestRangeFilter_HostTimestampPreferred(t *testing.T) {
	iv := hostTick(500, 1)
	iv.Consumers = []domain.ConsumerRecord{consumer("c", "", 150, 1)}

	f, _ := newFilter()
	kept, _ := f.Intervals([]domain.HostInterval{iv, hostTick(120, 1)}, domain.NewTimeRange(100, 200), Strict, millis)
	assert.Len(t, kept, 2, "a consumer in range keeps an interval whose host reading is outside")
}

func TestRangeFilter_SecondsSource(t *testing.T) {
	series := []domain.HostInterval{hostTick(1_700_000_000.05, 1), hostTick(1_700_000_001, 1)}
	f, _ := newFilter()
	kept, rep := f.Intervals(series, domain.NewTimeRange(1_700_000_000_000, 1_700_000_000_500), Strict, Normalizer{})
	require.Len(t, kept, 1)
	assert.Equal(t, series[0], kept[0])
	assertRange(t, rep.Extent, 1_700_000_000_050, 1_700_000_001_000)
}

func TestRangeFilter_StrictVersusLenientWithoutBoundary(t *testing.T) {
	series := []domain.HostInterval{hostTick(100, 1), hostTick(200, 1)}
	unresolved := []domain.TimeRange{{}, {Start: i64(100)}, {End: i64(200)}}

	for _, r := range unresolved {
		f, rec := newFilter()
		kept, rep := f.Intervals(series, r, Strict, millis)
		assert.Empty(t, kept)
		assert.Equal(t, OutcomeNoBoundary, rep.Outcome)
		assert.ErrorIs(t, rep.Err(), domain.ErrUnresolvableTimeRange)
		assert.Len(t, rec.Entries(), 1)

		kept, rep = f.Intervals(series, r, Lenient, millis)
		assert.Equal(t, series, kept, "lenient returns the input unchanged")
		assert.True(t, rep.FellBack())
		assert.NoError(t, rep.Err())
	}
}

func TestRangeFilter_ScenarioE(t *testing.T) {
	series := []domain.HostInterval{hostTick(5000, 1), hostTick(6000, 1)}
	r := domain.NewTimeRange(100, 200)

	f, rec := newFilter()
	kept, rep := f.Intervals(series, r, Strict, millis)
	assert.Empty(t, kept)
	assert.Equal(t, OutcomeNoOverlap, rep.Outcome)
	assert.ErrorIs(t, rep.Err(), domain.ErrNoOverlappingTimeRange)
	require.Len(t, rec.Entries(), 1)
	assert.Contains(t, rec.Entries()[0].Message, "No overlap")

	rec.Reset()
	kept, rep = f.Intervals(series, r, Lenient, millis)
	assert.Equal(t, series, kept)
	assert.Equal(t, OutcomeNoOverlap, rep.Outcome)
	require.Len(t, rec.Entries(), 1)
	assert.Contains(t, rec.Entries()[0].Message, "showing all data")
}

func TestRangeFilter_NoneInsideOverlappingExtent(t *testing.T) {
	series := []domain.HostInterval{hostTick(50, 1), hostTick(300, 1)}
	r := domain.NewTimeRange(100, 200)

	f, _ := newFilter()
	kept, rep := f.Intervals(series, r, Strict, millis)
	assert.Empty(t, kept)
	assert.Equal(t, OutcomeNoneInRange, rep.Outcome)
	assert.ErrorIs(t, rep.Err(), domain.ErrNoOverlappingTimeRange)

	kept, _ = f.Intervals(series, r, Lenient, millis)
	assert.Equal(t, series, kept)
}

func TestRangeFilter_NoTimestamps(t *testing.T) {
	series := []domain.HostInterval{{Host: &domain.HostReading{Consumption: f64(1)}}, {}}
	f, rec := newFilter()

	kept, rep := f.Intervals(series, domain.NewTimeRange(100, 200), Strict, millis)
	assert.Empty(t, kept)
	assert.Equal(t, OutcomeNoTimestamps, rep.Outcome)

	kept, _ = f.Intervals(series, domain.NewTimeRange(100, 200), Lenient, millis)
	assert.Equal(t, series, kept)
	assert.True(t, rec.Contains("No timestamp fields"))
}

func TestRangeFilter_EmptyInput(t *testing.T) {
	f, rec := newFilter()
	kept, rep := f.Intervals(nil, domain.NewTimeRange(1, 2), Lenient, millis)
	assert.Empty(t, kept)
	assert.Equal(t, OutcomeEmptyInput, rep.Outcome)
	assert.False(t, rep.FellBack())
	assert.Len(t, rec.Entries(), 1)
}

func TestRangeFilter_MessagesUseLocation(t *testing.T) {
	loc := time.FixedZone("EET", 2*60*60)
	rec := logging.NewRecorder()
	f := RangeFilter{Reporter: rec, Location: loc}

	f.Intervals([]domain.HostInterval{hostTick(10_000, 1)}, domain.NewTimeRange(0, 1000), Strict, millis)
	assert.True(t, rec.Contains("1970-01-01 02:00:00 - 1970-01-01 02:00:01"))
}

func TestRangeFilter_Samples(t *testing.T) {
	samples := []domain.PowerSample{sample("api", 100, 1), sample("api", 150, 2), sample("api", 300, 3)}

	f, _ := newFilter()
	kept, rep := f.Samples(samples, domain.NewTimeRange(100, 200), Strict)
	assert.Equal(t, samples[:2], kept)
	assert.Equal(t, OutcomeFiltered, rep.Outcome)

	kept, rep = f.Samples(samples, domain.NewTimeRange(1000, 2000), Strict)
	assert.Empty(t, kept)
	assert.Equal(t, OutcomeNoOverlap, rep.Outcome)

	kept, _ = f.Samples(samples, domain.NewTimeRange(1000, 2000), Lenient)
	assert.Equal(t, samples, kept)

	kept, _ = f.Samples(samples, domain.TimeRange{}, Strict)
	assert.Empty(t, kept)

	kept, rep = f.Samples([]domain.PowerSample{sample("api", 50, 1), sample("api", 300, 1)}, domain.NewTimeRange(100, 200), Lenient)
	assert.Len(t, kept, 2)
	assert.Equal(t, OutcomeNoneInRange, rep.Outcome)
}
