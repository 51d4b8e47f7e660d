package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/wattline/internal/domain"
)

func TestResolver_Chronology(t *testing.T) {
	r, _ := resolver(dataset(
		experiment("c", run(withStart(5000), withEnd(6000))),
		experiment("b", run(withStart(100), withEnd(200))),
		experiment("a", run(withStart(100), withEnd(300))),
		experiment("unresolved"),
	))

	spans := r.Chronology(nil)
	require.Len(t, spans, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{spans[0].ID, spans[1].ID, spans[2].ID})

	subset := r.Chronology([]string{"c", "b"})
	require.Len(t, subset, 2)
	assert.Equal(t, "b", subset[0].ID)
}

func TestGaps(t *testing.T) {
	spans := []ExperimentSpan{
		{ID: "a", Start: 0, End: 1000},
		{ID: "b", Start: 3000, End: 4000},
		{ID: "c", Start: 3500, End: 9000},
		{ID: "d", Start: 14_000, End: 15_000},
		{ID: "e", Start: 15_000, End: 16_000},
	}

	gaps := Gaps(spans)
	require.Len(t, gaps, 2)

	assert.Equal(t, domain.Gap{After: "a", Before: "b", Start: 1000, End: 3000, Seconds: 2, Labeled: false}, gaps[0])
	assert.Equal(t, domain.Gap{After: "c", Before: "d", Start: 9000, End: 14_000, Seconds: 5, Labeled: true}, gaps[1])
}

func TestGaps_Empty(t *testing.T) {
	assert.Empty(t, Gaps(nil))
	assert.Empty(t, Gaps([]ExperimentSpan{{ID: "only", Start: 1, End: 2}}))
}
