package timeline

import (
	"sort"
	"time"

	"github.com/emiliopalmerini/wattline/internal/domain"
)

// GapLabelThreshold is the shortest pause worth annotating on the timeline.
const GapLabelThreshold = 5 * time.Second

// ExperimentSpan is an experiment placed on the timeline.
type ExperimentSpan struct {
	ID         string
	Start      int64
	End        int64
	Resolution Resolution
}

// Chronology places the given experiments (all when ids is empty) on the
// timeline ordered by start, ties broken by id. Unresolved experiments are
// left out.
func (r *Resolver) Chronology(ids []string) []ExperimentSpan {
	if len(ids) == 0 {
		ids = r.order
	}
	spans := make([]ExperimentSpan, 0, len(ids))
	for _, id := range ids {
		tr, res := r.Experiment(id)
		start, end, ok := tr.Bounds()
		if !ok {
			continue
		}
		spans = append(spans, ExperimentSpan{ID: id, Start: start, End: end, Resolution: res})
	}
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].ID < spans[j].ID
	})
	return spans
}

// Gaps lists the pauses between adjacent spans. Overlapping or touching
// spans produce no gap.
func Gaps(spans []ExperimentSpan) []domain.Gap {
	var gaps []domain.Gap
	for i := 0; i+1 < len(spans); i++ {
		cur, next := spans[i], spans[i+1]
		if next.Start <= cur.End {
			continue
		}
		pause := time.Duration(next.Start-cur.End) * time.Millisecond
		gaps = append(gaps, domain.Gap{
			After:   cur.ID,
			Before:  next.ID,
			Start:   cur.End,
			End:     next.Start,
			Seconds: pause.Seconds(),
			Labeled: pause >= GapLabelThreshold,
		})
	}
	return gaps
}
