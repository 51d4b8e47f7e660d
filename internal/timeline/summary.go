package timeline

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/emiliopalmerini/wattline/internal/domain"
)

// Summarize describes a window series. An empty series yields the zero Summary.
func Summarize(windows []domain.TimeWindow) domain.Summary {
	if len(windows) == 0 {
		return domain.Summary{}
	}
	values := make([]float64, len(windows))
	for i, w := range windows {
		values[i] = w.Value
	}

	s := domain.Summary{
		Windows: len(windows),
		Total:   floats.Sum(values),
		Min:     floats.Min(values),
		Max:     floats.Max(values),
		First:   windows[0].Start,
		Last:    windows[len(windows)-1].Start,
	}
	s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
	if len(values) < 2 {
		s.StdDev = 0
	}
	return s
}
