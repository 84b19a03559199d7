package stats

import "math"

// Statistic holds the running aggregates for one key.
type Statistic struct {
	Min   float64
	Mean  float64
	Max   float64
	Count uint64
}

// NewStatistic returns the statistic of a single observation.
func NewStatistic(value float64) Statistic {
	return Statistic{Min: value, Mean: value, Max: value, Count: 1}
}

// Add folds one observation in. The mean is updated incrementally so no sum
// is ever stored, and it always stays within [Min, Max].
func (s *Statistic) Add(value float64) {
	s.Count++
	s.Min = min(s.Min, value)
	s.Max = max(s.Max, value)

	n := float64(s.Count)
	delta := value - s.Mean
	if math.IsInf(delta, 0) {
		// Both terms are finite, so scale before subtracting.
		s.Mean += value/n - s.Mean/n
	} else {
		s.Mean += delta / n
	}
	s.Mean = min(max(s.Mean, s.Min), s.Max)
}
