package message

import (
	"fmt"
	"math"
	"unicode/utf8"
)

// StationResult is the published form of one station's final statistics.
type StationResult struct {
	Station string  `json:"station"`
	Min     float64 `json:"min"`
	Mean    float64 `json:"mean"`
	Max     float64 `json:"max"`
	Count   uint64  `json:"count"`
}

// Validate checks the invariants every published result must satisfy.
func (r StationResult) Validate() error {
	if r.Count == 0 {
		return fmt.Errorf("%w: station %q has zero count", ErrInvalidResult, r.Station)
	}
	for _, v := range []float64{r.Min, r.Mean, r.Max} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: station %q has non-finite value", ErrInvalidResult, r.Station)
		}
	}
	if r.Min > r.Max {
		return fmt.Errorf("%w: station %q has min %v > max %v", ErrInvalidResult, r.Station, r.Min, r.Max)
	}
	return nil
}

// Snippet returns a short description of the result, useful for logging.
// Long station names are truncated to at most maxLength bytes, never inside
// a UTF-8 sequence.
func (r StationResult) Snippet(maxLength int) string {
	name := r.Station
	if maxLength <= 0 {
		name = "..."
	} else if len(name) > maxLength {
		cut := maxLength
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = name[:cut] + "..."
	}
	return fmt.Sprintf("%s(n=%d)", name, r.Count)
}
