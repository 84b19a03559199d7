package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/sanspareilsmyn/onebrc/internal/stats"
)

// Reporter prints the final table, one block per station in key order:
//
//	<station>
//	Min: <min>, Avg: <mean to one decimal> Max: <max>
type Reporter struct {
	w io.Writer
}

// NewReporter creates a Reporter writing to w.
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// Write prints every station in ascending byte order of its name.
func (r *Reporter) Write(table *stats.Table) error {
	snapshot := table.Snapshot()
	bw := bufio.NewWriter(r.w)
	for _, key := range table.Keys() {
		st := snapshot[key]
		fmt.Fprintf(bw, "%s\nMin: %s, Avg: %s Max: %s\n",
			key, formatValue(st.Min), formatValue(roundTenth(st.Mean)), formatValue(st.Max))
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrReportFailed, err)
	}
	return nil
}

// WriteElapsed prints the total run time after the report.
func (r *Reporter) WriteElapsed(elapsed time.Duration) error {
	if _, err := fmt.Fprintf(r.w, "Completed in: %s\n", elapsed); err != nil {
		return fmt.Errorf("%w: %w", ErrReportFailed, err)
	}
	return nil
}

// roundTenth rounds to one decimal place, ties to even.
func roundTenth(v float64) float64 {
	// Beyond 2^52 every float64 is already an integer.
	if math.Abs(v) >= 1<<52 {
		return v
	}
	return math.RoundToEven(v*10) / 10
}

// formatValue prints the shortest decimal that round-trips. Negative zero
// prints as 0.
func formatValue(v float64) string {
	if v == 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
