package pipeline

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/onebrc/internal/config"
	"github.com/sanspareilsmyn/onebrc/internal/scan"
	"github.com/sanspareilsmyn/onebrc/internal/stats"
)

func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	return rand.New(rand.NewPCG(binary.LittleEndian.Uint64(sum[:8]), binary.LittleEndian.Uint64(sum[8:])))
}

func newTestScheduler(chunkSize, workers int) (*Scheduler, *Metrics) {
	m := NewMetrics()
	cfg := config.ScanConfig{ChunkSize: chunkSize, Workers: workers, Shards: 8}
	return NewScheduler(cfg, m, zap.NewNop()), m
}

func runScan(t *testing.T, input string, chunkSize, workers int) (*stats.Table, ScanSummary) {
	t.Helper()
	s, _ := newTestScheduler(chunkSize, workers)
	table, summary, err := s.Run(context.Background(), []byte(input))
	if err != nil {
		t.Fatalf("Run(chunk=%d, workers=%d): %v", chunkSize, workers, err)
	}
	return table, summary
}

func assertStat(t *testing.T, table *stats.Table, key string, want stats.Statistic) {
	t.Helper()
	got, ok := table.Get(key)
	if !ok {
		t.Fatalf("%q missing from table", key)
	}
	if got.Min != want.Min || got.Max != want.Max || got.Count != want.Count || math.Abs(got.Mean-want.Mean) > 1e-9 {
		t.Fatalf("%q = %+v, want %+v", key, got, want)
	}
}

func TestSchedulerExample(t *testing.T) {
	const input = "A;1.0\nB;2.0\nA;3.0\n"
	for _, workers := range []int{1, 2, 4} {
		for chunk := 1; chunk <= len(input)+1; chunk++ {
			table, summary := runScan(t, input, chunk, workers)
			if table.Len() != 2 {
				t.Fatalf("chunk %d workers %d: %d keys, want 2", chunk, workers, table.Len())
			}
			assertStat(t, table, "A", stats.Statistic{Min: 1, Mean: 2, Max: 3, Count: 2})
			assertStat(t, table, "B", stats.Statistic{Min: 2, Mean: 2, Max: 2, Count: 1})
			if summary.Records != 3 || summary.Malformed() != 0 {
				t.Fatalf("chunk %d workers %d: summary %+v", chunk, workers, summary)
			}
			if summary.Bytes != int64(len(input)) {
				t.Fatalf("chunk %d workers %d: bytes %d, want %d", chunk, workers, summary.Bytes, len(input))
			}
		}
	}
}

func TestSchedulerSkipsMalformedLines(t *testing.T) {
	const input = "X;oops\nY;5.5\nno separator here\n\n"
	for chunk := 1; chunk <= len(input); chunk++ {
		table, summary := runScan(t, input, chunk, 3)
		if _, ok := table.Get("X"); ok {
			t.Fatalf("chunk %d: X should be absent", chunk)
		}
		if table.Len() != 1 {
			t.Fatalf("chunk %d: keys %q, want only Y", chunk, table.Keys())
		}
		assertStat(t, table, "Y", stats.Statistic{Min: 5.5, Mean: 5.5, Max: 5.5, Count: 1})
		want := ScanSummary{Lines: 3, Records: 1, NoSeparator: 1, InvalidValue: 1}
		if summary.Lines != want.Lines || summary.Records != want.Records ||
			summary.NoSeparator != want.NoSeparator || summary.InvalidValue != want.InvalidValue {
			t.Fatalf("chunk %d: summary %+v, want counts of %+v", chunk, summary, want)
		}
	}
}

func TestSchedulerUnterminatedFinalLine(t *testing.T) {
	const input = "A;1.0\nA;2.0"
	for chunk := 1; chunk <= len(input); chunk++ {
		table, _ := runScan(t, input, chunk, 2)
		assertStat(t, table, "A", stats.Statistic{Min: 1, Mean: 1.5, Max: 2, Count: 2})
	}
}

func TestSchedulerExtremeValues(t *testing.T) {
	table, _ := runScan(t, "A;1e308\nA;-1e308\n", 4, 2)
	st, ok := table.Get("A")
	if !ok {
		t.Fatal("key A missing")
	}
	if math.IsInf(st.Mean, 0) || st.Mean < st.Min || st.Mean > st.Max {
		t.Fatalf("A = %+v, want a finite mean within [min, max]", st)
	}
}

func TestScanRangeInsideLongLine(t *testing.T) {
	buf := []byte("Petropavlovsk-Kamchatsky;1.9\nB;2\n")
	table := stats.NewTable(1)

	// The nominal range starts and ends inside the first line, so it owns nothing.
	c := scanRange(buf, scan.Range{Start: 4, End: 12}, table)
	if c != (rangeCounts{}) || table.Len() != 0 {
		t.Fatalf("counts = %+v, stations = %d, want nothing scanned", c, table.Len())
	}

	c = scanRange(buf, scan.Range{Start: 0, End: 4}, table)
	if c.lines != 1 || c.records != 1 {
		t.Fatalf("counts = %+v, want the whole first line", c)
	}
}

func TestSchedulerEmptyBuffer(t *testing.T) {
	table, summary := runScan(t, "", 16, 4)
	if table.Len() != 0 || summary.Ranges != 0 || summary.Lines != 0 {
		t.Fatalf("empty input produced %d keys, summary %+v", table.Len(), summary)
	}
}

// TestSchedulerOrderIndependence checks that worker count and chunk size do
// not change min, max, or count, and move the mean by at most rounding.
func TestSchedulerOrderIndependence(t *testing.T) {
	rng := newTestRNG(t)
	stations := []string{"Abha", "Accra", "Hat Yai", "Ségou", "Zürich", "Oslo", "Lima", "Perth"}
	var sb strings.Builder
	for i := 0; i < 20000; i++ {
		fmt.Fprintf(&sb, "%s;%.1f\n", stations[rng.IntN(len(stations))], rng.Float64()*199.8-99.9)
	}
	input := sb.String()

	ref, refSummary := runScan(t, input, len(input), 1)
	refSnap := ref.Snapshot()

	for _, tc := range []struct{ chunk, workers int }{
		{64, 2}, {1000, 4}, {7, 8}, {4096, 3}, {len(input) / 3, 16},
	} {
		table, summary := runScan(t, input, tc.chunk, tc.workers)
		if summary.Records != refSummary.Records {
			t.Fatalf("chunk %d workers %d: records %d, want %d", tc.chunk, tc.workers, summary.Records, refSummary.Records)
		}
		snap := table.Snapshot()
		if len(snap) != len(refSnap) {
			t.Fatalf("chunk %d workers %d: %d keys, want %d", tc.chunk, tc.workers, len(snap), len(refSnap))
		}
		for k, want := range refSnap {
			got := snap[k]
			if got.Min != want.Min || got.Max != want.Max || got.Count != want.Count {
				t.Fatalf("chunk %d workers %d: %q = %+v, want %+v", tc.chunk, tc.workers, k, got, want)
			}
			if math.Abs(got.Mean-want.Mean) > 1e-6*math.Max(1, math.Abs(want.Mean)) {
				t.Fatalf("chunk %d workers %d: %q mean %v, want %v", tc.chunk, tc.workers, k, got.Mean, want.Mean)
			}
		}
	}
}

func TestSchedulerWorkersCappedByRanges(t *testing.T) {
	_, summary := runScan(t, "A;1\nB;2\n", 1024, 8)
	if summary.Ranges != 1 || summary.Workers != 1 {
		t.Fatalf("summary %+v, want 1 range on 1 worker", summary)
	}
}

func TestSchedulerMetrics(t *testing.T) {
	const input = "A;1\nbad\nB;x\nC;3\n"
	s, m := newTestScheduler(4, 2)
	if _, _, err := s.Run(context.Background(), []byte(input)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := testutil.ToFloat64(m.linesScanned); got != 4 {
		t.Errorf("lines = %v, want 4", got)
	}
	if got := testutil.ToFloat64(m.recordsAggregated); got != 2 {
		t.Errorf("records = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.malformedLines.WithLabelValues(reasonNoSeparator)); got != 1 {
		t.Errorf("no_separator = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.malformedLines.WithLabelValues(reasonInvalidValue)); got != 1 {
		t.Errorf("invalid_value = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.bytesScanned); got != float64(len(input)) {
		t.Errorf("bytes = %v, want %d", got, len(input))
	}
	if got := testutil.ToFloat64(m.rangesScanned); got != float64((len(input)+3)/4) {
		t.Errorf("ranges = %v, want %d", got, (len(input)+3)/4)
	}
}

func TestSchedulerCancelled(t *testing.T) {
	s, _ := newTestScheduler(1, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := s.Run(ctx, []byte(strings.Repeat("A;1\n", 100)))
	if !errors.Is(err, ErrScanFailed) || !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want ErrScanFailed wrapping context.Canceled", err)
	}
}
