package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sanspareilsmyn/onebrc/internal/config"
	"github.com/sanspareilsmyn/onebrc/internal/scan"
	"github.com/sanspareilsmyn/onebrc/internal/stats"
)

// workChanBufferMultiplier is the multiplier for the range channel buffer size.
const workChanBufferMultiplier = 2

// ScanSummary counts what a scan saw. Lines = Records + NoSeparator + InvalidValue.
type ScanSummary struct {
	Ranges       int
	Workers      int
	Bytes        int64
	Lines        int64
	Records      int64
	NoSeparator  int64
	InvalidValue int64
	Elapsed      time.Duration
}

// Malformed returns the number of skipped lines.
func (s ScanSummary) Malformed() int64 {
	return s.NoSeparator + s.InvalidValue
}

// rangeCounts is one worker's tally for one range.
type rangeCounts struct {
	bytes        int
	lines        int64
	records      int64
	noSeparator  int64
	invalidValue int64
}

// summaryCounters accumulates rangeCounts from all workers.
type summaryCounters struct {
	bytes        atomic.Int64
	lines        atomic.Int64
	records      atomic.Int64
	noSeparator  atomic.Int64
	invalidValue atomic.Int64
}

func (s *summaryCounters) add(c rangeCounts) {
	s.bytes.Add(int64(c.bytes))
	s.lines.Add(c.lines)
	s.records.Add(c.records)
	s.noSeparator.Add(c.noSeparator)
	s.invalidValue.Add(c.invalidValue)
}

// Scheduler runs the chunked scan over a fixed pool of workers.
type Scheduler struct {
	chunkSize int
	workers   int
	shards    int
	metrics   *Metrics
	logger    *zap.Logger
}

// NewScheduler creates a Scheduler. A zero worker count means one worker per
// logical CPU.
func NewScheduler(cfg config.ScanConfig, metrics *Metrics, logger *zap.Logger) *Scheduler {
	s := &Scheduler{
		chunkSize: cfg.ChunkSize,
		workers:   cfg.EffectiveWorkers(),
		shards:    cfg.Shards,
		metrics:   metrics,
		logger:    logger,
	}
	if s.chunkSize <= 0 {
		s.chunkSize = scan.DefaultChunkSize
	}
	logger.Debug("Scheduler initialized",
		zap.Int("chunk_size", s.chunkSize),
		zap.Int("workers", s.workers),
		zap.Int("shards", s.shards),
	)
	return s
}

// Run partitions buf, scans every range on the worker pool, and returns the
// completed table once all workers are done. buf must not change during Run.
// Malformed lines are counted in the summary, never returned as errors. The
// context is checked between ranges only.
func (s *Scheduler) Run(ctx context.Context, buf []byte) (*stats.Table, ScanSummary, error) {
	sugar := s.logger.Sugar()
	start := time.Now()

	table := stats.NewTable(s.shards)
	ranges := scan.Partition(len(buf), s.chunkSize)
	workers := min(s.workers, len(ranges))
	s.metrics.workers.Set(float64(workers))

	sugar.Debugw("Starting scan",
		"buffer_bytes", len(buf),
		"ranges", len(ranges),
		"workers", workers,
	)

	var counters summaryCounters
	if len(ranges) > 0 {
		work := make(chan scan.Range, workers*workChanBufferMultiplier)
		g, gctx := errgroup.WithContext(ctx)
		for range workers {
			g.Go(func() error {
				return s.runWorker(gctx, buf, work, table, &counters)
			})
		}

	feed:
		for _, r := range ranges {
			select {
			case work <- r:
			case <-gctx.Done():
				break feed
			}
		}
		close(work)

		if err := g.Wait(); err != nil {
			return nil, ScanSummary{}, fmt.Errorf("%w: %w", ErrScanFailed, err)
		}
		// Workers exit cleanly once the channel drains, even if feeding stopped early.
		if err := ctx.Err(); err != nil {
			return nil, ScanSummary{}, fmt.Errorf("%w: %w", ErrScanFailed, err)
		}
	}

	summary := ScanSummary{
		Ranges:       len(ranges),
		Workers:      workers,
		Bytes:        counters.bytes.Load(),
		Lines:        counters.lines.Load(),
		Records:      counters.records.Load(),
		NoSeparator:  counters.noSeparator.Load(),
		InvalidValue: counters.invalidValue.Load(),
		Elapsed:      time.Since(start),
	}
	s.metrics.scanDuration.Set(summary.Elapsed.Seconds())

	sugar.Infow("Scan finished",
		"ranges", summary.Ranges,
		"workers", summary.Workers,
		"lines", summary.Lines,
		"records", summary.Records,
		"malformed", summary.Malformed(),
		"stations", table.Len(),
		"elapsed", summary.Elapsed,
	)
	return table, summary, nil
}

// runWorker scans ranges from work until it is closed.
func (s *Scheduler) runWorker(ctx context.Context, buf []byte, work <-chan scan.Range, table *stats.Table, counters *summaryCounters) error {
	for r := range work {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		c := scanRange(buf, r, table)
		counters.add(c)
		s.metrics.observeRange(c)

		if ce := s.logger.Check(zap.DebugLevel, "Range scanned"); ce != nil {
			ce.Write(
				zap.Stringer("nominal", r),
				zap.Int64("lines", c.lines),
				zap.Int64("malformed", c.noSeparator+c.invalidValue),
			)
		}
	}
	return nil
}

// scanRange aggregates every line owned by the nominal range r into table.
func scanRange(buf []byte, r scan.Range, table *stats.Table) rangeCounts {
	owned := scan.Align(buf, r)
	c := rangeCounts{bytes: owned.Len()}
	if owned.Empty() {
		// A line longer than the chunk swallowed this range.
		return c
	}

	sc := scan.NewLineScanner(buf, owned)
	for {
		sp, ok := sc.Next()
		if !ok {
			return c
		}
		c.lines++

		key, value, err := scan.ParseRecord(sp.Bytes(buf))
		switch {
		case err == nil:
			table.UpdateBytes(key, value)
			c.records++
		case errors.Is(err, scan.ErrNoSeparator):
			c.noSeparator++
		default:
			c.invalidValue++
		}
	}
}
