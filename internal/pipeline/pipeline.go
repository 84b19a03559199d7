// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/onebrc/internal/config"
	"github.com/sanspareilsmyn/onebrc/internal/loader"
	"github.com/sanspareilsmyn/onebrc/internal/stats"
)

// Pipeline orchestrates the stages of one run: load, scan, report, publish.
type Pipeline struct {
	cfg       *config.Config
	scheduler *Scheduler
	reporter  *Reporter
	publisher *Publisher // nil when Kafka is disabled
	metrics   *Metrics
	logger    *zap.Logger
}

// Result is what a completed run produced.
type Result struct {
	Table   *stats.Table
	Summary ScanSummary
	Elapsed time.Duration
}

// New creates and wires up a pipeline that reports to out.
func New(cfg *config.Config, out io.Writer, logger *zap.Logger) (*Pipeline, error) {
	initLogger := logger.Named("pipeline.init")
	initLogger.Debug("Creating pipeline components...")

	metrics := NewMetrics()
	scheduler := NewScheduler(cfg.Scan, metrics, logger.Named("scheduler"))

	var publisher *Publisher
	if cfg.Kafka.Enabled {
		var err error
		publisher, err = NewPublisher(cfg.Kafka, metrics, logger.Named("publisher"))
		if err != nil {
			initLogger.Error("Failed to create publisher", zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrPublisherCreation, err)
		}
		initLogger.Debug("Publisher created")
	}

	p := &Pipeline{
		cfg:       cfg,
		scheduler: scheduler,
		reporter:  NewReporter(out),
		publisher: publisher,
		metrics:   metrics,
		logger:    logger.Named("pipeline"),
	}

	initLogger.Info("Pipeline instance created successfully",
		zap.Bool("kafka_enabled", publisher != nil),
		zap.String("metrics_textfile", cfg.Metrics.Textfile),
	)
	return p, nil
}

// Metrics returns the run metrics.
func (p *Pipeline) Metrics() *Metrics {
	return p.metrics
}

// Run memory-maps path and processes it. The elapsed time includes loading.
func (p *Pipeline) Run(ctx context.Context, path string) (*Result, error) {
	start := time.Now()

	buf, err := loader.Open(path)
	if err != nil {
		p.logger.Error("Failed to load input", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	defer func() {
		if err := buf.Close(); err != nil {
			p.logger.Warn("Failed to release input buffer", zap.Error(err))
		}
	}()
	p.logger.Info("Input loaded", zap.String("path", path))

	return p.process(ctx, buf, start)
}

// RunBytes processes an in-memory buffer. data must not change during the run.
func (p *Pipeline) RunBytes(ctx context.Context, data []byte) (*Result, error) {
	return p.process(ctx, loader.FromBytes(data), time.Now())
}

func (p *Pipeline) process(ctx context.Context, buf *loader.Buffer, start time.Time) (*Result, error) {
	sugar := p.logger.Sugar()
	sugar.Debugw("Processing buffer", "bytes", buf.Len(), "mapped", buf.Mapped())

	table, summary, err := p.scheduler.Run(ctx, buf.Bytes())
	if err != nil {
		return nil, err
	}
	p.metrics.stations.Set(float64(table.Len()))

	if err := p.reporter.Write(table); err != nil {
		return nil, err
	}

	// The report is already out; later failures are collected, not fatal to it.
	var errs []error
	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, table); err != nil {
			errs = append(errs, err)
		}
	}

	elapsed := time.Since(start)
	p.metrics.runDuration.Set(elapsed.Seconds())
	if p.cfg.Report.ShowElapsed {
		if err := p.reporter.WriteElapsed(elapsed); err != nil {
			errs = append(errs, err)
		}
	}

	if path := p.cfg.Metrics.Textfile; path != "" {
		if err := p.metrics.WriteTextfile(path); err != nil {
			errs = append(errs, err)
		} else {
			sugar.Debugw("Metrics written", "path", path)
		}
	}

	sugar.Infow("Run finished",
		"stations", table.Len(),
		"records", summary.Records,
		"malformed", summary.Malformed(),
		"elapsed", elapsed,
	)

	result := &Result{Table: table, Summary: summary, Elapsed: elapsed}
	if err := errors.Join(errs...); err != nil {
		return result, err
	}
	return result, nil
}

// Close releases the publisher, if any.
func (p *Pipeline) Close() error {
	if p.publisher == nil {
		return nil
	}
	return p.publisher.Close()
}
