package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/onebrc/internal/config"
	"github.com/sanspareilsmyn/onebrc/internal/logging"
	"github.com/sanspareilsmyn/onebrc/internal/pipeline"
)

var configFile = flag.String("config", "", "Path to an optional configuration file")

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-config file] [measurements-file]\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	// Initialize Configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration from %q: %v\n", *configFile, err)
		os.Exit(1)
	}
	if flag.NArg() > 1 {
		usage()
		os.Exit(2)
	}
	path := cfg.Input.Path
	if flag.NArg() == 1 {
		path = flag.Arg(0)
	}

	// Initialize Logger
	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	os.Exit(run(cfg, path, logger))
}

// run owns everything that needs deferred cleanup, so main can exit with its code.
func run(cfg *config.Config, path string, logger *zap.Logger) int {
	defer func() {
		_ = logger.Sync() // Flush buffered logs on exit
	}()

	sugar := logger.Sugar()
	sugar.Debugw("Configuration loaded",
		"config", *configFile,
		"input", path,
		"chunk_size", cfg.Scan.ChunkSize,
		"workers", cfg.Scan.EffectiveWorkers(),
	)

	pipe, err := pipeline.New(cfg, os.Stdout, logger)
	if err != nil {
		sugar.Errorw("Failed to initialize pipeline", zap.Error(err))
		return 1
	}
	defer func() {
		if err := pipe.Close(); err != nil {
			sugar.Warnw("Pipeline close failed", zap.Error(err))
		}
	}()

	// A signal stops the scan between ranges instead of killing it mid-write.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, runErr := pipe.Run(ctx, path)
	switch {
	case runErr == nil:
		sugar.Debug("Run completed without error.")
		return 0
	case errors.Is(runErr, context.Canceled):
		sugar.Warn("Run cancelled by signal.")
		return 130
	default:
		sugar.Errorw("Run failed", zap.Error(runErr))
		return 1
	}
}
