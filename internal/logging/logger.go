package logging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sanspareilsmyn/onebrc/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ErrNoOutputs is returned when neither a terminal format nor file logging is configured.
var ErrNoOutputs = errors.New("no logging outputs configured (format is neither console nor json, and file logging is disabled)")

// NewLogger builds the process logger. Terminal output always goes to
// stderr because stdout carries the station report. With file logging on,
// JSON entries are also written to a lumberjack-rotated file.
func NewLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARN: %v, defaulting to INFO level\n", err)
	}

	var cores []zapcore.Core
	format := strings.ToLower(cfg.Format)
	if format == "console" || format == "json" {
		cores = append(cores, zapcore.NewCore(newEncoder(format), zapcore.Lock(os.Stderr), level))
	}

	logPath := filepath.Join(cfg.Directory, cfg.Filename)
	if cfg.FileLoggingEnabled {
		if err := os.MkdirAll(cfg.Directory, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory '%s': %w", cfg.Directory, err)
		}
		rotator := &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		cores = append(cores, zapcore.NewCore(newEncoder("json"), zapcore.AddSync(rotator), level))
	}
	if len(cores) == 0 {
		return nil, ErrNoOutputs
	}

	// Debug level or a human-facing console get development behaviour.
	development := level == zapcore.DebugLevel || format == "console"
	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	if development {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.WarnLevel))
	}

	logger := zap.New(zapcore.NewTee(cores...), opts...)
	logger.Debug("Logger ready",
		zap.Stringer("level", level),
		zap.String("format", format),
		zap.Bool("file_logging", cfg.FileLoggingEnabled),
		zap.String("file_path", logPath),
		zap.Bool("development", development),
	)
	return logger, nil
}

// parseLevel falls back to info on an unknown level.
func parseLevel(levelStr string) (zapcore.Level, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(levelStr))
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level '%s'", levelStr)
	}
	return level, nil
}

func newEncoder(format string) zapcore.Encoder {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if format == "console" {
		encCfg = zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(encCfg)
	}
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(encCfg)
}
