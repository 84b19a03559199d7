package config

import (
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultInputPath         = "measurements.txt"
	defaultScanChunkSize     = 50 * 1024 * 1024
	defaultScanWorkers       = 0 // 0 resolves to runtime.NumCPU()
	defaultScanShards        = 64
	defaultReportShowElapsed = true
	defaultKafkaEnabled      = false
	defaultKafkaTopic        = "onebrc-results"
	defaultKafkaBatchSize    = 500
	defaultLogLevel          = "info"
	defaultLogFormat         = "console"
	defaultLogFileEnabled    = false
	defaultLogDirectory      = "log"
	defaultLogFilename       = "onebrc.log"
	defaultLogMaxSizeMB      = 100
	defaultLogMaxBackups     = 3
	defaultLogMaxAgeDays     = 7
	defaultLogCompress       = false

	// Environment variable prefix
	envPrefix = "ONEBRC"
)

type Config struct {
	Input   InputConfig   `mapstructure:"input"`
	Scan    ScanConfig    `mapstructure:"scan"`
	Report  ReportConfig  `mapstructure:"report"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Log     LogConfig     `mapstructure:"log"`
}

type InputConfig struct {
	Path string `mapstructure:"path"`
}

type ScanConfig struct {
	ChunkSize int `mapstructure:"chunkSize"` // Nominal bytes per range
	Workers   int `mapstructure:"workers"`   // 0 = one per logical CPU
	Shards    int `mapstructure:"shards"`    // Aggregation table shards, rounded up to a power of two
}

type ReportConfig struct {
	ShowElapsed bool `mapstructure:"showElapsed"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"` // Empty disables the export
}

type KafkaConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Brokers   []string `mapstructure:"brokers"`
	Topic     string   `mapstructure:"topic"`
	BatchSize int      `mapstructure:"batchSize"`
}

type LogConfig struct {
	Level              string `mapstructure:"level"`
	Format             string `mapstructure:"format"`
	FileLoggingEnabled bool   `mapstructure:"fileLoggingEnabled"`
	Directory          string `mapstructure:"directory"`
	Filename           string `mapstructure:"filename"`
	MaxSize            int    `mapstructure:"maxSize"`    // Max size in MB
	MaxBackups         int    `mapstructure:"maxBackups"` // Max backup files
	MaxAge             int    `mapstructure:"maxAge"`     // Max days to retain
	Compress           bool   `mapstructure:"compress"`   // Compress rotated files?
}

// Load initializes viper, reads config, applies defaults, unmarshals, and validates.
// An empty configPath skips the file and uses defaults plus environment overrides.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	configureViper(v, configPath)

	// Set default values before reading config source .yaml
	setDefaults(v)

	if configPath != "" {
		if err := readConfigFile(v); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnmarshallingConfig, err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the built-in configuration, ignoring files and environment.
func Default() *Config {
	return &Config{
		Input: InputConfig{Path: defaultInputPath},
		Scan: ScanConfig{
			ChunkSize: defaultScanChunkSize,
			Workers:   defaultScanWorkers,
			Shards:    defaultScanShards,
		},
		Report: ReportConfig{ShowElapsed: defaultReportShowElapsed},
		Kafka: KafkaConfig{
			Enabled:   defaultKafkaEnabled,
			Topic:     defaultKafkaTopic,
			BatchSize: defaultKafkaBatchSize,
		},
		Log: LogConfig{
			Level:              defaultLogLevel,
			Format:             defaultLogFormat,
			FileLoggingEnabled: defaultLogFileEnabled,
			Directory:          defaultLogDirectory,
			Filename:           defaultLogFilename,
			MaxSize:            defaultLogMaxSizeMB,
			MaxBackups:         defaultLogMaxBackups,
			MaxAge:             defaultLogMaxAgeDays,
			Compress:           defaultLogCompress,
		},
	}
}

// EffectiveWorkers resolves the worker count, mapping 0 to the number of logical CPUs.
func (c ScanConfig) EffectiveWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// configureViper sets up viper instance for file and environment variables.
func configureViper(v *viper.Viper, configPath string) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults applies default configuration values using Viper.
// Every key needs a default so AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("input.path", defaultInputPath)
	v.SetDefault("scan.chunkSize", defaultScanChunkSize)
	v.SetDefault("scan.workers", defaultScanWorkers)
	v.SetDefault("scan.shards", defaultScanShards)
	v.SetDefault("report.showElapsed", defaultReportShowElapsed)
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("kafka.enabled", defaultKafkaEnabled)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", defaultKafkaTopic)
	v.SetDefault("kafka.batchSize", defaultKafkaBatchSize)
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.format", defaultLogFormat)
	v.SetDefault("log.fileLoggingEnabled", defaultLogFileEnabled)
	v.SetDefault("log.directory", defaultLogDirectory)
	v.SetDefault("log.filename", defaultLogFilename)
	v.SetDefault("log.maxSize", defaultLogMaxSizeMB)
	v.SetDefault("log.maxBackups", defaultLogMaxBackups)
	v.SetDefault("log.maxAge", defaultLogMaxAgeDays)
	v.SetDefault("log.compress", defaultLogCompress)
}

// readConfigFile attempts to read the configuration file specified in viper.
func readConfigFile(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) || errors.Is(err, fs.ErrNotExist) {
			return ErrConfigFileMissing
		}
		return fmt.Errorf("%w: %w", ErrReadingConfigFile, err)
	}
	return nil
}

func validateConfig(cfg *Config) error {
	if cfg.Input.Path == "" {
		return ErrEmptyInputPath
	}
	if cfg.Scan.ChunkSize <= 0 {
		return ErrInvalidChunkSize
	}
	if cfg.Scan.Workers < 0 {
		return ErrInvalidWorkers
	}
	if cfg.Scan.Shards <= 0 {
		return ErrInvalidShards
	}
	if cfg.Kafka.Enabled {
		if len(cfg.Kafka.Brokers) == 0 {
			return ErrEmptyKafkaBrokers
		}
		if cfg.Kafka.Topic == "" {
			return ErrEmptyKafkaTopic
		}
		if cfg.Kafka.BatchSize <= 0 {
			return ErrInvalidKafkaBatchSize
		}
	}
	return nil
}
