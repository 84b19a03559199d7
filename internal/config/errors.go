package config

import "errors"

var (
	ErrReadingConfigFile     = errors.New("failed to read config file")
	ErrUnmarshallingConfig   = errors.New("failed to unmarshal config")
	ErrConfigFileMissing     = errors.New("config file not found")
	ErrEmptyInputPath        = errors.New("input path cannot be empty")
	ErrInvalidChunkSize      = errors.New("scan chunkSize must be positive")
	ErrInvalidWorkers        = errors.New("scan workers cannot be negative")
	ErrInvalidShards         = errors.New("scan shards must be positive")
	ErrEmptyKafkaBrokers     = errors.New("kafka brokers list cannot be empty when kafka is enabled")
	ErrEmptyKafkaTopic       = errors.New("kafka topic cannot be empty when kafka is enabled")
	ErrInvalidKafkaBatchSize = errors.New("kafka batchSize must be positive")
)
