package pipeline

import "errors"

var (
	ErrInvalidKafkaConfig = errors.New("invalid Kafka configuration provided")
	ErrLoadFailed         = errors.New("failed to load input")
	ErrScanFailed         = errors.New("scan did not complete")
	ErrReportFailed       = errors.New("failed to write report")
	ErrPublishFailed      = errors.New("failed to publish station results")
	ErrPublisherCreation  = errors.New("failed to create publisher")
	ErrMetricsExport      = errors.New("failed to export metrics")
)
