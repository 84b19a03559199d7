package pipeline

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/onebrc/internal/config"
	"github.com/sanspareilsmyn/onebrc/internal/message"
	"github.com/sanspareilsmyn/onebrc/internal/stats"
)

type kafkaZapLogger struct {
	log *zap.Logger
}

func (l kafkaZapLogger) Printf(msg string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(msg, args...))
}

type kafkaZapErrorLogger struct {
	log *zap.Logger
}

func (l kafkaZapErrorLogger) Printf(msg string, args ...interface{}) {
	l.log.Error(fmt.Sprintf(msg, args...))
}

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes one JSON StationResult per station to a Kafka topic,
// keyed by station name.
type Publisher struct {
	writer    messageWriter
	batchSize int
	metrics   *Metrics
	logger    *zap.Logger
}

// NewPublisher creates a publisher backed by a kafka-go writer.
func NewPublisher(cfg config.KafkaConfig, metrics *Metrics, logger *zap.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" || cfg.BatchSize <= 0 {
		logger.Error("Kafka configuration validation failed",
			zap.Strings("brokers", cfg.Brokers),
			zap.String("topic", cfg.Topic),
			zap.Int("batch_size", cfg.BatchSize),
		)
		return nil, ErrInvalidKafkaConfig
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    cfg.BatchSize,
		RequiredAcks: kafka.RequireAll,
		Logger:       kafkaZapLogger{logger.Named("kafka-writer")},
		ErrorLogger:  kafkaZapErrorLogger{logger.Named("kafka-writer-error")},
	}

	logger.Info("Kafka publisher created",
		zap.String("topic", cfg.Topic),
		zap.Strings("brokers", cfg.Brokers),
		zap.Int("batch_size", cfg.BatchSize),
	)
	return newPublisher(w, cfg.BatchSize, metrics, logger), nil
}

func newPublisher(w messageWriter, batchSize int, metrics *Metrics, logger *zap.Logger) *Publisher {
	return &Publisher{
		writer:    w,
		batchSize: batchSize,
		metrics:   metrics,
		logger:    logger,
	}
}

// Publish sends every station in key order, batchSize messages per write.
func (p *Publisher) Publish(ctx context.Context, table *stats.Table) error {
	sugar := p.logger.Sugar()
	snapshot := table.Snapshot()
	keys := table.Keys()

	sent := 0
	batch := make([]kafka.Message, 0, min(p.batchSize, len(keys)))
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := p.writer.WriteMessages(ctx, batch...); err != nil {
			sugar.Errorw("Failed to write station results", "batch", len(batch), "sent", sent, zap.Error(err))
			return fmt.Errorf("%w: %w", ErrPublishFailed, err)
		}
		sent += len(batch)
		p.metrics.resultsPublished.Add(float64(len(batch)))
		batch = make([]kafka.Message, 0, p.batchSize)
		return nil
	}

	for _, key := range keys {
		st := snapshot[key]
		result := message.StationResult{
			Station: key,
			Min:     st.Min,
			Mean:    st.Mean,
			Max:     st.Max,
			Count:   st.Count,
		}
		payload, err := message.EncodeStationResult(result)
		if err != nil {
			sugar.Warnw("Refusing to publish station result", "result", result.Snippet(50), zap.Error(err))
			return fmt.Errorf("%w: %w", ErrPublishFailed, err)
		}
		batch = append(batch, kafka.Message{Key: []byte(key), Value: payload})
		if len(batch) >= p.batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	sugar.Infow("Station results published", "count", sent)
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	if err := p.writer.Close(); err != nil {
		p.logger.Error("Failed to close Kafka writer cleanly", zap.Error(err))
		return err
	}
	p.logger.Debug("Kafka writer closed")
	return nil
}
