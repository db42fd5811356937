// Package producers contains the Kafka producers used by both binaries:
// expense requests flow API -> processor, settlement events flow from the
// outbox poller to downstream consumers.
package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/bhanuka-viraj/nexsplit/internal/config"
)

// ExpenseReqMessageProducer publishes expense processing requests from the
// API to the expense processor
type ExpenseReqMessageProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewExpenseReqMessageProducer creates the API-side producer and ensures the
// expense topic exists
func NewExpenseReqMessageProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*ExpenseReqMessageProducer, error) {
	if cfg.ExpenseTopic == "" {
		return nil, fmt.Errorf("kafka expense topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for expense producer: %w", err)
	}
	defer conn.Close()

	if err := createKafkaTopicIfNotExists(conn, cfg.ExpenseTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure expense topic %s exists: %w", cfg.ExpenseTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.ExpenseTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		WriteTimeout: cfg.MaxWait,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write messages asynchronously", "topic", cfg.ExpenseTopic, "error", err, "count", len(messages))
			} else {
				logger.Debug("Successfully wrote messages asynchronously", "topic", cfg.ExpenseTopic, "count", len(messages))
			}
		},
	}

	return &ExpenseReqMessageProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.ExpenseTopic,
	}, nil
}

// Publish marshals value to JSON and writes it keyed by key. Keying by nex
// ID keeps all requests for one nex on the same partition, so debt
// generation for a nex is serialized.
func (p *ExpenseReqMessageProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal message value for expense producer: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish message via expense producer",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish message to %s via expense producer: %w", p.topic, err)
	}

	p.logger.Debug("Published message via expense producer",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *ExpenseReqMessageProducer) Close() error {
	p.logger.Info("Closing expense Kafka message producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close expense kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
