// Package messaging publishes cart activity to Kafka
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"storefront-gateway/models"
)

// ActivityPublisher hands cart activity events to a downstream consumer
type ActivityPublisher interface {
	Publish(ctx context.Context, event models.ActivityEvent) error
	Close() error
}

// messageWriter is the part of *kafka.Writer the publisher uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig configures the activity producer
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
}

// KafkaActivityPublisher writes activity events keyed by cart, so one cart's events stay ordered
type KafkaActivityPublisher struct {
	writer messageWriter
	topic  string
	logger *zap.Logger
}

// NewKafkaActivityPublisher creates an asynchronous producer; delivery errors are logged, not returned
func NewKafkaActivityPublisher(cfg KafkaConfig, logger *zap.Logger) *KafkaActivityPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           cfg.BatchTimeout,
		Async:                  true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Warn("⚠️ Activity events not delivered",
					zap.Int("count", len(messages)), zap.Error(err))
			}
		},
	}

	logger.Info("✅ Kafka activity publisher created",
		zap.Strings("brokers", cfg.Brokers), zap.String("topic", cfg.Topic))
	return newKafkaActivityPublisher(writer, cfg.Topic, logger)
}

func newKafkaActivityPublisher(writer messageWriter, topic string, logger *zap.Logger) *KafkaActivityPublisher {
	return &KafkaActivityPublisher{writer: writer, topic: topic, logger: logger}
}

// Ensure KafkaActivityPublisher implements ActivityPublisher
var _ ActivityPublisher = (*KafkaActivityPublisher)(nil)

// Publish enqueues one event
func (p *KafkaActivityPublisher) Publish(ctx context.Context, event models.ActivityEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal activity event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.CartKey),
		Value: data,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("❌ Failed to publish activity event",
			zap.String("topic", p.topic), zap.String("type", event.Type), zap.Error(err))
		return fmt.Errorf("failed to publish activity event: %w", err)
	}

	p.logger.Debug("📤 Activity event published",
		zap.String("topic", p.topic), zap.String("type", event.Type), zap.String("cart", event.CartKey))
	return nil
}

// Close flushes pending events
func (p *KafkaActivityPublisher) Close() error {
	return p.writer.Close()
}

// NoopActivityPublisher drops every event. Used when no brokers are configured.
type NoopActivityPublisher struct{}

func (NoopActivityPublisher) Publish(context.Context, models.ActivityEvent) error { return nil }
func (NoopActivityPublisher) Close() error                                        { return nil }
