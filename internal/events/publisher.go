// Package events publishes notifications about finished admin operations.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"olza-admin/internal/config"
	"olza-admin/internal/logger"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// TypePickupPointsRefreshed is emitted after every pickup point refresh.
const TypePickupPointsRefreshed = "pickup_points.refreshed"

type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Key       string      `json:"-"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType, key string, data interface{}) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Key:       key,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// New returns a Kafka publisher, or a no-op one when no brokers are configured.
func New(cfg *config.Config, logger *logger.Logger) Publisher {
	brokers := cfg.Brokers()
	if len(brokers) == 0 {
		logger.Info("No Kafka brokers configured, events are disabled")
		return NoopPublisher{}
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}
	return NewKafkaPublisher(writer, logger)
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
	logger *logger.Logger
}

func NewKafkaPublisher(writer messageWriter, logger *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: writer,
		logger: logger,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	msg, err := message(event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}
	p.logger.Debug("Published %s event %s", event.Type, event.ID)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func message(event Event) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to encode %s event: %w", event.Type, err)
	}
	return kafka.Message{
		Key:   []byte(event.Key),
		Value: value,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}, nil
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }
