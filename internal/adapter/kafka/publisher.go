// Package kafka publishes audit events to the notification sink topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/kalasag-ph/suspension-engine/internal/suspension"
)

// Publisher produces audit events to a Kafka topic.
// It implements suspension.AuditPublisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the audit topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish serializes one audit event and writes it to the sink topic.
// Messages are keyed by city so per-city ordering is preserved.
func (p *Publisher) Publish(ctx context.Context, ev suspension.AuditEvent) error {
	msg, err := serializeToMessage(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals an AuditEvent into a Kafka message.
func serializeToMessage(ev suspension.AuditEvent) (kafkago.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize audit event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(ev.City),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
			{Key: "emitted_at", Value: []byte(ev.Timestamp.Format(time.RFC3339))},
		},
	}, nil
}
