package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/finvera/wealthgate/pkg/models"
)

// Lifecycle event types emitted on terminal order transitions and by the
// reconciliation sweep.
const (
	EventOrderAccepted  = "order.accepted"
	EventOrderRejected  = "order.rejected"
	EventOrderCancelled = "order.cancelled"
	EventOrderStuck     = "order.stuck"
)

// OrderEvent is the payload published on order lifecycle transitions.
type OrderEvent struct {
	Type           string             `json:"type"`
	OrderID        uuid.UUID          `json:"order_id"`
	AdvisorID      uuid.UUID          `json:"advisor_id"`
	OrderType      models.OrderType   `json:"order_type"`
	Status         models.OrderStatus `json:"status"`
	RegistrationNo string             `json:"registration_no,omitempty"`
	Code           string             `json:"code,omitempty"`
	Message        string             `json:"message,omitempty"`
	OccurredAt     time.Time          `json:"occurred_at"`
}

// EventPublisher publishes order lifecycle events. Publishing is best
// effort: a failed publish never changes an orchestration outcome.
type EventPublisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}

// KafkaPublisher writes lifecycle events to a kafka topic.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

func NewKafkaPublisher(logger *zap.Logger, brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		logger: logger,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderID.String()),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("failed to publish order event: %w", err)
	}
	p.logger.Debug("published order event",
		zap.String("type", event.Type),
		zap.String("order_id", event.OrderID.String()),
	)
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher discards events; used when no broker is configured and in
// tests that don't assert on events.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event OrderEvent) error { return nil }
