package events

import (
	"checkout-service/internal/entity"
	"context"
	"encoding/json"
	"fmt"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Publisher writes checkout events to kafka.
type Publisher struct {
	writer MessageWriter
}

func NewPublisher(writer MessageWriter) *Publisher {
	return &Publisher{writer: writer}
}

// PublishOrderCreated emits "order.created.<increment id>".
func (p *Publisher) PublishOrderCreated(ctx context.Context, order *entity.Order) error {
	return p.publish(ctx, fmt.Sprintf("order.created.%s", order.IncrementID), order)
}

// PublishCartSplit emits "cart.split.<origin cart id>" once per split
// place-order call.
func (p *Publisher) PublishCartSplit(ctx context.Context, summary entity.SplitSummary) error {
	return p.publish(ctx, fmt.Sprintf("cart.split.%s", summary.OriginCartID), summary)
}

func (p *Publisher) publish(ctx context.Context, key string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}
