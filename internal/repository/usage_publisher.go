package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"runbox/internal/common/mq"
)

// UsageEvent is the billing record emitted for every charged run.
type UsageEvent struct {
	ExecutionID string    `json:"execution_id"`
	UserID      int64     `json:"user_id"`
	Language    string    `json:"language"`
	Status      string    `json:"status"`
	DurationMs  int64     `json:"duration_ms"`
	Cost        float64   `json:"cost"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// UsagePublisher pushes usage events to the downstream billing pipeline.
type UsagePublisher interface {
	PublishUsage(ctx context.Context, event UsageEvent) error
	Close() error
}

type KafkaUsagePublisher struct {
	producer mq.Producer
	topic    string
}

func NewUsagePublisher(producer mq.Producer, topic string) *KafkaUsagePublisher {
	return &KafkaUsagePublisher{producer: producer, topic: topic}
}

func (p *KafkaUsagePublisher) PublishUsage(ctx context.Context, event UsageEvent) error {
	if p.producer == nil {
		return errors.New("producer is nil")
	}
	if p.topic == "" {
		return errors.New("topic is required")
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := mq.NewMessage(body)
	msg.ID = event.ExecutionID
	msg.SetHeader("x-event-type", "usage")
	return p.producer.Publish(ctx, p.topic, msg)
}

func (p *KafkaUsagePublisher) Close() error {
	if p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
