package repository

import (
	"context"
	"fmt"

	"marketminds/internal/domain/models"
	domrepo "marketminds/internal/domain/repository"
	"marketminds/pkg/kafka"
)

// KafkaEventPublisher emits training job lifecycle events to a Kafka topic,
// keyed by symbol so per-symbol ordering is preserved across partitions.
type KafkaEventPublisher struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaEventPublisher(producer *kafka.Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) PublishJobEvent(ctx context.Context, j *models.TrainingJob) error {
	if err := p.producer.Publish(ctx, p.topic, []byte(j.Symbol), j); err != nil {
		return fmt.Errorf("publish job event %s/%s: %w", j.Symbol, j.Status, err)
	}
	return nil
}

func (p *KafkaEventPublisher) Close() error { return p.producer.Close() }

// NoopEventPublisher is used when Kafka is disabled.
type NoopEventPublisher struct{}

func (NoopEventPublisher) PublishJobEvent(context.Context, *models.TrainingJob) error { return nil }

func (NoopEventPublisher) Close() error { return nil }

var (
	_ domrepo.EventPublisher = (*KafkaEventPublisher)(nil)
	_ domrepo.EventPublisher = NoopEventPublisher{}
)
