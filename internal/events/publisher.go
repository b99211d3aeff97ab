package events

import (
	"context"

	"github.com/picktoride/service-rental/internal/messaging"
	"github.com/picktoride/service-rental/internal/platform/kafka"
)

// eventWriter is the part of kafka.Producer the publisher needs.
type eventWriter interface {
	PublishEventWithKey(ctx context.Context, topic, key string, event kafka.CloudEvent) error
}

// KafkaPublisher wraps domain events in CloudEvents and writes them to Kafka.
type KafkaPublisher struct {
	writer eventWriter
	source string
}

// NewKafkaPublisher creates a publisher on top of producer.
func NewKafkaPublisher(producer *kafka.Producer) *KafkaPublisher {
	return &KafkaPublisher{writer: producer, source: messaging.Source}
}

// Publish sends data as eventType on topic, partitioned by key.
func (p *KafkaPublisher) Publish(ctx context.Context, topic, eventType, key string, data interface{}) error {
	ce, err := kafka.NewCloudEvent(p.source, eventType, data)
	if err != nil {
		return err
	}
	return p.writer.PublishEventWithKey(ctx, topic, key, ce)
}
