package events

import (
	"context"
	"errors"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var newKafkaWriter = func(brokers []string, topic string) messageWriter {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

// KafkaPublisher writes events keyed by report id, so events of one
// report stay on one partition.
type KafkaPublisher struct {
	w messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, errors.New("kafka brokers and topic are required")
	}
	return &KafkaPublisher{w: newKafkaWriter(brokers, topic)}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	value, err := e.encode()
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, kafka.Message{Key: e.key(), Value: value})
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
