package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher publishes JSON messages through a single shared writer.
// The hash balancer routes every message for one key to the same partition.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher for the given brokers.
func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			BatchTimeout:           10 * time.Millisecond,
			WriteTimeout:           5 * time.Second,
			AllowAutoTopicCreation: true,
		},
	}
}

// Publish serializes payload and sends it keyed to topic. The short write
// timeout bounds how long a mutation path can stall on an unreachable broker.
func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", topic, err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// KafkaConsumer wraps a consumer-group reader for one topic.
type KafkaConsumer struct {
	reader *kafka.Reader
}

// NewKafkaConsumer joins the consumer group for a topic. Offsets are
// committed automatically after each read; redelivery after a crash is
// expected and handled by the processor's dedup window.
func NewKafkaConsumer(brokers []string, topic, groupID string) *KafkaConsumer {
	return &KafkaConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     brokers,
			Topic:       topic,
			GroupID:     groupID,
			StartOffset: kafka.FirstOffset,
			MinBytes:    1,
			MaxBytes:    1 << 20,
			MaxWait:     time.Second,
		}),
	}
}

// Fetch returns the next message for the group.
func (c *KafkaConsumer) Fetch(ctx context.Context) (Message, error) {
	msg, err := c.reader.ReadMessage(ctx)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Topic: msg.Topic,
		Key:   string(msg.Key),
		Value: msg.Value,
	}, nil
}

// Close leaves the consumer group and closes the connection.
func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}

// NopPublisher discards every message. It stands in for the Kafka publisher
// when the broker is disabled or unreachable at startup so catalog mutations
// keep working without event delivery.
type NopPublisher struct{}

// Publish logs and drops the message.
func (NopPublisher) Publish(_ context.Context, topic, key string, _ interface{}) error {
	log.Printf("[NopPublisher] dropping event topic=%s key=%s", topic, key)
	return nil
}

// Close is a no-op.
func (NopPublisher) Close() error { return nil }

var (
	_ Publisher = (*KafkaPublisher)(nil)
	_ Consumer  = (*KafkaConsumer)(nil)
	_ Publisher = NopPublisher{}
)
