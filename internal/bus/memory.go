package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// ErrBusClosed is returned by Fetch after the bus shuts down.
var ErrBusClosed = errors.New("bus closed")

const memoryTopicBuffer = 1024

// MemoryBus is an in-process bus used by tests and single-process setups.
// Each topic is one FIFO channel, so messages for the same key are always
// delivered in publish order, matching the partition-affinity guarantee the
// Kafka publisher gets from its hash balancer.
type MemoryBus struct {
	mu     sync.Mutex
	topics map[string]chan Message
	closed bool
}

// NewMemoryBus creates an empty in-memory bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{topics: make(map[string]chan Message)}
}

func (b *MemoryBus) channel(topic string) (chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBusClosed
	}
	ch, ok := b.topics[topic]
	if !ok {
		ch = make(chan Message, memoryTopicBuffer)
		b.topics[topic] = ch
	}
	return ch, nil
}

// Publish serializes payload and appends it to the topic's queue.
func (b *MemoryBus) Publish(_ context.Context, topic, key string, payload interface{}) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", topic, err)
	}
	ch, err := b.channel(topic)
	if err != nil {
		return err
	}
	select {
	case ch <- Message{Topic: topic, Key: key, Value: value}:
		return nil
	default:
		return fmt.Errorf("topic %s buffer full", topic)
	}
}

// Consumer returns a pull handle for one topic. Multiple consumers on the
// same topic compete for messages, like members of one consumer group.
func (b *MemoryBus) Consumer(topic string) (Consumer, error) {
	ch, err := b.channel(topic)
	if err != nil {
		return nil, err
	}
	return &memoryConsumer{ch: ch}, nil
}

// Depth reports how many messages are waiting on a topic.
func (b *MemoryBus) Depth(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.topics[topic])
}

// Close rejects further publishes. Buffered messages stay readable until
// each consumer drains or closes.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

type memoryConsumer struct {
	ch     chan Message
	mu     sync.Mutex
	closed bool
}

func (c *memoryConsumer) Fetch(ctx context.Context) (Message, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return Message{}, ErrBusClosed
	}

	// Drain buffered messages before honoring cancellation so tests see
	// everything that was published prior to shutdown.
	select {
	case msg := <-c.ch:
		return msg, nil
	default:
	}

	select {
	case msg := <-c.ch:
		return msg, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

func (c *memoryConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

var (
	_ Publisher = (*MemoryBus)(nil)
	_ Consumer  = (*memoryConsumer)(nil)
)
