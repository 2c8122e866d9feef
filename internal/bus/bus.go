// Package bus wraps the publish/subscribe messaging layer. Producers attach
// the product id as the message key so the broker preserves per-product
// ordering; consumers pull one message at a time per topic.
package bus

import "context"

// Message is one delivered event.
type Message struct {
	Topic string
	Key   string
	Value []byte
}

// Publisher produces keyed JSON messages. Publish is best-effort from the
// caller's point of view: mutation paths log a non-nil error and move on,
// they never fail the triggering database write because of it.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload interface{}) error
	Close() error
}

// Consumer is a pull-based subscription to a single topic.
type Consumer interface {
	// Fetch blocks until the next message, a context cancellation, or a
	// transport error.
	Fetch(ctx context.Context) (Message, error)
	Close() error
}

// ConsumerFactory opens a consumer for a topic. Returning an error is fatal
// for that topic's processor only.
type ConsumerFactory func(topic string) (Consumer, error)
