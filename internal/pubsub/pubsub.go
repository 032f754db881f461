package pubsub

import (
	"context"
)

// Message is the envelope carried on the bus.
type Message struct {
	// Topic is the bus channel, e.g. "chat/42".
	Topic string
	// UserID is the member that caused the message, if any.
	UserID string
	// Payload is the encoded event. It may be empty.
	Payload []byte
	// Metadata carries small string attributes such as the event kind.
	Metadata map[string]string
}

// Handler processes a received message.
type Handler func(ctx context.Context, msg Message) error

// Publisher sends messages to the bus.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber receives messages from the bus.
type Subscriber interface {
	// Subscribe registers handler for topic and returns immediately.
	// Delivery stops when ctx is canceled.
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}
