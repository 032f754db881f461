package together

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nfrund/together/internal/pubsub"
)

// Metadata keys set on every broadcast message.
const (
	MetaEventKind   = "event_kind"
	MetaBroadcastID = "broadcast_id"
)

// PubSubBroadcaster publishes events on the pubsub bus, one bus topic per
// together topic key.
type PubSubBroadcaster struct {
	publisher pubsub.Publisher
}

// NewPubSubBroadcaster wraps a publisher.
func NewPubSubBroadcaster(publisher pubsub.Publisher) *PubSubBroadcaster {
	return &PubSubBroadcaster{publisher: publisher}
}

// Broadcast implements Broadcaster.
func (b *PubSubBroadcaster) Broadcast(ctx context.Context, event Event) error {
	payload, err := event.Encode()
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Kind, err)
	}

	msg := pubsub.Message{
		Topic:   event.Topic.String(),
		Payload: payload,
		Metadata: map[string]string{
			MetaEventKind:   string(event.Kind),
			MetaBroadcastID: uuid.NewString(),
		},
	}
	if event.Member != 0 {
		msg.UserID = event.Member.String()
	}
	return b.publisher.Publish(ctx, msg)
}
