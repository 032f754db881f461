package pubsub

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// WatermillBridge implements Publisher and Subscriber on watermill's
// in-process GoChannel.
type WatermillBridge struct {
	pub    message.Publisher
	sub    message.Subscriber
	tracer trace.Tracer
	logger *slog.Logger
}

const (
	// Metadata keys used to carry Message fields through watermill.
	metaKeyUserID = "user_id"
	metaKeyTopic  = "topic"
)

// NewWatermillBridge creates an in-process bus. Publish returns once every
// subscriber has acknowledged the message, so subscribers see messages of a
// topic in publish order.
func NewWatermillBridge() *WatermillBridge {
	goChannel := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            64,
			BlockPublishUntilSubscriberAck: true,
		},
		watermill.NewStdLogger(false, false),
	)

	return &WatermillBridge{
		pub:    goChannel,
		sub:    goChannel,
		logger: slog.Default().With("service", "pubsub"),
	}
}

// NewWatermillBridgeWithTracer creates a bus whose publishes and handler
// invocations are recorded as spans.
func NewWatermillBridgeWithTracer(tracer trace.Tracer) *WatermillBridge {
	b := NewWatermillBridge()
	b.pub = NewPublisherTracingMiddleware(b.pub, tracer)
	b.tracer = tracer
	return b
}

func mapToWatermillMessage(ctx context.Context, msg Message) *message.Message {
	wmMsg := message.NewMessage(watermill.NewUUID(), msg.Payload)
	wmMsg.SetContext(ctx)

	wmMsg.Metadata.Set(metaKeyUserID, msg.UserID)
	wmMsg.Metadata.Set(metaKeyTopic, msg.Topic)
	for k, v := range msg.Metadata {
		wmMsg.Metadata.Set(k, v)
	}
	return wmMsg
}

func mapToPubSubMessage(wmMsg *message.Message) Message {
	metadata := make(map[string]string, len(wmMsg.Metadata))
	for k, v := range wmMsg.Metadata {
		if k != metaKeyTopic && k != metaKeyUserID {
			metadata[k] = v
		}
	}

	return Message{
		Topic:    wmMsg.Metadata.Get(metaKeyTopic),
		UserID:   wmMsg.Metadata.Get(metaKeyUserID),
		Payload:  wmMsg.Payload,
		Metadata: metadata,
	}
}

// Publish implements Publisher.
func (wb *WatermillBridge) Publish(ctx context.Context, msg Message) error {
	if msg.Topic == "" {
		return fmt.Errorf("publish: empty topic")
	}
	return wb.pub.Publish(msg.Topic, mapToWatermillMessage(ctx, msg))
}

// Subscribe implements Subscriber. Handler errors are logged and the
// message is still acknowledged; the in-process bus would otherwise
// redeliver it forever.
func (wb *WatermillBridge) Subscribe(ctx context.Context, topic string, handler Handler) error {
	messages, err := wb.sub.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}

	go func() {
		for wmMsg := range messages {
			if err := wb.handle(ctx, topic, wmMsg, handler); err != nil {
				wb.logger.Error("failed to handle message", "topic", topic, "msg_id", wmMsg.UUID, "error", err)
			}
			wmMsg.Ack()
		}
		wb.logger.Debug("subscription message loop ended", "topic", topic)
	}()

	return nil
}

func (wb *WatermillBridge) handle(ctx context.Context, topic string, wmMsg *message.Message, handler Handler) error {
	msg := mapToPubSubMessage(wmMsg)
	if wb.tracer == nil {
		return handler(ctx, msg)
	}

	spanCtx, span := wb.tracer.Start(ctx, "pubsub.process."+topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "watermill"),
			attribute.String("messaging.operation", "process"),
			attribute.String("messaging.destination", topic),
			attribute.String("messaging.message_id", wmMsg.UUID),
			attribute.String("user.id", msg.UserID),
		),
	)
	defer span.End()

	err := handler(spanCtx, msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// Close shuts the bus down and ends every subscription.
func (wb *WatermillBridge) Close() error {
	return wb.sub.Close()
}

// Shutdown closes the bus when the service container shuts down.
func (wb *WatermillBridge) Shutdown() error {
	return wb.Close()
}
