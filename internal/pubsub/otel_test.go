package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupOTel(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled tracing", func(t *testing.T) {
		tracer, shutdown, err := SetupOTel(ctx, TracingConfig{Enabled: false})
		require.NoError(t, err)
		require.NotNil(t, tracer)

		_, span := tracer.Start(ctx, "test")
		span.End()
		assert.NoError(t, shutdown(ctx))
	})

	t.Run("enabled tracing with unreachable collector", func(t *testing.T) {
		cfg := TracingConfig{
			Enabled:     true,
			ServiceName: "test-service",
			ZipkinURL:   "http://invalid-url:9411/api/v2/spans",
		}
		tracer, shutdown, err := SetupOTel(ctx, cfg)
		require.NoError(t, err)
		require.NotNil(t, tracer)
		assert.NoError(t, shutdown(ctx))
	})

	t.Run("defaults are disabled", func(t *testing.T) {
		cfg := DefaultTracingConfig()
		assert.False(t, cfg.Enabled)
		assert.Equal(t, "together", cfg.ServiceName)
	})
}

func TestTracedBridgeDeliversMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracer, shutdown, err := SetupOTel(ctx, TracingConfig{Enabled: false})
	require.NoError(t, err)
	defer shutdown(ctx)

	bridge := NewWatermillBridgeWithTracer(tracer)
	defer bridge.Close()

	received := make(chan Message, 1)
	require.NoError(t, bridge.Subscribe(ctx, "chat/1", func(ctx context.Context, msg Message) error {
		received <- msg
		return nil
	}))

	require.NoError(t, bridge.Publish(ctx, Message{
		Topic:    "chat/1",
		UserID:   "7",
		Payload:  []byte(`{"kind":"message"}`),
		Metadata: map[string]string{"event_kind": "message"},
	}))

	select {
	case msg := <-received:
		assert.Equal(t, "chat/1", msg.Topic)
		assert.Equal(t, "7", msg.UserID)
		assert.Equal(t, "message", msg.Metadata["event_kind"])
	case <-time.After(2 * time.Second):
		t.Fatal("message was not delivered")
	}
}
