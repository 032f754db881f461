package websocket

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"

	"github.com/nfrund/together/internal/domain"
	"github.com/nfrund/together/internal/middleware"
	"github.com/nfrund/together/internal/pubsub"
	"github.com/nfrund/together/internal/together"
	"github.com/nfrund/together/internal/topicmgr"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed for departures to go out after the peer has gone.
	disconnectWait = 5 * time.Second
)

// Endpoint serves the together websocket. Each connection gets its own
// together.Session; events reach the client through bus subscriptions
// opened per subscribed topic.
type Endpoint struct {
	hub        *together.Hub
	subscriber pubsub.Subscriber
	topics     *topicmgr.Manager
	sendBuffer int
	logger     *slog.Logger

	base     context.Context
	shutdown context.CancelFunc
}

// NewEndpoint creates the websocket endpoint. sendBuffer is the per-client
// outbound queue length.
func NewEndpoint(hub *together.Hub, subscriber pubsub.Subscriber, topics *topicmgr.Manager, sendBuffer int) *Endpoint {
	if sendBuffer < 1 {
		sendBuffer = 256
	}
	base, shutdown := context.WithCancel(context.Background())
	return &Endpoint{
		hub:        hub,
		subscriber: subscriber,
		topics:     topics,
		sendBuffer: sendBuffer,
		logger:     slog.Default().With("service", "websocket"),
		base:       base,
		shutdown:   shutdown,
	}
}

// Shutdown closes every open connection. Each closed session still
// broadcasts its departures.
func (e *Endpoint) Shutdown() {
	e.shutdown()
}

// Handler authenticates the request, upgrades it and serves the
// connection until it closes. Authentication failures are answered with
// 401 before the upgrade.
func (e *Endpoint) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		session := e.hub.NewSession()
		if err := session.Connect(ctx, middleware.Credentials(c)); err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required").SetInternal(err)
		}
		member, _ := session.Member()

		conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
			// Origin checks are left to the reverse proxy.
			InsecureSkipVerify: true,
		})
		if err != nil {
			e.logger.ErrorContext(ctx, "failed to upgrade connection to websocket", "error", err)
			_ = session.Disconnect(ctx)
			return nil
		}

		logger := e.logger.With("session_id", session.ID(), "member_id", member)
		client := newClient(session, conn, e.sendBuffer, logger)
		logger.InfoContext(ctx, "client connected")

		connCtx, cancel := context.WithCancel(e.base)
		defer cancel()

		done := make(chan struct{})
		go func() {
			defer close(done)
			e.writePump(connCtx, client)
		}()

		e.readPump(connCtx, client)

		client.dropAll()
		client.Close()
		<-done

		disconnectCtx, cancelDisconnect := context.WithTimeout(context.WithoutCancel(ctx), disconnectWait)
		defer cancelDisconnect()
		if err := session.Disconnect(disconnectCtx); err != nil {
			logger.WarnContext(ctx, "departure broadcast failed", "error", err)
		}
		logger.InfoContext(ctx, "client disconnected")
		return nil
	}
}

func (e *Endpoint) readPump(ctx context.Context, c *Client) {
	defer c.conn.Close(websocket.StatusNormalClosure, "client disconnected")

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				c.logger.Debug("websocket closed normally by client")
			} else {
				c.logger.Debug("websocket read ended", "error", err)
			}
			return
		}

		frame, err := parseFrame(data)
		if err != nil {
			c.SendMessage(encodeError(frame, err))
			continue
		}
		if err := e.dispatch(ctx, c, frame); err != nil {
			c.logger.DebugContext(ctx, "frame rejected", "action", frame.Action, "topic", frame.Topic, "error", err)
			c.SendMessage(encodeError(frame, err))
		}
	}
}

func (e *Endpoint) writePump(ctx context.Context, c *Client) {
	out := c.outbound()
	for msg := range out {
		writeCtx, cancel := context.WithTimeout(ctx, writeWait)
		err := c.conn.Write(writeCtx, websocket.MessageText, msg)
		cancel()
		if err != nil {
			c.logger.Debug("websocket write failed", "error", err)
			c.conn.Close(websocket.StatusInternalError, "write failed")
			// Keep draining so SendMessage never blocks on a dead client.
			for range out {
			}
			return
		}
	}
}

func (e *Endpoint) dispatch(ctx context.Context, c *Client, f Frame) error {
	if err := e.topics.ValidateKey(f.Topic, topicmgr.ScopePublic); err != nil {
		return errors.Join(domain.ErrInvalidTopic, err)
	}
	topic, err := together.ParseTopic(f.Topic)
	if err != nil {
		return err
	}

	switch f.Action {
	case ActionSubscribe:
		return e.subscribe(ctx, c, topic)
	case ActionUnsubscribe:
		c.opMu.Lock()
		defer c.opMu.Unlock()
		if err := c.session.Unsubscribe(ctx, topic); err != nil {
			return err
		}
		c.drop(topic)
		return nil
	case ActionSend:
		return c.session.Send(ctx, topic, f.Message)
	case ActionMove:
		return c.session.MoveVideo(ctx, topic, f.Payload)
	}
	return nil
}

// subscribe opens the bus subscription before joining so the client also
// sees its own join. An existing bus subscription is reused, so a member
// that was kicked or lost its membership can join again.
func (e *Endpoint) subscribe(ctx context.Context, c *Client, topic together.Topic) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	opened := false
	if !c.subscribed(topic) {
		subCtx, cancel := context.WithCancel(ctx)
		if err := e.subscriber.Subscribe(subCtx, topic.String(), e.deliver(c, topic)); err != nil {
			cancel()
			return err
		}
		c.track(topic, cancel)
		opened = true
	}

	err := c.session.Subscribe(ctx, topic)
	if err != nil && opened && !errors.Is(err, domain.ErrIdentityResolution) {
		c.drop(topic)
	}
	return err
}

// deliver forwards bus messages of topic to the client. A kick aimed at the
// client's own member also ends its subscription to the topic.
func (e *Endpoint) deliver(c *Client, topic together.Topic) pubsub.Handler {
	member, _ := c.session.Member()
	return func(ctx context.Context, msg pubsub.Message) error {
		kind := together.EventKind(msg.Metadata[together.MetaEventKind])
		switch kind {
		case together.KindDeparture:
			c.SendMessage(encodeDeparture(msg.Topic))
			return nil
		case together.KindKick:
			c.SendMessage(msg.Payload)
			if msg.UserID == member.String() {
				go e.leave(c, topic)
			}
			return nil
		}
		c.SendMessage(msg.Payload)
		return nil
	}
}

// leave closes the bus subscription of a topic the member was kicked from.
// A subscribe that ran after the kick keeps it open.
func (e *Endpoint) leave(c *Client, topic together.Topic) {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	if c.session.Subscribed(topic) {
		return
	}
	c.drop(topic)
}
