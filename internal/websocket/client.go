package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/coder/websocket"

	"github.com/nfrund/together/internal/together"
)

// Client is one websocket connection and its together session.
type Client struct {
	ID      string
	session *together.Session
	conn    *websocket.Conn

	mu   sync.RWMutex
	send chan []byte

	// opMu serializes subscription changes of this connection.
	opMu   sync.Mutex
	subsMu sync.Mutex
	subs   map[together.Topic]context.CancelFunc

	logger *slog.Logger
}

func newClient(session *together.Session, conn *websocket.Conn, buffer int, logger *slog.Logger) *Client {
	return &Client{
		ID:      session.ID(),
		session: session,
		conn:    conn,
		send:    make(chan []byte, buffer),
		subs:    make(map[together.Topic]context.CancelFunc),
		logger:  logger,
	}
}

// SendMessage queues msg for the write pump. A full queue drops the
// message rather than stall the bus.
func (c *Client) SendMessage(msg []byte) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.send == nil {
		return
	}
	select {
	case c.send <- msg:
	default:
		c.logger.Warn("client send channel full, dropping message")
	}
}

// Close ends the send queue. Later SendMessage calls are no-ops.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.send != nil {
		close(c.send)
		c.send = nil
	}
}

func (c *Client) outbound() <-chan []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.send
}

func (c *Client) subscribed(topic together.Topic) bool {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	_, ok := c.subs[topic]
	return ok
}

func (c *Client) track(topic together.Topic, cancel context.CancelFunc) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	c.subs[topic] = cancel
}

// drop cancels the bus subscription for topic.
func (c *Client) drop(topic together.Topic) {
	c.subsMu.Lock()
	cancel, ok := c.subs[topic]
	delete(c.subs, topic)
	c.subsMu.Unlock()
	if ok {
		cancel()
	}
}

func (c *Client) dropAll() {
	c.subsMu.Lock()
	subs := c.subs
	c.subs = make(map[together.Topic]context.CancelFunc)
	c.subsMu.Unlock()
	for _, cancel := range subs {
		cancel()
	}
}
