package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/nfrund/together/internal/config"
)

// ErrNotConnected is returned when no healthy connection is available.
var ErrNotConnected = errors.New("database not connected")

// Connection manages one SurrealDB connection with health monitoring and
// reconnect on connection-level failures.
type Connection struct {
	cfg     config.SurrealConfig
	conn    *surrealdb.DB
	retryer *ExponentialBackoffRetryer
	mu      sync.RWMutex
	healthy bool
	done    chan struct{}
	once    sync.Once
	logger  *slog.Logger
}

// NewConnection creates an unconnected manager for cfg.
func NewConnection(cfg config.SurrealConfig) *Connection {
	return &Connection{
		cfg:     cfg,
		retryer: NewExponentialBackoffRetryer(),
		done:    make(chan struct{}),
		logger:  slog.Default().With("service", "database", "db_url", redactDBURL(cfg.URL)),
	}
}

// Connect establishes the initial connection.
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}
	return c.reconnect(ctx)
}

// WithConnection runs fn against the live connection. If fn fails with a
// connection-level error the connection is re-established with backoff and
// fn is retried.
func (c *Connection) WithConnection(ctx context.Context, fn func(*surrealdb.DB) error) error {
	conn := c.getConnection()
	if conn == nil {
		return ErrNotConnected
	}

	err := fn(conn)
	if err == nil || !isConnectionError(err) {
		return err
	}

	c.logger.WarnContext(ctx, "database operation failed, reconnecting", "error", err)
	return c.retryer.Retry(ctx, func() error {
		if reconnectErr := c.forceReconnect(ctx); reconnectErr != nil {
			return fmt.Errorf("reconnection failed: %w (original error: %v)", reconnectErr, err)
		}
		return fn(c.getConnection())
	})
}

// StartMonitoring begins periodic health checks.
func (c *Connection) StartMonitoring(interval time.Duration) {
	go c.monitor(interval)
}

// Close stops monitoring and closes the connection.
func (c *Connection) Close(ctx context.Context) error {
	c.once.Do(func() { close(c.done) })

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close(ctx)
	c.conn = nil
	c.healthy = false
	return err
}

// DB returns the live connection, or ErrNotConnected when it is absent or
// failed its last health check.
func (c *Connection) DB() (*surrealdb.DB, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.conn == nil || !c.healthy {
		return nil, ErrNotConnected
	}
	return c.conn, nil
}

// Shutdown closes the connection when the service container shuts down.
func (c *Connection) Shutdown(ctx context.Context) error {
	return c.Close(ctx)
}

// IsHealthy reports the result of the last connect or health check.
func (c *Connection) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.healthy
}

// QueryTimeout is the per-query deadline callers should apply.
func (c *Connection) QueryTimeout() time.Duration {
	return c.cfg.QueryTimeout
}

func (c *Connection) getConnection() *surrealdb.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn
}

// reconnect must be called with mu held.
func (c *Connection) reconnect(ctx context.Context) error {
	if c.conn != nil {
		_ = c.conn.Close(ctx)
		c.conn = nil
	}
	c.healthy = false

	conn, err := surrealdb.FromEndpointURLString(ctx, c.cfg.URL)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", redactDBURL(c.cfg.URL), err)
	}

	if c.cfg.User != "" {
		if _, err = conn.SignIn(ctx, &surrealdb.Auth{Username: c.cfg.User, Password: c.cfg.Pass}); err != nil {
			_ = conn.Close(ctx)
			return fmt.Errorf("sign in as %s: %w", c.cfg.User, err)
		}
	}

	if err = conn.Use(ctx, c.cfg.Namespace, c.cfg.Database); err != nil {
		_ = conn.Close(ctx)
		return fmt.Errorf("use %s/%s: %w", c.cfg.Namespace, c.cfg.Database, err)
	}

	c.conn = conn
	c.healthy = true
	c.logger.DebugContext(ctx, "database connection established", "namespace", c.cfg.Namespace, "database", c.cfg.Database)
	return nil
}

func (c *Connection) forceReconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reconnect(ctx)
}

func (c *Connection) monitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := c.checkHealth(ctx); err != nil {
				c.logger.WarnContext(ctx, "database health check failed", "error", err)
				if err := c.retryer.Retry(ctx, func() error { return c.forceReconnect(ctx) }); err != nil {
					c.logger.ErrorContext(ctx, "database reconnect failed", "error", err)
				}
			}
			cancel()
		case <-c.done:
			return
		}
	}
}

func (c *Connection) checkHealth(ctx context.Context) error {
	conn := c.getConnection()
	if conn == nil {
		return ErrNotConnected
	}

	_, err := conn.Version(ctx)

	c.mu.Lock()
	c.healthy = err == nil
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	return nil
}

// isConnectionError reports whether err looks like a lost connection rather
// than an application error.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "unexpected eof")
}

// redactDBURL hides any password in a database URL.
func redactDBURL(dbURL string) string {
	parsed, err := url.Parse(dbURL)
	if err != nil {
		return "invalid-url"
	}
	return parsed.Redacted()
}
