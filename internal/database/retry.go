package database

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"
)

// ExponentialBackoffRetryer retries an operation with exponential backoff
// and optional jitter.
type ExponentialBackoffRetryer struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	multiplier float64
	jitter     bool
}

// NewExponentialBackoffRetryer returns a retryer with production defaults.
func NewExponentialBackoffRetryer() *ExponentialBackoffRetryer {
	return &ExponentialBackoffRetryer{
		maxRetries: 5,
		baseDelay:  100 * time.Millisecond,
		maxDelay:   30 * time.Second,
		multiplier: 2.0,
		jitter:     true,
	}
}

// Retry runs fn until it succeeds, the attempts are exhausted, or ctx ends.
func (r *ExponentialBackoffRetryer) Retry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt == r.maxRetries {
			break
		}

		delay := r.delay(attempt)
		slog.DebugContext(ctx, "retry attempt failed",
			"attempt", attempt+1, "max_attempts", r.maxRetries+1,
			"delay_ms", delay.Milliseconds(), "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", r.maxRetries+1, lastErr)
}

func (r *ExponentialBackoffRetryer) delay(attempt int) time.Duration {
	d := float64(r.baseDelay) * math.Pow(r.multiplier, float64(attempt))
	if d > float64(r.maxDelay) {
		d = float64(r.maxDelay)
	}
	if r.jitter {
		// up to 25% extra
		d += rand.Float64() * d * 0.25
	}
	return time.Duration(d)
}
