// Package retry wraps single reads against external collaborators with
// bounded exponential backoff. Transient failures (network-class errors)
// are retried; everything else propagates immediately.
package retry

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Config controls the retry loop.
type Config struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultConfig returns the production retry settings.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   10 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaults.MaxRetries
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = defaults.BaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = defaults.MaxDelay
	}
	return c
}

// Do executes fn, retrying transient failures up to cfg.MaxRetries times.
// Waits grow as base*2^attempt capped at cfg.MaxDelay and never decrease.
// Terminal errors and exhausted retries surface to the caller; a cancelled
// context aborts any pending wait.
func Do[T any](ctx context.Context, cfg Config, fn func(context.Context) (T, error)) (T, error) {
	cfg = cfg.withDefaults()

	bo := &backoff.ExponentialBackOff{
		InitialInterval:     2 * cfg.BaseDelay,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         cfg.MaxDelay,
	}
	bo.Reset()

	return backoff.Retry(ctx, func() (T, error) {
		value, err := fn(ctx)
		if err != nil && !IsTransient(err) {
			return value, backoff.Permanent(err)
		}
		return value, err
	},
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(cfg.MaxRetries)+1),
	)
}

var transientMarkers = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"fetch failed",
	"timeout",
	"timed out",
	"temporary failure",
	"no such host",
}

// IsTransient reports whether err looks like a recoverable network-class
// failure. Context cancellation is not transient: the caller is gone.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
