package vatsim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"time"
)

// RetryConfig configures caller-side retries with exponential backoff.
// Client never retries on its own; wrap Resolve and the fetch calls with
// RetryWithBackoff when resilience is wanted.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (default: 3)
	MaxRetries int

	// InitialDelay is the initial backoff delay (default: 1 second)
	InitialDelay time.Duration

	// MaxDelay is the maximum backoff delay (default: 30 seconds)
	MaxDelay time.Duration

	// Multiplier is the backoff multiplier (default: 2.0 for exponential)
	Multiplier float64

	// Retryable decides whether an error is worth another attempt
	// (default: IsRetryable)
	Retryable func(error) bool

	// Logger receives a warning before each retry (optional)
	Logger *slog.Logger
}

// DefaultRetryConfig returns sensible defaults for polling the live feeds.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Retryable:    IsRetryable,
	}
}

// IsRetryable reports whether err looks transient: an unavailable status
// directory, a 429 or 5xx from a feed, or a network error. Malformed
// responses, empty pools and context cancellation are permanent.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrEmptyPool) {
		return false
	}
	if _, ok := IsMalformedResponse(err); ok {
		return false
	}
	if _, ok := IsUpstreamUnavailable(err); ok {
		return true
	}
	if fe, ok := IsFetchFailed(err); ok {
		return fe.StatusCode == http.StatusTooManyRequests || fe.StatusCode >= http.StatusInternalServerError
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// RetryWithBackoff executes fn until it succeeds, returns a permanent error,
// the retry budget is spent, or ctx is done.
//
// Example usage:
//
//	var ep vatsim.Endpoints
//	err := vatsim.RetryWithBackoff(ctx, vatsim.DefaultRetryConfig(), func() error {
//	    var err error
//	    ep, err = client.Resolve(ctx)
//	    return err
//	})
func RetryWithBackoff(ctx context.Context, cfg RetryConfig, fn func() error) error {
	_, err := RetryWithBackoffResult(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// RetryWithBackoffResult is RetryWithBackoff for functions that return a value.
// On failure the zero value of T is returned.
//
// Example usage:
//
//	snap, err := vatsim.RetryWithBackoffResult(ctx, cfg, func() (*vatsim.LiveSnapshot, error) {
//	    return client.FetchLiveSnapshot(ctx, ep)
//	})
func RetryWithBackoffResult[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	retryable := cfg.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(cfg, attempt)
			if cfg.Logger != nil {
				cfg.Logger.WarnContext(ctx, "retrying after error",
					slog.Int("attempt", attempt),
					slog.Duration("delay", delay),
					slog.Any("error", lastErr))
			}

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-timer.C:
			}
		}

		res, err := fn()
		if err == nil {
			return res, nil
		}
		lastErr = err

		if !retryable(err) {
			return zero, err
		}
	}

	return zero, fmt.Errorf("max retries (%d) exceeded: %w", cfg.MaxRetries, lastErr)
}

// backoffDelay returns min(InitialDelay * Multiplier^(attempt-1), MaxDelay).
func backoffDelay(cfg RetryConfig, attempt int) time.Duration {
	d := time.Duration(float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt-1)))
	if cfg.MaxDelay > 0 && d > cfg.MaxDelay {
		return cfg.MaxDelay
	}
	return d
}
