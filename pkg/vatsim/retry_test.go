package vatsim

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"
)

var errTransient = &FetchFailedError{URL: "https://data.example/v3", StatusCode: 503}

func fastRetryConfig(maxRetries int) RetryConfig {
	return RetryConfig{
		MaxRetries:   maxRetries,
		InitialDelay: 5 * time.Millisecond,
		MaxDelay:     20 * time.Millisecond,
		Multiplier:   2.0,
	}
}

// TestRetryWithBackoff tests basic retry logic.
func TestRetryWithBackoff(t *testing.T) {
	t.Run("Success on first attempt", func(t *testing.T) {
		attempts := 0
		err := RetryWithBackoff(context.Background(), fastRetryConfig(3), func() error {
			attempts++
			return nil
		})

		if err != nil {
			t.Errorf("Expected no error, got: %v", err)
		}
		if attempts != 1 {
			t.Errorf("Expected 1 attempt, got %d", attempts)
		}
	})

	t.Run("Success after retries", func(t *testing.T) {
		attempts := 0
		err := RetryWithBackoff(context.Background(), fastRetryConfig(3), func() error {
			attempts++
			if attempts < 3 {
				return errTransient
			}
			return nil
		})

		if err != nil {
			t.Errorf("Expected no error, got: %v", err)
		}
		if attempts != 3 {
			t.Errorf("Expected 3 attempts, got %d", attempts)
		}
	})

	t.Run("Max retries exceeded", func(t *testing.T) {
		attempts := 0
		err := RetryWithBackoff(context.Background(), fastRetryConfig(3), func() error {
			attempts++
			return errTransient
		})

		if !errors.Is(err, errTransient) {
			t.Errorf("Expected last error to be wrapped, got: %v", err)
		}
		// initial + 3 retries
		if attempts != 4 {
			t.Errorf("Expected 4 attempts, got %d", attempts)
		}
	})

	t.Run("Permanent error stops immediately", func(t *testing.T) {
		attempts := 0
		malformed := &MalformedResponseError{URL: "x", Err: errors.New("bad json")}
		err := RetryWithBackoff(context.Background(), fastRetryConfig(3), func() error {
			attempts++
			return malformed
		})

		if !errors.Is(err, malformed) {
			t.Errorf("Expected malformed error, got: %v", err)
		}
		if attempts != 1 {
			t.Errorf("Expected 1 attempt, got %d", attempts)
		}
	})

	t.Run("Custom classifier", func(t *testing.T) {
		attempts := 0
		cfg := fastRetryConfig(2)
		cfg.Retryable = func(error) bool { return true }
		RetryWithBackoff(context.Background(), cfg, func() error {
			attempts++
			return errors.New("anything")
		})

		if attempts != 3 {
			t.Errorf("Expected 3 attempts, got %d", attempts)
		}
	})

	t.Run("Context cancellation", func(t *testing.T) {
		attempts := 0
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := RetryWithBackoff(ctx, DefaultRetryConfig(), func() error {
			attempts++
			return errTransient
		})

		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled error, got: %v", err)
		}
		if attempts != 1 {
			t.Errorf("Expected 1 attempt, got %d", attempts)
		}
	})

	t.Run("Context timeout during backoff", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()

		cfg := RetryConfig{MaxRetries: 10, InitialDelay: time.Second, MaxDelay: time.Second, Multiplier: 2.0}
		start := time.Now()
		err := RetryWithBackoff(ctx, cfg, func() error { return errTransient })

		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Expected deadline exceeded, got: %v", err)
		}
		if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
			t.Errorf("Expected quick timeout, took %v", elapsed)
		}
	})
}

// TestRetryWithBackoffResult tests retry with result return.
func TestRetryWithBackoffResult(t *testing.T) {
	t.Run("Success with result", func(t *testing.T) {
		attempts := 0
		result, err := RetryWithBackoffResult(context.Background(), fastRetryConfig(3), func() (string, error) {
			attempts++
			if attempts < 2 {
				return "partial", errTransient
			}
			return "success", nil
		})

		if err != nil {
			t.Errorf("Expected no error, got: %v", err)
		}
		if result != "success" {
			t.Errorf("Expected result 'success', got %s", result)
		}
	})

	t.Run("Failure returns zero value", func(t *testing.T) {
		result, err := RetryWithBackoffResult(context.Background(), fastRetryConfig(1), func() (int, error) {
			return 7, errTransient
		})

		if err == nil {
			t.Error("Expected error")
		}
		if result != 0 {
			t.Errorf("Expected zero value, got %d", result)
		}
	})
}

func TestBackoffDelay(t *testing.T) {
	cfg := RetryConfig{InitialDelay: 10 * time.Millisecond, MaxDelay: 50 * time.Millisecond, Multiplier: 2.0}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 10 * time.Millisecond},
		{2, 20 * time.Millisecond},
		{3, 40 * time.Millisecond},
		{4, 50 * time.Millisecond},
		{10, 50 * time.Millisecond},
	}

	for _, tt := range tests {
		if got := backoffDelay(cfg, tt.attempt); got != tt.want {
			t.Errorf("Attempt %d: expected %v, got %v", tt.attempt, tt.want, got)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"upstream unavailable", &UpstreamUnavailableError{StatusCode: 503}, true},
		{"too many requests", &FetchFailedError{StatusCode: 429}, true},
		{"server error", &FetchFailedError{StatusCode: 500}, true},
		{"not found", &FetchFailedError{StatusCode: 404}, false},
		{"wrapped server error", fmt.Errorf("fetch: %w", &FetchFailedError{StatusCode: 502}), true},
		{"malformed", &MalformedResponseError{Err: errors.New("x")}, false},
		{"empty pool", fmt.Errorf("select v3 mirror: %w", ErrEmptyPool), false},
		{"network", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, true},
		{"cancelled", context.Canceled, false},
		{"plain", errors.New("plain"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()

	if cfg.MaxRetries != 3 {
		t.Errorf("Expected MaxRetries 3, got %d", cfg.MaxRetries)
	}
	if cfg.InitialDelay != time.Second {
		t.Errorf("Expected InitialDelay 1s, got %v", cfg.InitialDelay)
	}
	if cfg.MaxDelay != 30*time.Second {
		t.Errorf("Expected MaxDelay 30s, got %v", cfg.MaxDelay)
	}
	if cfg.Retryable == nil {
		t.Error("Expected default classifier")
	}
}
