package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/unklstewy/vatsim-scope/pkg/config"
)

// ReconnectWithRetry attempts to connect to the database with exponential backoff.
//
// Parameters:
//   - maxRetries: Maximum number of connection attempts (0 = until ctx is done)
//   - initialDelay: Initial wait time between attempts, doubled up to 60 seconds
func ReconnectWithRetry(ctx context.Context, cfg config.DatabaseConfig, maxRetries int, initialDelay time.Duration, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	delay := initialDelay

	for attempt := 1; ; attempt++ {
		logger.Debug("database connection attempt", slog.Int("attempt", attempt))

		db, err := Connect(cfg)
		if err == nil {
			logger.Info("database connected", slog.String("host", cfg.Host), slog.String("driver", cfg.Driver))
			return db, nil
		}

		if maxRetries > 0 && attempt >= maxRetries {
			return nil, fmt.Errorf("database unavailable after %d attempts: %w", attempt, err)
		}

		logger.Warn("database connection failed",
			slog.Any("error", err),
			slog.Duration("retry_in", delay))

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("database reconnect cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		delay *= 2
		if delay > 60*time.Second {
			delay = 60 * time.Second
		}
	}
}

// EnsureConnection checks if the database connection is alive and reconnects if needed.
//
// Returns: Active database connection (either original or new) and error
func EnsureConnection(ctx context.Context, db *DB, cfg config.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if db == nil {
		logger.Warn("database connection is nil, reconnecting")
		return ReconnectWithRetry(ctx, cfg, 3, time.Second, logger)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		logger.Warn("database connection lost, reconnecting", slog.Any("error", err))
		db.Close()
		return ReconnectWithRetry(ctx, cfg, 3, time.Second, logger)
	}

	return db, nil
}

// HealthCheck pings the database and runs a trivial query.
func HealthCheck(ctx context.Context, db *DB) error {
	if db == nil {
		return errors.New("database not connected")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("query: %w", err)
	}
	if result != 1 {
		return fmt.Errorf("unexpected health check result %d", result)
	}

	return nil
}

// WithRetry executes a database operation, retrying it when the error looks
// like a dropped connection. Other errors are returned at once.
func WithRetry(ctx context.Context, operation func() error, maxRetries int) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isConnectionError(err) {
			return err
		}

		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return fmt.Errorf("database retry cancelled: %w", ctx.Err())
			case <-time.After(time.Duration(attempt+1) * time.Second):
			}
		}
	}

	return lastErr
}

var connErrorPatterns = []string{
	"connection refused",
	"broken pipe",
	"no connection",
	"connection reset",
	"bad connection",
	"eof",
	"timeout",
}

func isConnectionError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, p := range connErrorPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
