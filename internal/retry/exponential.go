package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"syscall"
	"time"

	"scholarship/internal/metrics"
)

// ExponentialBackoffStrategy implements retry with exponential backoff
type ExponentialBackoffStrategy struct {
	maxRetries   int
	initialDelay time.Duration
	maxDelay     time.Duration
}

// NewExponentialBackoffStrategy creates a new ExponentialBackoffStrategy
func NewExponentialBackoffStrategy(maxRetries int, initialDelay, maxDelay time.Duration) *ExponentialBackoffStrategy {
	return &ExponentialBackoffStrategy{
		maxRetries:   maxRetries,
		initialDelay: initialDelay,
		maxDelay:     maxDelay,
	}
}

// Execute runs the operation with exponential backoff retry logic
func (s *ExponentialBackoffStrategy) Execute(ctx context.Context, name string, operation Operation) error {
	var lastErr error
	delay := s.initialDelay

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		err := operation(ctx)
		if err == nil {
			if attempt > 0 {
				slog.Info("Operation succeeded after retry",
					"operation", name,
					"attempt", attempt+1,
				)
			}
			return nil
		}

		lastErr = err

		if !isRecoverableError(err) {
			slog.Error("Non-recoverable error, failing immediately",
				"operation", name,
				"error", err,
				"attempt", attempt+1,
			)
			return err
		}

		if attempt >= s.maxRetries {
			break
		}

		slog.Warn("Operation failed, retrying with exponential backoff",
			"operation", name,
			"attempt", attempt+1,
			"max_attempts", s.maxRetries+1,
			"retry_in", delay,
			"error", err,
		)

		metrics.ConnectRetries.WithLabelValues(name).Inc()

		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled during retry of %s: %w", name, ctx.Err())
		case <-time.After(delay):
			delay *= 2
			if delay > s.maxDelay {
				delay = s.maxDelay
			}
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", name, s.maxRetries+1, lastErr)
}

// Name returns the strategy name
func (s *ExponentialBackoffStrategy) Name() string {
	return "ExponentialBackoff"
}

// isRecoverableError determines if an error is a connectivity problem worth retrying
func isRecoverableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}

	errStr := strings.ToLower(err.Error())

	// Drivers often flatten network errors into strings
	recoverablePatterns := []string{
		"connection reset by peer",
		"connection refused",
		"timeout",
		"temporary failure",
		"network is unreachable",
		"broken pipe",
		"no such host",
		"dial tcp",
		"the database system is starting up",
		"loading the dataset in memory",
		"database is locked",
	}

	for _, pattern := range recoverablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}
