package errors

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig holds configuration for retry behavior.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64

	// Retryable decides whether an error is worth another attempt. A nil
	// classifier retries everything.
	Retryable func(error) bool

	// OnRetry is invoked before each sleep, letting callers surface the
	// retry (for example as a streaming event) instead of a silent delay.
	OnRetry func(attempt int, wait time.Duration, err error)
}

// DefaultRetryConfig returns a sensible default retry configuration.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2.0,
	}
}

// RetryWithBackoff executes fn with bounded exponential backoff. It stops
// early on context cancellation and on errors the classifier rejects.
func RetryWithBackoff(ctx context.Context, config *RetryConfig, fn func() error) error {
	var err error
	delay := config.InitialDelay

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		if config.Retryable != nil && !config.Retryable(err) {
			return err
		}

		if attempt == config.MaxAttempts-1 {
			break
		}

		if config.OnRetry != nil {
			config.OnRetry(attempt+1, delay, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * config.BackoffFactor)
		if delay > config.MaxDelay {
			delay = config.MaxDelay
		}
	}

	return fmt.Errorf("after %d attempts, last error: %w", config.MaxAttempts, err)
}
