package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Config holds retry configuration.
type Config struct {
	// Attempts is the total number of times the operation may run.
	// An Attempts of 1 means the first failure is surfaced immediately.
	Attempts int

	// Delay is the fixed wait between attempts.
	Delay time.Duration

	// OnRetry runs before each re-attempt. Callers use it to re-establish
	// a broken session before the operation runs again. For an operation
	// that fails every time, it runs Attempts-1 times.
	OnRetry func(attempt int, err error)

	// Notify runs on every failure, including the final one, before the
	// retry decision is made. Callers use it to report the failure with
	// its attempt number.
	Notify func(attempt int, err error)
}

// Option is a functional option for retry configuration.
type Option func(*Config)

// WithFixedDelay executes the operation with bounded-attempt, fixed-delay
// retry. Context cancellation is respected during the delay between attempts.
//
// Errors wrapped with Fatal() are not retried.
func WithFixedDelay(ctx context.Context, operation func() error, opts ...Option) error {
	cfg := &Config{
		Attempts: 3,
		Delay:    2 * time.Second,
	}

	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}

	var lastErr error

	for attempt := 1; attempt <= cfg.Attempts; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}

		lastErr = err

		if cfg.Notify != nil {
			cfg.Notify(attempt, err)
		}

		// Check if error is fatal (non-retryable)
		if IsFatal(err) {
			return fmt.Errorf("fatal error (not retrying): %w", err)
		}

		if attempt == cfg.Attempts {
			break
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled after %d attempts: %w", attempt, ctx.Err())
		case <-time.After(cfg.Delay):
		}
	}

	if cfg.Attempts == 1 {
		return lastErr
	}
	return fmt.Errorf("operation failed after %d attempts: %w", cfg.Attempts, lastErr)
}

// WithAttempts sets the total number of attempts. Values below 1 are ignored.
func WithAttempts(n int) Option {
	return func(c *Config) {
		if n >= 1 {
			c.Attempts = n
		}
	}
}

// WithDelay sets the fixed delay between attempts.
func WithDelay(d time.Duration) Option {
	return func(c *Config) {
		c.Delay = d
	}
}

// WithOnRetry sets the recovery hook run before each re-attempt.
func WithOnRetry(f func(attempt int, err error)) Option {
	return func(c *Config) {
		c.OnRetry = f
	}
}

// WithNotify sets the reporting hook run on every failure.
func WithNotify(f func(attempt int, err error)) Option {
	return func(c *Config) {
		c.Notify = f
	}
}

// FatalError wraps an error to mark it as fatal (non-retryable).
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal marks an error as fatal (non-retryable).
// Operations that encounter fatal errors will not be retried.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsFatal checks if an error is fatal (non-retryable).
func IsFatal(err error) bool {
	var fatalErr *FatalError
	return errors.As(err, &fatalErr)
}
