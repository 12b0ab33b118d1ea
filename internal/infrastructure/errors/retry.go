package errors

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
)

// RetryLogger receives one line per failed or recovered attempt
type RetryLogger interface {
	Printf(format string, v ...interface{})
}

// RetryConfig controls WithRetry's backoff
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	Jitter          bool        // up to 25% extra per delay
	RetryableErrors []ErrorCode // only retryable ShellErrors with one of these codes are retried
}

var retryLogger RetryLogger

// DefaultRetryConfig suits local SQLite calls
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        true,
		RetryableErrors: []ErrorCode{
			ErrCodeConnection,
			ErrCodeTimeout,
			ErrCodeBusy,
		},
	}
}

// LinkRetryConfig suits the overlay process dialling its parent. The parent
// listens before spawning, so failures are brief and retried quickly.
func LinkRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   6,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
		RetryableErrors: []ErrorCode{
			ErrCodeConnection,
			ErrCodeTimeout,
		},
	}
}

// RetryableOperation is one attempt of a retried call
type RetryableOperation func() error

// SetRetryLogger sets where retry messages go; nil silences them
func SetRetryLogger(logger RetryLogger) {
	retryLogger = logger
}

func logRetryMessage(format string, v ...interface{}) {
	if retryLogger != nil {
		retryLogger.Printf(format, v...)
	}
}

// WithRetry runs operation until it succeeds, fails with an error that
// config does not retry, or runs out of attempts
func WithRetry(ctx context.Context, config *RetryConfig, operation RetryableOperation) error {
	return WithRetryContext(ctx, config, operation, "")
}

// WithRetryContext is WithRetry with the operation named in log lines and errors
func WithRetryContext(ctx context.Context, config *RetryConfig, operation RetryableOperation, operationName string) error {
	if config == nil {
		config = DefaultRetryConfig()
	}
	label := "Operation"
	if operationName != "" {
		label = fmt.Sprintf("Operation '%s'", operationName)
	}

	var lastErr error
	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		err := operation()
		if err == nil {
			if attempt > 0 {
				logRetryMessage("%s succeeded after %d attempts", label, attempt+1)
			}
			return nil
		}
		lastErr = err

		if !shouldRetry(err, config) {
			if operationName != "" {
				logRetryMessage("%s failed with non-retryable error: %v", label, err)
			}
			return err
		}
		if attempt == config.MaxAttempts-1 {
			break
		}

		delay := calculateDelay(attempt, config)
		logRetryMessage("%s failed (attempt %d/%d), retrying in %v: %v",
			label, attempt+1, config.MaxAttempts, delay, err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			if operationName != "" {
				return fmt.Errorf("operation '%s' cancelled during retry: %w", operationName, ctx.Err())
			}
			return ctx.Err()
		case <-timer.C:
		}
	}

	if operationName != "" {
		return fmt.Errorf("operation '%s' failed after %d attempts: %w", operationName, config.MaxAttempts, lastErr)
	}
	return fmt.Errorf("operation failed after %d attempts: %w", config.MaxAttempts, lastErr)
}

func shouldRetry(err error, config *RetryConfig) bool {
	var shellErr *ShellError
	if !errors.As(err, &shellErr) || !shellErr.IsRetryable() {
		return false
	}
	return slices.Contains(config.RetryableErrors, shellErr.Code)
}

// calculateDelay is InitialDelay * BackoffFactor^attempt plus jitter, capped at MaxDelay
func calculateDelay(attempt int, config *RetryConfig) time.Duration {
	multiplier := 1.0
	for i := 0; i < attempt; i++ {
		multiplier *= config.BackoffFactor
	}
	delay := time.Duration(float64(config.InitialDelay) * multiplier)

	if config.Jitter && delay > 0 {
		if jitter := time.Duration(float64(delay) * 0.25); jitter > 0 {
			delay += time.Duration(time.Now().UnixNano() % int64(jitter))
		}
	}
	return min(delay, config.MaxDelay)
}
