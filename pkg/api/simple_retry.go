package api

import (
	"context"
	"time"
)

// SimpleRetry provides bounded retry with exponential backoff.
type SimpleRetry struct {
	maxRetries        int
	retryDelay        time.Duration
	backoffMultiplier float64
}

// NewSimpleRetry creates a retry helper. maxRetries of 0 means a single attempt.
func NewSimpleRetry(maxRetries int, retryDelay time.Duration) *SimpleRetry {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &SimpleRetry{
		maxRetries:        maxRetries,
		retryDelay:        retryDelay,
		backoffMultiplier: 2.0,
	}
}

// MaxRetries returns the configured retry budget.
func (sr *SimpleRetry) MaxRetries() int {
	return sr.maxRetries
}

// Execute runs fn until it succeeds, returns a non-retryable error, the
// budget is spent, or ctx is done.
func (sr *SimpleRetry) Execute(ctx context.Context, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= sr.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == sr.maxRetries {
			break
		}
		if ClassifyError(err) != ErrorSeverityRetryable {
			return err
		}

		delay := sr.backoff(attempt)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

func (sr *SimpleRetry) backoff(attempt int) time.Duration {
	delay := float64(sr.retryDelay)
	for i := 0; i < attempt; i++ {
		delay *= sr.backoffMultiplier
	}
	return time.Duration(delay)
}
