package api

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// RetryConfig configures retries of idempotent reads.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultRetryConfig retries a read up to three times starting at 500ms.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: 500 * time.Millisecond,
		MaxWait:     5 * time.Second,
		Multiplier:  2.0,
	}
}

// retry runs fn until it succeeds, fails permanently or attempts run out.
func (r RetryConfig) retry(ctx context.Context, fn func() error) error {
	attempts := max(r.MaxAttempts, 1)

	var lastErr error
	for attempt := range attempts {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !shouldRetry(err) {
			return err
		}
		if attempt == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.backoff(attempt, err)):
		}
	}
	return lastErr
}

// shouldRetry reports whether err is transient.
func shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var unavail *ErrUnavailable
	return errors.As(err, &unavail)
}

// backoff computes the wait before the next attempt.
func (r RetryConfig) backoff(attempt int, err error) time.Duration {
	var unavail *ErrUnavailable
	if errors.As(err, &unavail) && unavail.RetryAfter > 0 {
		return unavail.RetryAfter
	}

	wait := float64(r.InitialWait) * math.Pow(r.Multiplier, float64(attempt))
	if r.MaxWait > 0 && wait > float64(r.MaxWait) {
		wait = float64(r.MaxWait)
	}

	// ±20% jitter.
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}
