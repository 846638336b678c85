package translator

import (
	"context"
	"time"

	"ocr-translator/internal/logger"
)

const (
	// DefaultMaxAttempts is the default number of attempts per unit
	DefaultMaxAttempts = 3
	// BaseRetryDelay is the backoff factor between attempts
	BaseRetryDelay = 2 * time.Second
	// MaxRetryDelay caps exponential backoff
	MaxRetryDelay = 30 * time.Second
)

// BackoffFunc returns the delay after the given failed attempt (1-based).
type BackoffFunc func(attempt int) time.Duration

// LinearBackoff waits factor × attempt: 2s, 4s, 6s for a 2s factor.
func LinearBackoff(factor time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		return factor * time.Duration(attempt)
	}
}

// ExponentialBackoff doubles the delay with each attempt, capped at max.
func ExponentialBackoff(base, max time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		delay := base
		for i := 1; i < attempt && delay < max; i++ {
			delay *= 2
		}
		if delay > max {
			delay = max
		}
		return delay
	}
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryPolicy wraps a single backend call with bounded retries.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     BackoffFunc
	// Sleep defaults to a context-aware timer; tests replace it.
	Sleep SleepFunc
}

// DefaultRetryPolicy returns 3 attempts with a linear 2s backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		Backoff:     LinearBackoff(BaseRetryDelay),
	}
}

// Do runs op until it succeeds, returns a non-retryable error, or the attempts
// are exhausted. It returns the number of attempts made.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) (int, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	backoff := p.Backoff
	if backoff == nil {
		backoff = LinearBackoff(BaseRetryDelay)
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt - 1, err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return attempt, nil
		}

		if !IsRetryable(lastErr) {
			logger.Warn("non-retryable error, giving up",
				logger.Int("attempt", attempt),
				logger.Err(lastErr))
			return attempt, lastErr
		}
		if attempt == maxAttempts {
			break
		}

		delay := backoff(attempt)
		logger.Warn("retrying after delay",
			logger.Int("attempt", attempt),
			logger.Int("maxAttempts", maxAttempts),
			logger.Duration("delay", delay),
			logger.Err(lastErr))
		if err := sleep(ctx, delay); err != nil {
			return attempt, err
		}
	}
	return maxAttempts, lastErr
}
