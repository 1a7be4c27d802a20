package util

import (
	"context"
	"errors"
	"time"
)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper backed by a timer.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Backoff configures RetryWithBackoff.
//
// After the failed attempt with zero-based index i (except the last one) the
// caller waits BaseDelay * 2^i. When Extra is set, its result for the error
// and attempt index is waited on top, e.g. a linear penalty for rate limits.
type Backoff struct {
	MaxTries  int
	BaseDelay time.Duration
	Extra     func(err error, attempt int) time.Duration
	Sleep     Sleeper
	// OnRetry is called before waiting, with the attempt index that failed
	// and the total delay about to be waited.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Delay returns the exponential part of the wait after attempt.
func (b Backoff) Delay(attempt int) time.Duration {
	return b.BaseDelay * time.Duration(1<<uint(attempt))
}

// RetryWithBackoff calls fn until it succeeds, the attempts are exhausted or
// ctx is done. It returns the number of attempts made and the last error.
// Context errors are returned as is and never retried.
func RetryWithBackoff[T any](ctx context.Context, b Backoff, fn func(context.Context, int) (T, error)) (T, int, error) {
	if b.MaxTries <= 0 {
		b.MaxTries = 1
	}
	sleep := b.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt < b.MaxTries; attempt++ {
		if ctx.Err() != nil {
			return zero, attempt, ctx.Err()
		}
		result, err := fn(ctx, attempt)
		if err == nil {
			return result, attempt + 1, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return zero, attempt + 1, err
		}
		lastErr = err

		if attempt == b.MaxTries-1 {
			break
		}
		delay := b.Delay(attempt)
		if b.Extra != nil {
			delay += b.Extra(err, attempt)
		}
		if b.OnRetry != nil {
			b.OnRetry(attempt, err, delay)
		}
		if err := sleep(ctx, delay); err != nil {
			return zero, attempt + 1, err
		}
	}
	return zero, b.MaxTries, lastErr
}
