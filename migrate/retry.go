package migrate

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/wpmigrate"
)

// DefaultRetryDelays returns the backoff delays for transient failures: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// WithRetry calls fn until it succeeds, fails with a non-transient error, or
// the delays are exhausted. Only EUNAVAILABLE errors are retried; everything
// else is returned immediately. The logger, if provided, records each retry.
func WithRetry[T any](ctx context.Context, op string, delays []time.Duration, logger *slog.Logger, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	maxAttempts := len(delays) + 1

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if !wpmigrate.IsTransient(err) || attempt >= maxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		if logger != nil {
			logger.Warn("retrying", "op", op, "attempt", attempt+2, "err", err)
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}

	return zero, lastErr
}
