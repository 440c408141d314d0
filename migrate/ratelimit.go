package migrate

import (
	"context"
	"time"

	"github.com/fwojciec/wpmigrate"
	"golang.org/x/time/rate"
)

var _ wpmigrate.Limiter = (*WriteLimiter)(nil)

// WriteLimiter spaces remote writes by a fixed delay using a token bucket
// with a burst of 1. A zero delay disables limiting.
type WriteLimiter struct {
	limiter *rate.Limiter
}

// NewWriteLimiter creates a new WriteLimiter allowing one write per delay.
func NewWriteLimiter(delay time.Duration) *WriteLimiter {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &WriteLimiter{limiter: rate.NewLimiter(limit, 1)}
}

// Wait blocks until the next write may proceed.
// Returns an error if the context is canceled before the wait completes.
func (l *WriteLimiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
