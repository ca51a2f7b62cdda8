package gateway

import (
	"context"
	"time"
)

// #region rate-limiter

// RateLimiter paces outbound provider calls. A nil ticker means the
// limiter is disabled and Wait never blocks.
type RateLimiter struct {
	ticker   *time.Ticker
	requests chan struct{}
}

// NewRateLimiter creates a limiter allowing requestsPerMinute calls.
// A rate of zero or less disables pacing entirely.
func NewRateLimiter(requestsPerMinute float64) *RateLimiter {
	if requestsPerMinute <= 0 {
		return &RateLimiter{}
	}
	interval := time.Duration(float64(time.Minute) / requestsPerMinute)

	rl := &RateLimiter{
		ticker:   time.NewTicker(interval),
		requests: make(chan struct{}, 1),
	}

	// Prime one slot so the first call never waits a full interval.
	rl.requests <- struct{}{}

	go func() {
		for range rl.ticker.C {
			select {
			case rl.requests <- struct{}{}:
			default:
			}
		}
	}()

	return rl
}

// Wait blocks until the limiter allows the next request.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl.ticker == nil {
		return nil
	}
	select {
	case <-rl.requests:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop stops the refill ticker.
func (rl *RateLimiter) Stop() {
	if rl.ticker != nil {
		rl.ticker.Stop()
	}
}

// #endregion
