package embed

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter throttles outbound embedding requests with a per-second token
// bucket plus a per-minute ceiling, so a single ingestion run cannot overrun
// an embedding provider's quota.
type RateLimiter struct {
	perSecond *rate.Limiter
	perMinute *rate.Limiter
}

// NewRateLimiter builds a limiter allowing perSecond requests/sec (burst
// perSecond) and perMinute requests/min (burst perMinute). A zero value
// disables that bucket.
func NewRateLimiter(perSecond, perMinute int) *RateLimiter {
	rl := &RateLimiter{}
	if perSecond > 0 {
		rl.perSecond = rate.NewLimiter(rate.Limit(perSecond), perSecond)
	}
	if perMinute > 0 {
		rl.perMinute = rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute)
	}
	return rl
}

// Wait blocks until both buckets admit the next request, or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl.perSecond != nil {
		if err := rl.perSecond.Wait(ctx); err != nil {
			return err
		}
	}
	if rl.perMinute != nil {
		if err := rl.perMinute.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// DefaultRateLimiter mirrors conservative Ollama local-server defaults: no
// per-minute ceiling, a modest per-second cap so batch embedding doesn't
// starve other local callers.
func DefaultRateLimiter() *RateLimiter {
	return NewRateLimiter(10, 0)
}
