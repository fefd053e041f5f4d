package http

import "golang.org/x/time/rate"

// rateLimiter throttles chat messages on a single connection.
type rateLimiter struct {
	lim *rate.Limiter
}

// newRateLimiter returns nil (unlimited) when perSecond is not positive.
func newRateLimiter(perSecond float64, burst int) *rateLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &rateLimiter{lim: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (r *rateLimiter) allow() bool {
	if r == nil {
		return true
	}
	return r.lim.Allow()
}
