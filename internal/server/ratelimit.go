package server

import (
	"sync"

	"golang.org/x/time/rate"
)

// ipRateLimiter keeps one token bucket per client IP with a hard cap on
// tracked clients. When the cap is hit the table is cleared rather than
// grown.
type ipRateLimiter struct {
	mu         sync.Mutex
	limiters   map[string]*rate.Limiter
	rps        rate.Limit
	burst      int
	maxClients int
}

func newIPRateLimiter(rps float64, burst, maxClients int) *ipRateLimiter {
	if rps <= 0 {
		rps = 10
	}
	if burst <= 0 {
		burst = 20
	}
	if maxClients <= 0 {
		maxClients = 10000
	}
	return &ipRateLimiter{
		limiters:   make(map[string]*rate.Limiter),
		rps:        rate.Limit(rps),
		burst:      burst,
		maxClients: maxClients,
	}
}

func (l *ipRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	limiter, ok := l.limiters[ip]
	if !ok {
		if len(l.limiters) >= l.maxClients {
			l.limiters = make(map[string]*rate.Limiter)
		}
		limiter = rate.NewLimiter(l.rps, l.burst)
		l.limiters[ip] = limiter
	}
	l.mu.Unlock()

	return limiter.Allow()
}
