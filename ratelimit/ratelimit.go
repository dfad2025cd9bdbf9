// Package ratelimit provides the per-IP request throttle that guards the
// synchronous and asynchronous execute routes. Adapted from the teacher's
// packages/pkg.go RateLimiter, generalized from a fixed 100 req/min to a
// caller-supplied rate and burst.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter tracks one token bucket per client IP.
type Limiter struct {
	mu       sync.Mutex
	visitors map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// New builds a Limiter allowing requestsPerMinute sustained requests per
// IP, with bursts up to burst.
func New(requestsPerMinute, burst int) *Limiter {
	return &Limiter{
		visitors: make(map[string]*rate.Limiter),
		limit:    rate.Limit(requestsPerMinute) / 60,
		burst:    burst,
	}
}

func (l *Limiter) visitor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.visitors[ip]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.visitors[ip] = limiter
	}
	return limiter
}

// CleanupVisitors evicts any tracked IP whose bucket is currently full
// (i.e. has been idle since its last request), bounding memory growth for
// long-running servers. Callers should run this periodically.
func (l *Limiter) CleanupVisitors() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for ip, limiter := range l.visitors {
		if limiter.Tokens() == float64(l.burst) {
			delete(l.visitors, ip)
		}
	}
}

// Allow reports whether a request from ip may proceed right now.
func (l *Limiter) Allow(ip string) bool {
	return l.visitor(ip).Allow()
}

// Middleware wraps next with the per-IP throttle, rejecting over-limit
// requests with 429.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientIP(r)) {
			http.Error(w, "rate limit exceeded, please try again later", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP strips the port from RemoteAddr, falling back to the raw value
// when it isn't a host:port pair (e.g. in unit tests using httptest).
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
