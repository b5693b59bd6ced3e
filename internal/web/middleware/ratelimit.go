package middleware

import (
	"net/http"
	"strconv"
	"time"

	ttl "github.com/FloatTech/ttl"
	"golang.org/x/time/rate"

	"github.com/JonMunkholm/fileupload/internal/logging"
)

// RateLimiter keeps a token bucket per client IP. Buckets of clients that
// went quiet expire with the cache.
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	visitors *ttl.Cache[string, *rate.Limiter]
}

// NewRateLimiter allows perMinute requests per IP with the given burst.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limit:    rate.Every(time.Minute / time.Duration(max(perMinute, 1))),
		burst:    burst,
		visitors: ttl.NewCache[string, *rate.Limiter](10 * time.Minute),
	}
}

// Allow consumes one token for ip.
func (rl *RateLimiter) Allow(ip string) bool {
	l := rl.visitors.Get(ip)
	if l == nil {
		l = rate.NewLimiter(rl.limit, rl.burst)
	}
	// Set refreshes the entry's expiry on every request.
	rl.visitors.Set(ip, l)
	return l.Allow()
}

// Middleware rejects requests over the limit with 429 and Retry-After.
// It expects RemoteAddr to already hold the client address.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(r.RemoteAddr) {
			retry := time.Duration(float64(time.Second) / float64(rl.limit))
			logging.FromContext(r.Context()).Warn("rate limit exceeded", "ip", r.RemoteAddr, "path", r.URL.Path)
			w.Header().Set("Retry-After", strconv.Itoa(max(1, int(retry.Seconds()))))
			deny(w, http.StatusTooManyRequests, "rate limit exceeded", "RATE001")
			return
		}
		next.ServeHTTP(w, r)
	})
}
