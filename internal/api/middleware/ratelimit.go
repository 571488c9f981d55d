package middleware

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"
)

// Allower decides whether the client identified by key may proceed.
// *ratelimiter.ClientLimiters satisfies it.
type Allower interface {
	Allow(key string) (bool, time.Duration)
}

// RateLimit rejects requests over the per-client budget with 429 and a
// Retry-After header. Clients are keyed by IP; mount chi's RealIP first so
// proxied requests are attributed correctly. onLimited may be nil.
func RateLimit(limiter Allower, onLimited func()) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, retryAfter := limiter.Allow(ClientKey(r))
			if !allowed {
				if onLimited != nil {
					onLimited()
				}
				if retryAfter > 0 {
					secs := int(math.Ceil(retryAfter.Seconds()))
					w.Header().Set("Retry-After", strconv.Itoa(secs))
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientKey returns the host part of r.RemoteAddr, or the whole value when it
// carries no port.
func ClientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr == "" {
		return "unknown"
	}
	return r.RemoteAddr
}
