package middleware

import (
	"net/http"
	"time"
)

// RequestObserver receives one observation per completed request.
// *metrics.Metrics satisfies it.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, latency time.Duration)
}

// Instrument reports every request's route pattern, status and latency to obs.
func Instrument(obs RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrap(w)

			next.ServeHTTP(wrapped, r)

			obs.ObserveRequest(r.Method, routePattern(r), wrapped.status, time.Since(start))
		})
	}
}
