package middleware

import (
	"context"
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

// CorrelationHeader carries the request's trace ID in both directions.
const CorrelationHeader = "X-Correlation-ID"

type ctxKey struct{}

// Caller-supplied IDs end up in log lines, so only short token-like values are trusted.
var acceptableID = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// CorrelationID tags each request with an ID taken from X-Correlation-ID,
// falling back to X-Request-ID, or a fresh UUID when neither is usable.
// The ID is echoed on the response and stored on the request context.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := incomingID(r)
		w.Header().Set(CorrelationHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func incomingID(r *http.Request) string {
	for _, h := range []string{CorrelationHeader, "X-Request-ID"} {
		if v := r.Header.Get(h); acceptableID.MatchString(v) {
			return v
		}
	}
	return uuid.NewString()
}

// GetCorrelationID returns the ID stored by CorrelationID, or "".
func GetCorrelationID(ctx context.Context) string {
	v, _ := ctx.Value(ctxKey{}).(string)
	return v
}
