package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// ClientRequestIDKey is the context key for the caller-supplied request ID
	ClientRequestIDKey contextKey = "X-Client-Request-Id"
	// RequestIDKey is the context key for the generated request ID
	RequestIDKey contextKey = "X-Request-Id"
)

// Telemetry handles request tracing headers: it echoes
// X-Client-Request-Id when present and generates a fresh X-Request-Id
// for every request. Both are stored in the request context for
// downstream handlers.
func Telemetry(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientRequestID := r.Header.Get("X-Client-Request-Id")
		requestID := uuid.New().String()

		if clientRequestID != "" {
			w.Header().Set("X-Client-Request-Id", clientRequestID)
		}
		w.Header().Set("X-Request-Id", requestID)

		ctx := r.Context()
		if clientRequestID != "" {
			ctx = context.WithValue(ctx, ClientRequestIDKey, clientRequestID)
		}
		ctx = context.WithValue(ctx, RequestIDKey, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetClientRequestID retrieves the caller-supplied request ID from the context
func GetClientRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(ClientRequestIDKey).(string); ok {
		return id
	}
	return ""
}

// GetRequestID retrieves the generated request ID from the context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
