// Package requestid assigns every HTTP request an id that travels through
// the context into logs and result envelopes.
package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"skillgap-ai/internal/requestctx"
)

const (
	// RequestIDHeader is the HTTP header name for request IDs.
	RequestIDHeader = "X-Request-ID"
	// MaxLength bounds client-supplied request IDs.
	MaxLength = 128
)

// FromContext retrieves the request ID from the context.
// Returns an empty string if no request ID is found.
func FromContext(ctx context.Context) string {
	return requestctx.ID(ctx)
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return requestctx.WithID(ctx, id)
}

// Middleware propagates a valid inbound X-Request-ID or generates a UUID v4.
// The id is echoed in the response header and stored in the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// ヘッダーのIDが不正または未指定なら新規発行
		requestID := r.Header.Get(RequestIDHeader)
		if !valid(requestID) {
			requestID = uuid.New().String()
		}

		w.Header().Set(RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), requestID)))
	})
}

// valid accepts non-empty printable ASCII ids up to MaxLength, which keeps
// ids safe to echo into headers and log lines.
func valid(id string) bool {
	if id == "" || len(id) > MaxLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
