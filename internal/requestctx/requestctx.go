// Package requestctx carries the request id through a context so that
// logging, tracing and the orchestrator can read it without depending on
// the HTTP layer.
package requestctx

import "context"

type contextKey struct{}

// WithID returns a copy of ctx carrying id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// ID returns the request id carried by ctx, or "".
func ID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}
