package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracer resolves through the global provider, so spans started before
// Setup are no-ops and spans started after it are sampled.
var tracer = otel.Tracer("skillgap-ai")

// GetTracer returns the service tracer. The LLM client uses it for one span
// per Chat call; tests swap in their own via llm.WithTracer.
func GetTracer() trace.Tracer {
	return tracer
}
