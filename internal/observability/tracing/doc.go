// Package tracing wires OpenTelemetry into the service: Setup installs a
// ratio-sampled provider, Middleware opens a server span per request named
// after its bounded route, and GetTracer hands the tracer to the LLM client.
//
// No exporter is configured here; spans reach a collector only when the
// deployment installs one through the global provider.
package tracing
