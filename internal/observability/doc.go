// Package observability groups logging, metrics and tracing.
//
//   - logging: slog JSON/text loggers that mask API keys, plus context helpers
//   - metrics: promauto collectors and Record* helpers
//   - tracing: provider setup, HTTP middleware and the shared tracer
//
// The composition root wires them once:
//
//	logger := logging.NewLogger(os.Stdout, cfg.Observability.LogLevel)
//	slog.SetDefault(logger)
//	shutdown := tracing.Setup(cfg.Observability.TraceSampleRatio)
//	defer shutdown(ctx)
package observability
