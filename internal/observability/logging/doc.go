// Package logging builds the service's slog loggers and carries them through
// context.Context.
//
// Loggers mask API keys in string attributes and errors before they are
// written. Handlers store a request-scoped logger with WithLogger so code
// below them can log through FromContext without passing a logger around.
//
//	logger := logging.NewLogger(os.Stdout, cfg.Observability.LogLevel)
//	ctx = logging.WithLogger(ctx, logging.WithRequestID(ctx, logger))
//	logging.FromContext(ctx).Info("cache invalidated", slog.Int("removed", n))
package logging
