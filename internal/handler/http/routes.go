package http

import (
	"log/slog"
	"net/http"
	"time"

	"skillgap-ai/internal/handler/http/cacheadmin"
	"skillgap-ai/internal/handler/http/requestid"
	"skillgap-ai/internal/handler/http/skills"
	"skillgap-ai/internal/observability/tracing"
)

// RouterConfig holds everything NewRouter serves.
type RouterConfig struct {
	Logger *slog.Logger

	Skills      skills.Service
	Invalidator cacheadmin.Invalidator
	Cache       CacheStatser
	CallBudget  cacheadmin.CallBudget // optional
	AI          AIClient
	Health      *HealthHandler

	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// NewRouter builds the API mux and wraps it in the middleware chain.
//
// Order, outermost first: metrics, request id, tracing, context logger,
// access log, panic recovery, input validation, body limit, timeout.
// /metrics and the health endpoints bypass the timeout so probes are
// answered even when the API is saturated.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	api := http.NewServeMux()
	skills.Register(api, cfg.Skills)
	cacheadmin.Register(api, cfg.Invalidator, cfg.Cache, cfg.CallBudget)

	var apiHandler http.Handler = api
	if cfg.RequestTimeout > 0 {
		apiHandler = Timeout(cfg.RequestTimeout)(apiHandler)
	}

	aiHealth := NewAIHealthHandler(cfg.AI)
	health := cfg.Health
	if health == nil {
		health = &HealthHandler{Cache: cfg.Cache}
	}

	root := http.NewServeMux()
	root.Handle("/v1/", apiHandler)
	root.Handle("GET /metrics", MetricsHandler())
	root.Handle("GET /health", health)
	root.HandleFunc("GET /health/ai", aiHealth.Health)
	root.HandleFunc("GET /ready/ai", aiHealth.Ready)

	middleware := []func(http.Handler) http.Handler{
		MetricsMiddleware,
		requestid.Middleware,
		tracing.Middleware,
		ContextLogger(logger),
		Logging(logger),
		Recover(logger),
		InputValidation(),
	}
	if cfg.MaxBodyBytes > 0 {
		middleware = append(middleware, LimitRequestBody(cfg.MaxBodyBytes))
	}
	return Chain(root, middleware...)
}
