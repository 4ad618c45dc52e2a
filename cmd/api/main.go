package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skillgap-ai/internal/config"
	"skillgap-ai/internal/domain/gap"
	hhttp "skillgap-ai/internal/handler/http"
	"skillgap-ai/internal/infra/cache"
	"skillgap-ai/internal/infra/cache/store"
	"skillgap-ai/internal/infra/catalog"
	"skillgap-ai/internal/infra/llm"
	"skillgap-ai/internal/infra/worker"
	"skillgap-ai/internal/observability/logging"
	"skillgap-ai/internal/observability/metrics"
	"skillgap-ai/internal/observability/tracing"
	"skillgap-ai/internal/resilience/circuitbreaker"
	"skillgap-ai/internal/usecase/skills"
	"skillgap-ai/pkg/ratelimit"
)

func main() {
	cfg, err := config.LoadAIConfig()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := initLogger(cfg)
	shutdownTracing := initTracing(logger, cfg)

	persistent := initPersistentTier(logger, cfg)
	defer func() {
		if err := persistent.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	version := getVersion()
	components := setupServer(logger, cfg, persistent, version)

	runServer(logger, cfg, components, version)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(ctx); err != nil {
		logger.Warn("tracer shutdown failed", slog.Any("error", err))
	}
}

// initLogger builds the JSON logger and installs it as the default.
func initLogger(cfg *config.AIConfig) *slog.Logger {
	logger := logging.NewLogger(os.Stdout, cfg.Observability.LogLevel)
	slog.SetDefault(logger)
	return logger
}

// initTracing installs the tracer provider when tracing is enabled.
func initTracing(logger *slog.Logger, cfg *config.AIConfig) func(context.Context) error {
	if !cfg.Observability.EnableTracing {
		return func(context.Context) error { return nil }
	}
	obs := cfg.Observability
	opts, err := tracing.OTLPExporter(context.Background(), obs.TraceEndpoint, "skillgap-api")
	if err != nil {
		logger.Warn("trace export disabled", slog.Any("error", err))
	}
	logger.Info("tracing enabled",
		slog.Float64("sample_ratio", obs.TraceSampleRatio),
		slog.Bool("exporting", len(opts) > 0))
	return tracing.Setup(obs.TraceSampleRatio, opts...)
}

// initPersistentTier opens and migrates the configured database.
// A tier that cannot be opened is logged and skipped: the cache then runs
// from memory only. The returned tier is nil in that case.
func initPersistentTier(logger *slog.Logger, cfg *config.AIConfig) *store.Tier {
	name := cfg.PersistentTier()
	if name == "" {
		logger.Info("persistent cache tier disabled")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tier, err := store.OpenTier(ctx, name, cfg.PersistentTarget())
	if err != nil {
		logger.Warn("persistent cache tier unavailable, continuing with memory only",
			slog.String("tier", name),
			slog.Any("error", err))
		return nil
	}
	logger.Info("persistent cache tier ready", slog.String("tier", name))
	return tier
}

// getVersion returns the application version from environment or default.
func getVersion() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	return version
}

// ServerComponents holds components needed for server operation and cleanup.
type ServerComponents struct {
	Handler http.Handler
	Cache   *cache.Manager
}

// setupServer wires the orchestrator and its HTTP surface.
func setupServer(logger *slog.Logger, cfg *config.AIConfig, tier *store.Tier, version string) *ServerComponents {
	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		logger.Error("failed to load skill catalog", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("skill catalog loaded", slog.Int("roles", len(cat.Roles())))

	cacheManager := cache.NewManager(cfg.CacheManagerConfig(), tier.KVStore())

	client := llm.NewClient(cfg.LLM, newTransport(cfg.LLM),
		circuitbreaker.New(cfg.BreakerConfig()),
		llm.WithMetrics(llm.PrometheusMetrics{}))
	// APIキー未設定でも起動は続行し、ローカルのフォールバックで応答する
	if !client.HasCredential() {
		logger.Warn("no LLM credential configured, all operations will use local fallbacks",
			slog.String("provider", client.Provider()))
	}

	limiter := ratelimit.NewCallLimiter(cfg.RateLimit,
		ratelimit.WithMetrics(metrics.RateLimitRecorder{}))

	svc := skills.NewService(client, cacheManager, cat, gap.NewScorer(cat.Skill),
		skills.WithLimiter(limiter))

	handler := hhttp.NewRouter(hhttp.RouterConfig{
		Logger:         logger,
		Skills:         svc,
		Invalidator:    svc,
		Cache:          cacheManager,
		CallBudget:     limiter,
		AI:             client,
		Health:         newHealthHandler(cacheManager, tier, version),
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
	})

	return &ServerComponents{Handler: handler, Cache: cacheManager}
}

func newHealthHandler(c *cache.Manager, tier *store.Tier, version string) *hhttp.HealthHandler {
	h := &hhttp.HealthHandler{Cache: c, Version: version}
	if tier != nil {
		h.DB = tier.DB
		h.Store = tier.Guard()
		h.Tier = tier.Name
	}
	return h
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}

// newTransport selects the provider transport. Timeouts are enforced per
// attempt by the client, so the HTTP clients carry none of their own.
func newTransport(cfg llm.Config) llm.Transport {
	if cfg.Provider == llm.ProviderAnthropic {
		return llm.NewClaudeTransport(cfg, &http.Client{})
	}
	return llm.NewOpenAITransport(cfg, &http.Client{})
}

// startPurge schedules removal of expired cache entries.
func startPurge(logger *slog.Logger, cfg *config.AIConfig, mgr *cache.Manager) (*worker.Scheduler, error) {
	wcfg := worker.LoadConfigFromEnv(logger)
	wcfg.Schedule = cfg.Cache.PurgeSchedule // スケジュールはキャッシュ設定を優先

	scheduler, err := worker.NewScheduler(wcfg, worker.NewPurgeJob(mgr, wcfg.Timeout, logger))
	if err != nil {
		return nil, err
	}
	scheduler.Start()
	logger.Info("cache purge scheduled",
		slog.String("schedule", wcfg.Schedule),
		slog.String("timezone", wcfg.Timezone),
		slog.Time("next_run", scheduler.Next()))
	return scheduler, nil
}

// runServer starts the HTTP server and handles graceful shutdown.
func runServer(logger *slog.Logger, cfg *config.AIConfig, components *ServerComponents, version string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	purge, err := startPurge(logger, cfg, components.Cache)
	if err != nil {
		logger.Error("failed to schedule cache purge", slog.Any("error", err))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           components.Handler,
		ReadHeaderTimeout: 10 * time.Second, // Prevent Slowloris attacks
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting",
			slog.String("addr", cfg.Server.Addr),
			slog.String("version", version),
			slog.String("provider", cfg.LLM.Provider),
			slog.String("model", cfg.LLM.Model))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	purgeCtx, purgeCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := purge.Stop(purgeCtx); err != nil {
		logger.Warn("cache purge still running at shutdown", slog.Any("error", err))
	}
	purgeCancel()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
