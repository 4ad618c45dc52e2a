// Command worker purges expired entries from the persistent cache tier on a
// schedule. It is meant for deployments where several API replicas share one
// database and the purge should run in a single place.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skillgap-ai/internal/config"
	"skillgap-ai/internal/infra/cache"
	"skillgap-ai/internal/infra/cache/store"
	"skillgap-ai/internal/infra/worker"
	"skillgap-ai/internal/observability/logging"
)

func main() {
	cfg, err := config.LoadAIConfig()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := logging.NewLogger(os.Stdout, cfg.Observability.LogLevel)
	slog.SetDefault(logger)

	if err := run(logger, cfg); err != nil {
		logger.Error("worker stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger, cfg *config.AIConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tierName := cfg.PersistentTier()
	if tierName == "" {
		return errors.New("no persistent tier configured: set DATABASE_URL or CACHE_SQLITE_PATH")
	}

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	tier, err := store.OpenTier(openCtx, tierName, cfg.PersistentTarget())
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		if err := tier.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	wcfg := worker.LoadConfigFromEnv(logger)
	logger.Info("worker configuration loaded",
		slog.String("tier", tierName),
		slog.String("schedule", wcfg.Schedule),
		slog.String("timezone", wcfg.Timezone),
		slog.Duration("timeout", wcfg.Timeout),
		slog.Int("health_port", wcfg.HealthPort))

	mgr := cache.NewManager(cfg.CacheManagerConfig(), tier.KVStore())
	job := worker.NewPurgeJob(mgr, wcfg.Timeout, logger)

	scheduler, err := worker.NewScheduler(wcfg, job)
	if err != nil {
		return err
	}

	health := worker.NewHealthServer(fmt.Sprintf(":%d", wcfg.HealthPort), logger,
		map[string]worker.ReadyCheck{
			"database": tier.DB.PingContext,
			"store_circuit": func(context.Context) error {
				if tier.Guard().IsOpen() {
					return errors.New("circuit breaker is open")
				}
				return nil
			},
		})
	healthErr := make(chan error, 1)
	go func() { healthErr <- health.Start(ctx) }()

	// 起動時に一度パージを実行（再起動後に次の周期まで待たない）
	_, _ = job.Run(ctx)

	scheduler.Start()
	health.SetReady(true)
	logger.Info("purge worker started", slog.Time("next_run", scheduler.Next()))

	select {
	case <-ctx.Done():
	case err := <-healthErr:
		if !errors.Is(err, http.ErrServerClosed) {
			stop()
			_ = stopScheduler(logger, scheduler)
			return fmt.Errorf("health server: %w", err)
		}
	}

	logger.Info("shutting down worker...")
	health.SetReady(false)
	if err := stopScheduler(logger, scheduler); err != nil {
		return err
	}
	logger.Info("worker stopped", slog.Int64("runs", job.Runs()))
	return nil
}

func stopScheduler(logger *slog.Logger, s *worker.Scheduler) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		logger.Warn("purge still running at shutdown", slog.Any("error", err))
		return err
	}
	return nil
}
