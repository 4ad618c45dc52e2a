// Package worker schedules background maintenance of the result cache and
// serves the probes of the standalone purge worker.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"skillgap-ai/internal/observability/metrics"
)

// Purger removes expired cache entries and reports how many were removed.
type Purger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// PurgeJob runs one bounded purge per tick and remembers the outcome of
// the last run.
type PurgeJob struct {
	purger  Purger
	timeout time.Duration
	logger  *slog.Logger

	lastErr atomic.Pointer[error]
	runs    atomic.Int64
}

// NewPurgeJob creates a job. A non-positive timeout leaves runs unbounded.
func NewPurgeJob(p Purger, timeout time.Duration, logger *slog.Logger) *PurgeJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &PurgeJob{purger: p, timeout: timeout, logger: logger}
}

// Run executes one purge.
func (j *PurgeJob) Run(ctx context.Context) (int, error) {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	start := time.Now()
	removed, err := j.purger.PurgeExpired(ctx)
	duration := time.Since(start)
	j.runs.Add(1)

	if err != nil {
		j.lastErr.Store(&err)
		metrics.RecordPurgeRun("failure", removed, duration)
		j.logger.Warn("cache purge incomplete",
			slog.Int("removed", removed),
			slog.Duration("duration", duration),
			slog.Any("error", err))
		return removed, err
	}

	j.lastErr.Store(nil)
	metrics.RecordPurgeRun("success", removed, duration)
	j.logger.Info("cache purge completed",
		slog.Int("removed", removed),
		slog.Duration("duration", duration))
	return removed, nil
}

// LastError returns the error of the most recent run, nil after a success
// or before the first run.
func (j *PurgeJob) LastError() error {
	if p := j.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

// Runs returns the number of completed runs.
func (j *PurgeJob) Runs() int64 {
	return j.runs.Load()
}

// Scheduler triggers a PurgeJob on a cron schedule. Overlapping ticks are
// skipped while a run is still in progress.
type Scheduler struct {
	cron *cron.Cron
	job  *PurgeJob
}

// NewScheduler registers job under cfg.Schedule in cfg.Timezone.
func NewScheduler(cfg Config, job *PurgeJob) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(cfg.Schedule, func() {
		_, _ = job.Run(context.Background())
	}); err != nil {
		return nil, fmt.Errorf("schedule purge %q: %w", cfg.Schedule, err)
	}
	return &Scheduler{cron: c, job: job}, nil
}

// Start begins scheduling in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Next returns the next scheduled run, zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Stop halts scheduling and waits for a running purge to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
