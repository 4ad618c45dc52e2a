// Package skills orchestrates the AI-backed skill operations.
//
// Every LLM-backed operation follows the same path: cache lookup, then a
// credential check, then call limiter, client, validator and cache store.
// Any failure along the way becomes a deterministic fallback through
// recoverWithFallback, so callers always receive a successful envelope.
// Only AnalyzeGaps, which never touches the network, can fail.
package skills

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"skillgap-ai/internal/domain/entity"
	"skillgap-ai/internal/infra/cache"
	"skillgap-ai/internal/infra/llm"
	"skillgap-ai/internal/observability/logging"
	"skillgap-ai/internal/observability/metrics"
	"skillgap-ai/internal/requestctx"
	"skillgap-ai/pkg/ratelimit"
)

// Operation names used in logs and metrics.
const (
	OpExtractSkills = "extract_skills"
	OpExplainGaps   = "explain_gaps"
	OpExplainNode   = "explain_node"
	OpAnalyzeGaps   = "analyze_gaps"
)

// Result sources used in metrics.
const (
	sourceLLM      = "llm"
	sourceCache    = "cache"
	sourceFallback = "fallback"
	sourceScorer   = "scorer"
)

// ChatClient is the resilient text-generation client.
type ChatClient interface {
	HasCredential() bool
	Chat(ctx context.Context, messages []llm.Message, opts llm.ChatOptions) (llm.ChatResult, error)
}

// Limiter admits or rejects an outbound call without waiting.
type Limiter interface {
	Acquire(ctx context.Context) error
}

// Catalog resolves skills and role benchmarks.
type Catalog interface {
	AllowSet() entity.AllowSet
	Skill(id string) (entity.SkillInfo, bool)
	Related(id string) entity.AllowSet
	Benchmark(roleID string) (entity.Benchmark, error)
}

// GapScorer is the deterministic scoring engine.
type GapScorer interface {
	Score(skills []entity.UserSkill, bench entity.Benchmark) (entity.GapAnalysis, error)
}

// Service implements the skill operations. It is safe for concurrent use.
type Service struct {
	client  ChatClient
	cache   *cache.Manager
	catalog Catalog
	scorer  GapScorer
	limiter Limiter
	now     func() time.Time

	// inflight coalesces concurrent misses for the same cache key.
	inflight singleflight.Group
}

// Option customizes a Service.
type Option func(*Service)

// WithLimiter sets the outbound call limiter.
func WithLimiter(l Limiter) Option {
	return func(s *Service) { s.limiter = l }
}

// WithClock overrides the time source used for envelopes.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires the orchestrator. Without WithLimiter a default
// ratelimit.CallLimiter is used.
func NewService(client ChatClient, cacheManager *cache.Manager, catalog Catalog, scorer GapScorer, opts ...Option) *Service {
	s := &Service{
		client:  client,
		cache:   cacheManager,
		catalog: catalog,
		scorer:  scorer,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.limiter == nil {
		s.limiter = ratelimit.NewCallLimiter(ratelimit.DefaultCallLimiterConfig(),
			ratelimit.WithMetrics(metrics.RateLimitRecorder{}))
	}
	return s
}

// generation describes one LLM-backed operation.
type generation[T any] struct {
	operation string
	key       string
	messages  []llm.Message
	parse     func(raw string) (T, []entity.Correction, error)
	fallback  func() T

	// invalid short-circuits to the fallback without a cache lookup or call.
	invalid *entity.ServiceError

	// local means the fallback is already the complete answer.
	local bool
}

type generated[T any] struct {
	data        T
	corrections []entity.Correction
}

// run executes g and always returns a successful envelope.
func run[T any](ctx context.Context, s *Service, g generation[T]) entity.ResultEnvelope[T] {
	start := s.now()
	env := newEnvelope[T](ctx, start)
	logger := logging.FromContext(ctx).With(
		slog.String("operation", g.operation),
		slog.String("request_id", env.RequestID))

	if g.invalid != nil {
		recoverWithFallback(ctx, &env, g.invalid, g.fallback)
		return finish(s, &env, g.operation, sourceFallback, start)
	}

	if g.local {
		env.Data = g.fallback()
		env.Meta.Fallback = true
		return finish(s, &env, g.operation, sourceFallback, start)
	}

	if data, ok := cache.Get[T](ctx, s.cache, g.key); ok {
		env.Data = data
		env.Meta.CacheHit = true
		logger.Debug("cache hit", slog.String("key", g.key))
		return finish(s, &env, g.operation, sourceCache, start)
	}

	if !s.client.HasCredential() {
		logger.Info("no credential configured, using fallback")
		env.Data = g.fallback()
		env.Meta.Fallback = true
		return finish(s, &env, g.operation, sourceFallback, start)
	}

	// The shared call must not inherit one caller's cancellation: followers
	// with live contexts wait on it too. Client timeouts still bound it.
	ch := s.inflight.DoChan(g.key, func() (any, error) {
		return generate(context.WithoutCancel(ctx), s, g)
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		res.Err = entity.WrapServiceError(entity.CodeTimeout, "request ended while waiting for the model", ctx.Err())
	}
	if res.Err != nil {
		logger.Warn("operation failed, using fallback",
			slog.Any("error", res.Err),
			slog.Bool("shared", res.Shared))
		recoverWithFallback(ctx, &env, res.Err, g.fallback)
		return finish(s, &env, g.operation, sourceFallback, start)
	}

	out := res.Val.(generated[T])
	env.Data = out.data
	env.Meta.LLMCalled = true
	env.Meta.Corrections = out.corrections
	if len(out.corrections) > 0 {
		logger.Info("model output corrected", slog.Int("corrections", len(out.corrections)))
	}
	return finish(s, &env, g.operation, sourceLLM, start)
}

// generate calls the model, validates the output and caches it.
// Only validated values reach the cache.
func generate[T any](ctx context.Context, s *Service, g generation[T]) (generated[T], error) {
	raw, err := s.callModel(ctx, g.messages)
	if err != nil {
		return generated[T]{}, err
	}
	data, corrections, err := g.parse(raw)
	if err != nil {
		return generated[T]{}, err
	}
	if err := cache.Set(ctx, s.cache, g.key, data, 0); err != nil {
		logging.FromContext(ctx).Warn("failed to cache result",
			slog.String("key", g.key),
			slog.String("code", string(entity.CodeCache)),
			slog.Any("error", err))
	}
	return generated[T]{data: data, corrections: corrections}, nil
}

// callModel passes the call limiter and sends messages upstream.
// A local limiter rejection never reaches the client or its breaker.
func (s *Service) callModel(ctx context.Context, messages []llm.Message) (string, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		var le *ratelimit.LimitError
		if errors.As(err, &le) {
			return "", entity.WrapServiceError(entity.CodeRateLimit, "local call limit reached", err).
				WithRetryAfter(le.RetryAfter).
				WithDetail("reason", le.Reason)
		}
		return "", entity.WrapServiceError(entity.CodeRateLimit, "call limiter failed", err)
	}

	res, err := s.client.Chat(ctx, messages, llm.ChatOptions{JSONMode: true})
	if err != nil {
		return "", err
	}
	return res.Content, nil
}

// recoverWithFallback is the single place where an error becomes a fallback.
// The envelope stays successful and keeps the classified error for diagnostics.
func recoverWithFallback[T any](ctx context.Context, env *entity.ResultEnvelope[T], err error, fallback func() T) {
	se := entity.AsServiceError(err)
	logging.FromContext(ctx).Debug("substituting fallback",
		slog.String("code", string(se.Code)),
		slog.Bool("retryable", se.Retryable))

	env.Data = fallback()
	env.Success = true
	env.Meta.Fallback = true
	env.Meta.LLMCalled = false
	env.Meta.UpstreamError = se
}

func finish[T any](s *Service, env *entity.ResultEnvelope[T], operation, source string, start time.Time) entity.ResultEnvelope[T] {
	elapsed := s.now().Sub(start)
	env.Meta.ProcessingTimeMs = elapsed.Milliseconds()
	metrics.RecordOperationResult(operation, source, elapsed)
	return *env
}

func newEnvelope[T any](ctx context.Context, now time.Time) entity.ResultEnvelope[T] {
	return entity.ResultEnvelope[T]{
		RequestID: requestIDFrom(ctx),
		Timestamp: now.UTC(),
		Success:   true,
	}
}

// requestIDFrom returns the request id carried by ctx, or a new one.
func requestIDFrom(ctx context.Context) string {
	if id := requestctx.ID(ctx); id != "" {
		return id
	}
	return uuid.New().String()
}
