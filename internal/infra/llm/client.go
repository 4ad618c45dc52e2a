package llm

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"skillgap-ai/internal/domain/entity"
	"skillgap-ai/internal/observability/tracing"
	"skillgap-ai/internal/resilience/circuitbreaker"
	"skillgap-ai/internal/resilience/retry"
)

// Client is the resilient text-generation client.
// It is safe for concurrent use; breaker state is shared by all callers.
type Client struct {
	cfg       Config
	transport Transport
	breaker   *circuitbreaker.CircuitBreaker
	retryCfg  retry.Config
	metrics   MetricsRecorder
	tracer    trace.Tracer
}

// Option customizes a Client.
type Option func(*Client)

// WithRetryConfig overrides the retry policy. MaxAttempts is still taken from Config.MaxRetries.
func WithRetryConfig(cfg retry.Config) Option {
	return func(c *Client) { c.retryCfg = cfg }
}

// WithMetrics overrides the metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTracer overrides the tracer used for Chat spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// NewClient creates a resilient client over transport.
// Zero-valued Timeout and MaxRetries fall back to DefaultConfig.
func NewClient(cfg Config, transport Transport, breaker *circuitbreaker.CircuitBreaker, opts ...Option) *Client {
	defaults := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaults.MaxTokens
	}
	if breaker == nil {
		breaker = circuitbreaker.New(circuitbreaker.LLMAPIConfig())
	}

	c := &Client{
		cfg:       cfg,
		transport: transport,
		breaker:   breaker,
		retryCfg:  retry.LLMAPIConfig(),
		metrics:   PrometheusMetrics{},
		tracer:    tracing.GetTracer(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.retryCfg.MaxAttempts = cfg.MaxRetries

	slog.Info("initialized text-generation client",
		slog.String("provider", transport.Name()),
		slog.String("model", cfg.Model),
		slog.Bool("credential_configured", c.HasCredential()),
		slog.Int("max_retries", cfg.MaxRetries),
		slog.Duration("timeout", cfg.Timeout))

	return c
}

// HasCredential reports whether an API key is configured.
func (c *Client) HasCredential() bool {
	return strings.TrimSpace(c.cfg.APIKey) != ""
}

// Breaker returns the circuit breaker gating this client.
func (c *Client) Breaker() *circuitbreaker.CircuitBreaker {
	return c.breaker
}

// Provider returns the transport name.
func (c *Client) Provider() string {
	return c.transport.Name()
}

// Chat sends messages upstream and returns the generated content.
//
// Every returned error is an *entity.ServiceError. The breaker records exactly
// one success or one failure per call that reached the upstream. A call
// rejected by an open breaker before any attempt, or abandoned because ctx
// ended, records nothing.
func (c *Client) Chat(ctx context.Context, messages []Message, opts ChatOptions) (ChatResult, error) {
	ctx, span := c.tracer.Start(ctx, "llm.Chat", trace.WithAttributes(
		attribute.String("llm.provider", c.transport.Name()),
		attribute.String("llm.model", c.cfg.Model),
		attribute.Bool("llm.json_mode", opts.JSONMode),
	))
	defer span.End()

	if !c.HasCredential() {
		c.breaker.RecordFailure()
		se := entity.WrapServiceError(entity.CodeValidation, "text-generation credential is not configured", ErrNoCredential)
		c.finish(span, "failure", se, 0)
		return ChatResult{}, se
	}

	req := c.buildRequest(messages, opts)

	var (
		result    ChatResult
		attempted bool
		attempts  int
	)

	retryCfg := c.retryCfg
	retryCfg.Classify = func(err error) (bool, time.Duration) {
		if errors.Is(err, ErrCircuitOpen) {
			return false, 0
		}
		se := classifyError(err)
		return se.Retryable, se.RetryAfter
	}

	err := retry.WithBackoff(ctx, retryCfg, func(attempt int) error {
		attempts = attempt
		if !c.breaker.CanExecute() {
			return entity.WrapServiceError(entity.CodeLLM, "AI service temporarily unavailable", ErrCircuitOpen).
				WithRetryable(true)
		}
		attempted = true

		res, err := c.attempt(ctx, req)
		if err != nil {
			return err
		}
		result = res
		return nil
	})

	span.SetAttributes(attribute.Int("llm.attempts", attempts))

	if err == nil {
		c.breaker.RecordSuccess()
		c.metrics.RecordTokens(result.TokensUsed)
		span.SetAttributes(attribute.Int("llm.tokens_used", result.TokensUsed))
		c.finish(span, "success", nil, attempts)
		return result, nil
	}

	se := classifyError(err)
	if !attempted {
		c.finish(span, "rejected", se, attempts)
		return ChatResult{}, se
	}
	if ctx.Err() != nil {
		// 呼び出し側の中断は上流の健全性と無関係なので記録しない
		c.breaker.ReleaseTrial()
		c.finish(span, "cancelled", se, attempts)
		return ChatResult{}, se
	}

	c.breaker.RecordFailure()
	c.finish(span, "failure", se, attempts)
	return ChatResult{}, se
}

// attempt performs one bounded upstream round trip.
// The per-attempt context is cancelled as soon as the attempt returns.
func (c *Client) attempt(ctx context.Context, req CompletionRequest) (ChatResult, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	res, err := c.transport.Complete(attemptCtx, req)
	c.metrics.RecordAttempt(time.Since(start))

	if err != nil {
		return ChatResult{}, classifyError(err)
	}
	if strings.TrimSpace(res.Content) == "" {
		return ChatResult{}, entity.NewServiceError(entity.CodeLLM, "upstream returned an empty response").
			WithRetryable(true)
	}
	return res, nil
}

func (c *Client) buildRequest(messages []Message, opts ChatOptions) CompletionRequest {
	temperature := c.cfg.Temperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	maxTokens := c.cfg.MaxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}
	return CompletionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		JSONMode:    opts.JSONMode,
	}
}

func (c *Client) finish(span trace.Span, outcome string, se *entity.ServiceError, attempts int) {
	code := ""
	if se != nil {
		code = string(se.Code)
		span.RecordError(se)
		span.SetStatus(codes.Error, code)

		slog.Warn("text-generation call failed",
			slog.String("outcome", outcome),
			slog.String("code", code),
			slog.Bool("retryable", se.Retryable),
			slog.Int("attempts", attempts),
			slog.String("breaker_state", c.breaker.State().String()),
			slog.String("error", se.Error()))
	}
	c.metrics.RecordRequest(outcome, code)
}

// VerifyCredential checks the configured key against the model listing endpoint.
// It returns false with a nil error when the key is missing or rejected, and a
// non-nil error when the check itself could not be completed.
func (c *Client) VerifyCredential(ctx context.Context) (bool, error) {
	if !c.HasCredential() {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	if err := c.transport.ListModels(ctx); err != nil {
		se := classifyError(err)
		if isAuthFailure(se) {
			return false, nil
		}
		return false, se
	}
	return true, nil
}
