// Package llm implements the resilient client for the upstream text-generation endpoint.
//
// Client gates every call through a circuit breaker, bounds each attempt with a
// timeout, retries retryable failures on a fixed schedule and classifies every
// failure into an *entity.ServiceError. The wire protocol lives behind Transport,
// with implementations for the OpenAI-compatible chat API and the Anthropic
// Messages API.
package llm

import (
	"context"
	"errors"
	"time"
)

// Provider names accepted by Config.Provider.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

var (
	// ErrNoCredential is wrapped by the VALIDATION_ERROR returned when no API key is configured.
	ErrNoCredential = errors.New("no API credential configured")

	// ErrCircuitOpen is wrapped by the LLM_ERROR returned when the breaker rejects a call.
	ErrCircuitOpen = errors.New("circuit breaker open")
)

// Message is a single chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// SystemMessage builds a system turn.
func SystemMessage(content string) Message { return Message{Role: RoleSystem, Content: content} }

// UserMessage builds a user turn.
func UserMessage(content string) Message { return Message{Role: RoleUser, Content: content} }

// ChatOptions tunes a single Chat call. Zero values fall back to the client config.
type ChatOptions struct {
	Temperature *float64
	MaxTokens   int
	JSONMode    bool
}

// ChatResult is the content returned by a successful call.
type ChatResult struct {
	Content    string `json:"content"`
	TokensUsed int    `json:"tokens_used"`
}

// CompletionRequest is what a Transport sends upstream.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
	JSONMode    bool
}

// Transport performs one upstream round trip without retries.
// Implementations should return *entity.ServiceError for HTTP-level failures
// so status codes and Retry-After hints survive classification.
type Transport interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (ChatResult, error)
	ListModels(ctx context.Context) error
}

// Config holds client settings.
type Config struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	Temperature float64
	MaxTokens   int
}

// DefaultConfig returns settings for the OpenAI-compatible endpoint.
func DefaultConfig() Config {
	return Config{
		Provider:    ProviderOpenAI,
		BaseURL:     "https://api.openai.com/v1",
		Model:       "gpt-4o-mini",
		Timeout:     30 * time.Second,
		MaxRetries:  3,
		Temperature: 0.3,
		MaxTokens:   1024,
	}
}
