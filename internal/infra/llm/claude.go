package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"skillgap-ai/internal/domain/entity"
	"skillgap-ai/internal/resilience/retry"
)

// DefaultClaudeModel is used when LLM_PROVIDER=anthropic and no model is configured.
const DefaultClaudeModel = string(anthropic.ModelClaudeSonnet4_5_20250929)

// ClaudeTransport talks to the Anthropic Messages API.
// SDK-level retries are disabled so Client owns the retry policy.
type ClaudeTransport struct {
	client anthropic.Client
	now    func() time.Time
}

// NewClaudeTransport creates a transport using cfg.APIKey and, when set, cfg.BaseURL.
// httpClient may be nil.
func NewClaudeTransport(cfg Config, httpClient *http.Client) *ClaudeTransport {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	return &ClaudeTransport{
		client: anthropic.NewClient(opts...),
		now:    time.Now,
	}
}

// Name implements Transport.
func (t *ClaudeTransport) Name() string { return ProviderAnthropic }

// Complete implements Transport.
// System turns are concatenated into the system prompt; JSON mode is requested
// through the prompt, since the Messages API has no response_format switch.
func (t *ClaudeTransport) Complete(ctx context.Context, req CompletionRequest) (ChatResult, error) {
	var (
		system   []string
		messages []anthropic.MessageParam
	)
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	if req.JSONMode {
		system = append(system, "Respond with a single JSON object and nothing else.")
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   int64(req.MaxTokens),
		Messages:    messages,
		Temperature: anthropic.Float(req.Temperature),
	}
	if len(system) > 0 {
		params.System = []anthropic.TextBlockParam{{Text: strings.Join(system, "\n\n")}}
	}

	message, err := t.client.Messages.New(ctx, params)
	if err != nil {
		return ChatResult{}, t.classify(err)
	}

	// テキストブロックのみを連結する
	var sb strings.Builder
	for _, block := range message.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(text.Text)
		}
	}
	if sb.Len() == 0 {
		return ChatResult{}, entity.NewServiceError(entity.CodeLLM, "upstream returned no text content").
			WithRetryable(true)
	}

	return ChatResult{
		Content:    sb.String(),
		TokensUsed: int(message.Usage.InputTokens + message.Usage.OutputTokens),
	}, nil
}

// ListModels implements Transport with GET {base_url}/v1/models.
func (t *ClaudeTransport) ListModels(ctx context.Context) error {
	if _, err := t.client.Models.List(ctx, anthropic.ModelListParams{}); err != nil {
		return t.classify(err)
	}
	return nil
}

func (t *ClaudeTransport) classify(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode != 0 {
		var retryAfter time.Duration
		if apiErr.Response != nil {
			retryAfter = retry.ParseRetryAfter(apiErr.Response.Header.Get("Retry-After"), t.now())
		}
		return classifyStatus(apiErr.StatusCode, http.StatusText(apiErr.StatusCode), retryAfter)
	}
	return classifyError(err)
}
