package llm

import (
	"context"
	"errors"
	"math"
	"net/http"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"skillgap-ai/internal/domain/entity"
	"skillgap-ai/internal/resilience/retry"
)

// OpenAITransport talks to an OpenAI-compatible chat completions endpoint.
type OpenAITransport struct {
	client *openai.Client
	now    func() time.Time
}

// NewOpenAITransport creates a transport for cfg.BaseURL using cfg.APIKey as bearer token.
// httpClient may be nil, in which case http.DefaultClient is used.
func NewOpenAITransport(cfg Config, httpClient openai.HTTPDoer) *OpenAITransport {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &headerCapturingDoer{base: httpClient}

	return &OpenAITransport{
		client: openai.NewClientWithConfig(clientCfg),
		now:    time.Now,
	}
}

// Name implements Transport.
func (t *OpenAITransport) Name() string { return ProviderOpenAI }

// Complete implements Transport.
func (t *OpenAITransport) Complete(ctx context.Context, req CompletionRequest) (ChatResult, error) {
	capture := &headerCapture{}
	ctx = context.WithValue(ctx, headerCaptureKey{}, capture)

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	// go-openai omits a zero temperature, which would let the server default apply.
	temperature := float32(req.Temperature)
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSONMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := t.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return ChatResult{}, t.classify(err, capture)
	}

	if len(resp.Choices) == 0 {
		return ChatResult{}, entity.NewServiceError(entity.CodeLLM, "upstream returned no choices").
			WithRetryable(true)
	}

	return ChatResult{
		Content:    resp.Choices[0].Message.Content,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

// ListModels implements Transport with GET {base_url}/models.
func (t *OpenAITransport) ListModels(ctx context.Context) error {
	capture := &headerCapture{}
	ctx = context.WithValue(ctx, headerCaptureKey{}, capture)

	if _, err := t.client.ListModels(ctx); err != nil {
		return t.classify(err, capture)
	}
	return nil
}

func (t *OpenAITransport) classify(err error, capture *headerCapture) error {
	retryAfter := retry.ParseRetryAfter(capture.get(), t.now())

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return classifyStatus(apiErr.HTTPStatusCode, apiErr.Message, retryAfter)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		msg := ""
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return classifyStatus(reqErr.HTTPStatusCode, msg, retryAfter)
	}

	return classifyError(err)
}

// go-openai does not surface response headers on errors, so the doer records
// Retry-After into a holder carried by the request context.
type headerCaptureKey struct{}

type headerCapture struct {
	mu         sync.Mutex
	retryAfter string
}

func (h *headerCapture) set(v string) {
	h.mu.Lock()
	h.retryAfter = v
	h.mu.Unlock()
}

func (h *headerCapture) get() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.retryAfter
}

type headerCapturingDoer struct {
	base openai.HTTPDoer
}

func (d *headerCapturingDoer) Do(req *http.Request) (*http.Response, error) {
	resp, err := d.base.Do(req)
	if resp != nil {
		if capture, ok := req.Context().Value(headerCaptureKey{}).(*headerCapture); ok {
			capture.set(resp.Header.Get("Retry-After"))
		}
	}
	return resp, err
}
