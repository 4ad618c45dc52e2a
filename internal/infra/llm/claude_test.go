package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillgap-ai/internal/domain/entity"
	"skillgap-ai/internal/infra/llm"
)

const messageOK = `{
	"id": "msg_01",
	"type": "message",
	"role": "assistant",
	"model": "claude-sonnet-4-5-20250929",
	"content": [{"type": "text", "text": "{\"summary\":\"ok\"}"}],
	"stop_reason": "end_turn",
	"usage": {"input_tokens": 12, "output_tokens": 8}
}`

func claudeConfig(baseURL string) llm.Config {
	return llm.Config{
		Provider: llm.ProviderAnthropic,
		APIKey:   "sk-ant-test",
		BaseURL:  baseURL,
		Model:    llm.DefaultClaudeModel,
	}
}

func TestClaudeTransport_Complete(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(messageOK))
	}))
	defer server.Close()

	transport := llm.NewClaudeTransport(claudeConfig(server.URL), server.Client())
	res, err := transport.Complete(context.Background(), llm.CompletionRequest{
		Model:       llm.DefaultClaudeModel,
		Messages:    []llm.Message{llm.SystemMessage("be terse"), llm.UserMessage("explain go")},
		Temperature: 0.2,
		MaxTokens:   300,
		JSONMode:    true,
	})

	require.NoError(t, err)
	assert.Equal(t, `{"summary":"ok"}`, res.Content)
	assert.Equal(t, 20, res.TokensUsed)

	assert.Equal(t, float64(300), body["max_tokens"])
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, messages, 1, "system turns move to the system field")
	assert.NotEmpty(t, body["system"])
}

func TestClaudeTransport_ErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		retryAfter string
		wantCode   entity.ErrorCode
		wantAfter  time.Duration
	}{
		{name: "unauthorized", status: 401, wantCode: entity.CodeLLM},
		{name: "rate limited", status: 429, retryAfter: "4", wantCode: entity.CodeRateLimit, wantAfter: 4 * time.Second},
		{name: "overloaded", status: 529, wantCode: entity.CodeNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.retryAfter != "" {
					w.Header().Set("Retry-After", tt.retryAfter)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"type":"error","error":{"type":"test_error","message":"nope"}}`))
			}))
			defer server.Close()

			transport := llm.NewClaudeTransport(claudeConfig(server.URL), server.Client())
			_, err := transport.Complete(context.Background(), llm.CompletionRequest{
				Model:     llm.DefaultClaudeModel,
				Messages:  []llm.Message{llm.UserMessage("hi")},
				MaxTokens: 10,
			})

			var se *entity.ServiceError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.wantCode, se.Code)
			assert.Equal(t, tt.wantAfter, se.RetryAfter)
			assert.Equal(t, tt.status, se.Details["status_code"])
		})
	}
}

func TestClaudeTransport_Name(t *testing.T) {
	transport := llm.NewClaudeTransport(claudeConfig("http://127.0.0.1:0"), nil)
	assert.Equal(t, llm.ProviderAnthropic, transport.Name())
}
