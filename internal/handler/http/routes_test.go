package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillgap-ai/internal/domain/entity"
	"skillgap-ai/internal/domain/gap"
	"skillgap-ai/internal/handler/http/requestid"
	"skillgap-ai/internal/infra/cache"
	"skillgap-ai/internal/infra/catalog"
	"skillgap-ai/internal/infra/llm"
	skillsUC "skillgap-ai/internal/usecase/skills"
)

type offlineChat struct{}

func (offlineChat) HasCredential() bool { return false }

func (offlineChat) Chat(context.Context, []llm.Message, llm.ChatOptions) (llm.ChatResult, error) {
	return llm.ChatResult{}, llm.ErrNoCredential
}

type admitAll struct{}

func (admitAll) Acquire(context.Context) error { return nil }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	mgr := cache.NewManager(cache.DefaultConfig(), nil)
	svc := skillsUC.NewService(offlineChat{}, mgr, cat, gap.NewScorer(cat.Skill), skillsUC.WithLimiter(admitAll{}))

	return NewRouter(RouterConfig{
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		Skills:         svc,
		Invalidator:    svc,
		Cache:          mgr,
		AI:             newFakeAIClient(true),
		RequestTimeout: 5 * time.Second,
		MaxBodyBytes:   1 << 10,
	})
}

func TestNewRouter_ExtractEndToEnd(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/skills/extract",
		strings.NewReader(`{"text":"Built services in Go with PostgreSQL"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(requestid.RequestIDHeader, "client-id-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "client-id-1", rec.Header().Get(requestid.RequestIDHeader))

	var env entity.ResultEnvelope[entity.ExtractionResult]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.True(t, env.Success)
	assert.Equal(t, "client-id-1", env.RequestID)
	assert.True(t, env.Meta.Fallback)
}

func TestNewRouter_Endpoints(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/health/ai", "", http.StatusOK},
		{http.MethodGet, "/ready/ai", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodGet, "/v1/cache/stats", "", http.StatusOK},
		{http.MethodPost, "/v1/cache/invalidate", `{"category":"extractions"}`, http.StatusOK},
		{http.MethodGet, "/v1/unknown", "", http.StatusNotFound},
		{http.MethodPost, "/health", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			assert.NotEmpty(t, rec.Header().Get(requestid.RequestIDHeader))
		})
	}
}

func TestNewRouter_BodyTooLarge(t *testing.T) {
	router := newTestRouter(t)

	big := `{"text":"` + strings.Repeat("a", 2048) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/skills/extract", strings.NewReader(big))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "request body too large")
}

func TestNewRouter_RejectsNonJSON(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/skills/extract", strings.NewReader("text=go"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}
