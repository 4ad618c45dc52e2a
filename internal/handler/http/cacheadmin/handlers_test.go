package cacheadmin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillgap-ai/internal/domain/entity"
	"skillgap-ai/internal/handler/http/respond"
	"skillgap-ai/internal/infra/cache"
	"skillgap-ai/pkg/ratelimit"
)

type fakeInvalidator struct {
	called string
	n      int
	err    error
}

func (f *fakeInvalidator) InvalidateExtractions(context.Context) (int, error) {
	f.called = ScopeExtractions
	return f.n, f.err
}

func (f *fakeInvalidator) InvalidateExplanations(context.Context) (int, error) {
	f.called = ScopeExplanations
	return f.n, f.err
}

func (f *fakeInvalidator) InvalidateCategory(_ context.Context, category string) (int, error) {
	f.called = category
	return f.n, f.err
}

type fixedBudget struct{ decision *ratelimit.RateLimitDecision }

func (b fixedBudget) Budget(context.Context) *ratelimit.RateLimitDecision { return b.decision }

func newMux(inv Invalidator, stats Statser, budget CallBudget) *http.ServeMux {
	mux := http.NewServeMux()
	Register(mux, inv, stats, budget)
	return mux
}

func invalidate(mux http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/cache/invalidate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestInvalidateHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantCalled string
		wantCode   int
	}{
		{"extractions scope", `{"category":"extractions"}`, ScopeExtractions, http.StatusOK},
		{"explanations scope", `{"category":"explanations"}`, ScopeExplanations, http.StatusOK},
		{"single category", `{"category":"node"}`, cache.CategoryNode, http.StatusOK},
		{"unknown category", `{"category":"sessions"}`, "", http.StatusBadRequest},
		{"missing category", `{}`, "", http.StatusBadRequest},
		{"invalid body", `nope`, "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &fakeInvalidator{n: 3}
			rec := invalidate(newMux(inv, cache.NewManager(cache.DefaultConfig(), nil), nil), tt.body)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantCalled, inv.called)
			if tt.wantCode == http.StatusOK {
				var resp InvalidateResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.True(t, resp.Success)
				assert.Equal(t, 3, resp.Removed)
			}
		})
	}
}

func TestInvalidateHandler_StoreErrorIsCacheError(t *testing.T) {
	inv := &fakeInvalidator{n: 1, err: errors.New("disk I/O error")}
	rec := invalidate(newMux(inv, cache.NewManager(cache.DefaultConfig(), nil), nil), `{"category":"extract"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var env respond.ErrorEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	require.NotNil(t, env.Error)
	assert.Equal(t, entity.CodeCache, env.Error.Code)
	assert.EqualValues(t, 1, env.Error.Details["removed"])
	assert.NotContains(t, rec.Body.String(), "disk I/O error")
}

func TestStatsHandler(t *testing.T) {
	ctx := context.Background()
	mgr := cache.NewManager(cache.DefaultConfig(), nil)
	require.NoError(t, cache.Set(ctx, mgr, cache.Key(cache.CategoryExtract, "python"), "v", 0))
	_, _ = cache.Get[string](ctx, mgr, cache.Key(cache.CategoryExtract, "python"))
	_, _ = cache.Get[string](ctx, mgr, cache.Key(cache.CategoryExtract, "rust"))

	req := httptest.NewRequest(http.MethodGet, "/v1/cache/stats", nil)
	rec := httptest.NewRecorder()
	resetAt := time.Date(2025, 1, 1, 0, 1, 0, 0, time.UTC)
	budget := fixedBudget{ratelimit.NewAllowedDecision("llm", 20, 7, resetAt)}
	newMux(&fakeInvalidator{}, mgr, budget).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var resp StatsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.Cache.MemoryEntries)
	assert.Equal(t, uint64(1), resp.Cache.Hits)
	assert.Equal(t, uint64(1), resp.Cache.Misses)
	assert.InDelta(t, 0.5, resp.Cache.HitRate, 1e-9)
	require.NotNil(t, resp.Calls)
	assert.Equal(t, CallBudgetView{Limit: 20, Remaining: 7, ResetAt: resetAt.Unix()}, *resp.Calls)
}

func TestStatsHandler_ExhaustedBudget(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	budget := fixedBudget{ratelimit.NewDeniedDecision("llm", 20, now.Add(1500*time.Millisecond), now)}

	req := httptest.NewRequest(http.MethodGet, "/v1/cache/stats", nil)
	rec := httptest.NewRecorder()
	newMux(&fakeInvalidator{}, cache.NewManager(cache.DefaultConfig(), nil), budget).ServeHTTP(rec, req)

	var resp StatsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.Calls)
	assert.Equal(t, 0, resp.Calls.Remaining)
	assert.Equal(t, int64(2), resp.Calls.RetryAfterSeconds, "rounded up to whole seconds")
}

func TestStatsHandler_NoBudget(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/cache/stats", nil)
	rec := httptest.NewRecorder()
	newMux(&fakeInvalidator{}, cache.NewManager(cache.DefaultConfig(), nil), nil).ServeHTTP(rec, req)

	assert.NotContains(t, rec.Body.String(), `"calls"`)
}
