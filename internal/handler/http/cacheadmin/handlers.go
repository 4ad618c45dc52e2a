// Package cacheadmin serves cache invalidation and statistics.
package cacheadmin

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"skillgap-ai/internal/domain/entity"
	"skillgap-ai/internal/handler/http/requestid"
	"skillgap-ai/internal/handler/http/respond"
	"skillgap-ai/internal/infra/cache"
	"skillgap-ai/pkg/ratelimit"
)

// Scopes accepted by the invalidate endpoint in addition to single categories.
const (
	ScopeExtractions  = "extractions"
	ScopeExplanations = "explanations"
)

var categories = map[string]struct{}{
	cache.CategoryExtract:     {},
	cache.CategoryGaps:        {},
	cache.CategoryNode:        {},
	cache.CategoryExplanation: {},
}

// Invalidator drops cached results.
type Invalidator interface {
	InvalidateExtractions(ctx context.Context) (int, error)
	InvalidateExplanations(ctx context.Context) (int, error)
	InvalidateCategory(ctx context.Context, category string) (int, error)
}

// Statser reports cache counters.
type Statser interface {
	Stats(ctx context.Context) cache.Stats
}

// CallBudget reports the outbound call window without consuming a call.
type CallBudget interface {
	Budget(ctx context.Context) *ratelimit.RateLimitDecision
}

// Register registers the cache endpoints with the given mux.
// budget may be nil.
func Register(mux *http.ServeMux, inv Invalidator, stats Statser, budget CallBudget) {
	mux.Handle("POST /v1/cache/invalidate", InvalidateHandler{inv})
	mux.Handle("GET /v1/cache/stats", StatsHandler{Stats: stats, Budget: budget})
}

// InvalidateRequest names what to drop: one key category, or one of the
// scopes "extractions" and "explanations".
type InvalidateRequest struct {
	Category string `json:"category"`
}

// InvalidateResponse reports how many entries were removed.
type InvalidateResponse struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
	Category  string    `json:"category"`
	Removed   int       `json:"removed"`
}

// InvalidateHandler serves POST /v1/cache/invalidate.
type InvalidateHandler struct{ Svc Invalidator }

func (h InvalidateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req InvalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, r, respond.DecodeError(err))
		return
	}

	var (
		n   int
		err error
	)
	switch req.Category {
	case ScopeExtractions:
		n, err = h.Svc.InvalidateExtractions(r.Context())
	case ScopeExplanations:
		n, err = h.Svc.InvalidateExplanations(r.Context())
	case "":
		respond.BadRequest(w, r, "category is required")
		return
	default:
		if _, ok := categories[req.Category]; !ok {
			respond.Failure(w, r, entity.NewServiceError(entity.CodeValidation, "unknown cache category").
				WithDetail("category", req.Category))
			return
		}
		n, err = h.Svc.InvalidateCategory(r.Context(), req.Category)
	}
	if err != nil {
		respond.Failure(w, r, entity.WrapServiceError(entity.CodeCache, "cache invalidation incomplete", err).
			WithDetail("removed", n))
		return
	}

	respond.JSON(w, http.StatusOK, InvalidateResponse{
		RequestID: requestid.FromContext(r.Context()),
		Timestamp: time.Now().UTC(),
		Success:   true,
		Category:  req.Category,
		Removed:   n,
	})
}

// StatsResponse is the body of GET /v1/cache/stats.
type StatsResponse struct {
	Cache cache.Stats     `json:"cache"`
	Calls *CallBudgetView `json:"calls,omitempty"`
}

// CallBudgetView is the limiter window as seen by a client deciding whether
// a cache miss can be regenerated now.
type CallBudgetView struct {
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
	// ResetAt is the Unix time at which the oldest counted call leaves the window.
	ResetAt           int64 `json:"reset_at"`
	RetryAfterSeconds int64 `json:"retry_after_seconds,omitempty"`
}

// StatsHandler serves GET /v1/cache/stats.
type StatsHandler struct {
	Stats  Statser
	Budget CallBudget
}

func (h StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{Cache: h.Stats.Stats(r.Context())}
	if h.Budget != nil {
		if d := h.Budget.Budget(r.Context()); d != nil {
			resp.Calls = &CallBudgetView{
				Limit:             d.Limit,
				Remaining:         d.Remaining,
				ResetAt:           d.ResetAtUnix(),
				RetryAfterSeconds: d.RetryAfterSeconds(),
			}
		}
	}
	w.Header().Set("Cache-Control", "no-store")
	respond.JSON(w, http.StatusOK, resp)
}
