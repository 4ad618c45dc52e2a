package http

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"skillgap-ai/internal/handler/http/respond"
	"skillgap-ai/internal/infra/cache"
	"skillgap-ai/internal/resilience/circuitbreaker"
)

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string                 `json:"status"`    // "healthy", "degraded" or "unhealthy"
	Timestamp string                 `json:"timestamp"` // ISO 8601 format
	Checks    map[string]CheckStatus `json:"checks"`    // Status of each check item
	Version   string                 `json:"version"`   // Application version
}

// CheckStatus represents the status of a single health check.
type CheckStatus struct {
	Status  string         `json:"status"`            // "healthy", "degraded" or "unhealthy"
	Message string         `json:"message,omitempty"` // Optional status message
	Details map[string]any `json:"details,omitempty"` // Optional additional details
}

// CacheStatser reports cache counters.
type CacheStatser interface {
	Stats(ctx context.Context) cache.Stats
}

// HealthHandler reports process health and the state of the cache tiers.
//
// The persistent tier is optional: when it is unreachable the service keeps
// answering from memory, so the overall status becomes "degraded" with 200.
type HealthHandler struct {
	Cache   CacheStatser
	DB      *sql.DB               // persistent tier connection, nil when absent
	Store   *circuitbreaker.Guard // persistent tier guard, nil when absent
	Tier    string                // "postgres", "sqlite" or ""
	Version string
}

// ServeHTTP performs health checks.
// GET /health
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]CheckStatus)
	if h.Cache != nil {
		checks["cache"] = h.checkCache(ctx)
	}
	checks["persistent_tier"] = h.checkPersistentTier(ctx)

	status := "healthy"
	for _, c := range checks {
		if c.Status != "healthy" {
			status = "degraded"
		}
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respond.JSON(w, http.StatusOK, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	})
}

func (h *HealthHandler) checkCache(ctx context.Context) CheckStatus {
	s := h.Cache.Stats(ctx)
	return CheckStatus{
		Status: "healthy",
		Details: map[string]any{
			"memory_entries":     s.MemoryEntries,
			"persistent_entries": s.PersistentEntries,
			"hit_rate":           s.HitRate,
		},
	}
}

// checkPersistentTier pings the database and reports the guard state and
// connection pool statistics.
func (h *HealthHandler) checkPersistentTier(ctx context.Context) CheckStatus {
	if h.DB == nil {
		return CheckStatus{Status: "healthy", Message: "not configured"}
	}

	details := map[string]any{"tier": h.Tier}
	if h.Store != nil {
		details["circuit_state"] = h.Store.State().String()
		if h.Store.IsOpen() {
			return CheckStatus{
				Status:  "degraded",
				Message: "circuit breaker is open",
				Details: details,
			}
		}
	}

	if err := h.DB.PingContext(ctx); err != nil {
		return CheckStatus{
			Status:  "unhealthy",
			Message: respond.SanitizeError(err),
			Details: details,
		}
	}

	stats := h.DB.Stats()
	details["open_connections"] = stats.OpenConnections
	details["in_use"] = stats.InUse
	details["idle"] = stats.Idle
	details["wait_count"] = stats.WaitCount
	details["wait_duration_ms"] = stats.WaitDuration.Milliseconds()

	return CheckStatus{Status: "healthy", Details: details}
}
