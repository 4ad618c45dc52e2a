package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"skillgap-ai/internal/handler/http/respond"
	"skillgap-ai/internal/resilience/circuitbreaker"
)

// aiHealthTimeout bounds the credential check behind /health/ai.
const aiHealthTimeout = 5 * time.Second

// AIClient is the part of the resilient model client the AI health
// endpoints need.
type AIClient interface {
	Provider() string
	HasCredential() bool
	VerifyCredential(ctx context.Context) (bool, error)
	Breaker() *circuitbreaker.CircuitBreaker
}

// AIHealthHandler provides health check endpoints for AI integration.
type AIHealthHandler struct {
	client AIClient
}

// NewAIHealthHandler creates a new AI health check handler.
func NewAIHealthHandler(client AIClient) *AIHealthHandler {
	return &AIHealthHandler{client: client}
}

// AIHealthResponse represents the response structure for AI health endpoints.
type AIHealthResponse struct {
	Status          string `json:"status"`
	Provider        string `json:"provider"`
	Message         string `json:"message,omitempty"`
	Latency         string `json:"latency,omitempty"`
	CredentialValid *bool  `json:"credential_valid,omitempty"`
	CircuitState    string `json:"circuit_state"`
	FailureCount    int    `json:"failure_count"`
	CircuitOpen     bool   `json:"circuit_open,omitempty"`
	Ready           *bool  `json:"ready,omitempty"`
}

// Health verifies the configured credential against the provider.
// GET /health/ai
// Returns 200 if the key is accepted, 503 if it is missing, rejected or the
// check fails.
func (h *AIHealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), aiHealthTimeout)
	defer cancel()

	resp := h.base()

	if !h.client.HasCredential() {
		valid := false
		resp.Status = "unhealthy"
		resp.CredentialValid = &valid
		resp.Message = "no API credential configured"
		respond.JSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	start := time.Now()
	valid, err := h.client.VerifyCredential(ctx)
	resp.Latency = time.Since(start).String()

	switch {
	case err != nil:
		resp.Status = "unhealthy"
		resp.Message = respond.SanitizeError(err)
		slog.Warn("AI credential check failed",
			slog.String("provider", resp.Provider),
			slog.String("error", resp.Message))
		respond.JSON(w, http.StatusServiceUnavailable, resp)
	case !valid:
		resp.Status = "unhealthy"
		resp.CredentialValid = &valid
		resp.Message = "API credential rejected"
		respond.JSON(w, http.StatusServiceUnavailable, resp)
	default:
		resp.Status = "healthy"
		resp.CredentialValid = &valid
		respond.JSON(w, http.StatusOK, resp)
	}
}

// Ready reports whether the client will currently attempt upstream calls.
// GET /ready/ai
// Returns 200 when a credential is configured and the circuit is not open,
// 503 otherwise. No upstream request is made.
func (h *AIHealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	resp := h.base()

	ready := h.client.HasCredential() && !resp.CircuitOpen
	resp.Ready = &ready

	switch {
	case !h.client.HasCredential():
		resp.Status = "not_ready"
		resp.Message = "no API credential configured"
	case resp.CircuitOpen:
		resp.Status = "not_ready"
		resp.Message = "circuit breaker is open"
	default:
		resp.Status = "ready"
	}

	code := http.StatusOK
	if !ready {
		code = http.StatusServiceUnavailable
	}
	respond.JSON(w, code, resp)
}

func (h *AIHealthHandler) base() AIHealthResponse {
	snap := h.client.Breaker().Snapshot()
	return AIHealthResponse{
		Provider:     h.client.Provider(),
		CircuitState: snap.State.String(),
		FailureCount: snap.FailureCount,
		CircuitOpen:  snap.State == circuitbreaker.StateOpen,
	}
}
