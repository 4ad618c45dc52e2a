// Package respond provides utilities for sending HTTP responses in JSON format.
// Error responses share the result envelope shape so clients parse one format.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"skillgap-ai/internal/domain/entity"
	"skillgap-ai/internal/handler/http/requestid"
)

// ErrorEnvelope is the body of every error response.
type ErrorEnvelope struct {
	RequestID string               `json:"request_id,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
	Success   bool                 `json:"success"`
	Error     *entity.ServiceError `json:"error"`
}

// JSON writes a JSON response with the given status code and data.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			// Headers are already sent; nothing left to tell the client.
			slog.Default().Error("failed to encode JSON response",
				slog.Int("status_code", code),
				slog.Any("error", err))
		}
	}
}

// StatusFor maps an error code to its HTTP status.
func StatusFor(code entity.ErrorCode) int {
	switch code {
	case entity.CodeValidation:
		return http.StatusBadRequest
	case entity.CodeRateLimit:
		return http.StatusTooManyRequests
	case entity.CodeTimeout:
		return http.StatusGatewayTimeout
	case entity.CodeCache:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// Failure writes err as an error envelope. Rate-limit errors carry a
// Retry-After header in whole seconds.
func Failure(w http.ResponseWriter, r *http.Request, err error) {
	se := entity.AsServiceError(err)
	code := StatusFor(se.Code)

	if se.Code == entity.CodeRateLimit && se.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(se.RetryAfter.Seconds()))))
	}
	if se.Err != nil {
		slog.Default().Warn("request failed",
			slog.String("request_id", requestid.FromContext(r.Context())),
			slog.String("code", string(se.Code)),
			slog.String("error", SanitizeError(se.Err)))
	}

	JSON(w, code, ErrorEnvelope{
		RequestID: requestid.FromContext(r.Context()),
		Timestamp: time.Now().UTC(),
		Success:   false,
		Error:     se,
	})
}

// BadRequest writes a VALIDATION_ERROR envelope with message.
func BadRequest(w http.ResponseWriter, r *http.Request, message string) {
	Failure(w, r, entity.NewServiceError(entity.CodeValidation, message))
}

// DecodeError turns a JSON body decode failure into a client-facing message.
func DecodeError(err error) string {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return "request body too large"
	}
	return "invalid JSON body"
}

// SafeError writes a generic internal error. Details are logged with
// secrets masked and never returned to the client.
func SafeError(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}
	slog.Default().Error("internal server error",
		slog.String("status", http.StatusText(code)),
		slog.Int("code", code),
		slog.String("error", SanitizeError(err)))
	JSON(w, code, map[string]string{"error": "internal server error"})
}
