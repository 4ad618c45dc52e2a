package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"skillgap-ai/internal/domain/entity"
)

// classifyStatus maps an upstream HTTP status to a ServiceError.
func classifyStatus(status int, message string, retryAfter time.Duration) *entity.ServiceError {
	if message == "" {
		message = http.StatusText(status)
	}

	var se *entity.ServiceError
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		se = entity.NewServiceError(entity.CodeLLM, "authentication failed: "+message).
			WithRetryable(false)
	case status == http.StatusTooManyRequests:
		se = entity.NewServiceError(entity.CodeRateLimit, "rate limited by upstream: "+message).
			WithRetryAfter(retryAfter)
	case status == http.StatusGatewayTimeout:
		se = entity.NewServiceError(entity.CodeTimeout, "upstream gateway timeout: "+message)
	case status == http.StatusRequestTimeout || status >= 500:
		se = entity.NewServiceError(entity.CodeNetwork, fmt.Sprintf("upstream error %d: %s", status, message))
	default:
		se = entity.NewServiceError(entity.CodeLLM, fmt.Sprintf("upstream rejected request %d: %s", status, message)).
			WithRetryable(false)
	}
	return se.WithDetail("status_code", status)
}

// classifyError maps a transport-level error to a ServiceError.
// Errors that are already classified pass through.
func classifyError(err error) *entity.ServiceError {
	var se *entity.ServiceError
	if errors.As(err, &se) {
		return se
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return entity.WrapServiceError(entity.CodeTimeout, "request timed out or was aborted", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return entity.WrapServiceError(entity.CodeTimeout, "network timeout", err)
	}

	return entity.WrapServiceError(entity.CodeNetwork, "transport failure", err)
}

// statusCodeOf returns the upstream HTTP status recorded on a classified error, or 0.
func statusCodeOf(se *entity.ServiceError) int {
	if se == nil {
		return 0
	}
	code, _ := se.Details["status_code"].(int)
	return code
}

func isAuthFailure(se *entity.ServiceError) bool {
	code := statusCodeOf(se)
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}
