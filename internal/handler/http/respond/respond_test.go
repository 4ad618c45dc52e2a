package respond

import (
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
	"skillgap-ai/internal/handler/http/requestid"
)

func TestJSON(t *testing.T) {
	tests := []struct {
		name         string
		code         int
		data         any
		expectedBody string
	}{
		{"map", http.StatusOK, map[string]string{"message": "success"}, `{"message":"success"}`},
		{"struct", http.StatusCreated, struct{ ID int }{ID: 123}, `{"ID":123}`},
		{"nil", http.StatusNoContent, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			JSON(w, tt.code, tt.data)

			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.Equal(t, tt.expectedBody, strings.TrimSpace(w.Body.String()))
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := map[entity.ErrorCode]int{
		entity.CodeValidation: http.StatusBadRequest,
		entity.CodeRateLimit:  http.StatusTooManyRequests,
		entity.CodeTimeout:    http.StatusGatewayTimeout,
		entity.CodeCache:      http.StatusServiceUnavailable,
		entity.CodeLLM:        http.StatusBadGateway,
		entity.CodeNetwork:    http.StatusBadGateway,
		entity.CodeParse:      http.StatusBadGateway,
	}
	for code, want := range tests {
		assert.Equal(t, want, StatusFor(code), code)
	}
}

func TestFailure(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/v1/skills/extract", nil)
	r = r.WithContext(requestid.WithRequestID(r.Context(), "req-1"))
	w := httptest.NewRecorder()

	cause := errors.New("upstream said sk-abcdefghijklmnopqrstuvwx")
	Failure(w, r, entity.WrapServiceError(entity.CodeRateLimit, "slow down", cause).WithRetryAfter(1500*time.Millisecond))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))

	var body struct {
		RequestID string `json:"request_id"`
		Success   bool   `json:"success"`
		Error     struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "req-1", body.RequestID)
	assert.False(t, body.Success)
	assert.Equal(t, "RATE_LIMIT", body.Error.Code)
	assert.Equal(t, "slow down", body.Error.Message)
	assert.NotContains(t, w.Body.String(), "sk-abc")
}

func TestFailure_UnclassifiedError(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	Failure(w, r, errors.New("boom"))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), `"LLM_ERROR"`)
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestBadRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	w := httptest.NewRecorder()

	BadRequest(w, r, "text is required")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"VALIDATION_ERROR"`)
	assert.Contains(t, w.Body.String(), "text is required")
}

func TestDecodeError(t *testing.T) {
	assert.Equal(t, "request body too large", DecodeError(&http.MaxBytesError{Limit: 10}))
	assert.Equal(t, "invalid JSON body", DecodeError(errors.New("unexpected EOF")))
}

func TestSafeError(t *testing.T) {
	w := httptest.NewRecorder()
	SafeError(w, http.StatusInternalServerError, errors.New("postgres://u:p@db failed"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}
