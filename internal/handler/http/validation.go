package http

import (
	"mime"
	"net/http"

	"skillgap-ai/internal/domain/entity"
	"skillgap-ai/internal/handler/http/respond"
)

// MaxPathLength bounds request URI paths.
const MaxPathLength = 2048

// InputValidation rejects requests the API never serves before they reach a
// handler: overlong paths (414) and POST bodies that are not JSON (415).
func InputValidation() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(r.URL.Path) > MaxPathLength {
				respond.JSON(w, http.StatusRequestURITooLong, respond.ErrorEnvelope{
					Error: entity.NewServiceError(entity.CodeValidation, "URI too long"),
				})
				return
			}

			if r.Method == http.MethodPost && r.ContentLength != 0 && !isJSON(r.Header.Get("Content-Type")) {
				respond.JSON(w, http.StatusUnsupportedMediaType, respond.ErrorEnvelope{
					Error: entity.NewServiceError(entity.CodeValidation, "Content-Type must be application/json"),
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/json"
}
