package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"skillgap-ai/internal/handler/http/pathutil"
	"skillgap-ai/internal/observability/metrics"
)

// MetricsMiddleware records request count, duration and in-flight requests.
// Paths are normalized to route labels so unknown paths share one label.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		rw := newStatusRecorder(w)
		start := time.Now()
		next.ServeHTTP(rw, r)

		metrics.RecordHTTPRequest(r.Method, pathutil.NormalizePath(r.URL.Path),
			strconv.Itoa(rw.status), time.Since(start))
	})
}

// MetricsHandler returns an HTTP handler for the Prometheus metrics endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
