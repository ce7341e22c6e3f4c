package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/workbridge/backend/internal/metrics"
)

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

// Unwrap returns the underlying ResponseWriter for http.ResponseController (Go 1.20+).
func (sr *statusRecorder) Unwrap() http.ResponseWriter { return sr.ResponseWriter }

// Flush implements http.Flusher for http.FileServer and SSE handlers.
func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// RequestLogger is middleware that logs each HTTP request and records
// request metrics labelled by the matched ServeMux pattern.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(sr, r)
		elapsed := time.Since(start)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(sr.statusCode)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())

		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sr.statusCode,
			"route", route,
			"duration_ms", elapsed.Milliseconds(),
			"remote_addr", r.RemoteAddr,
		)
	})
}
