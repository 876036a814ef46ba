package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"koperasihub/internal/gate"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// LoggingMiddleware assigns a request id, records metrics and logs one line
// per request. The tenant is the storefront subdomain, if any.
func LoggingMiddleware(logger *slog.Logger, metrics *Metrics, domains *gate.Domains, next http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
			r.Header.Set(requestIDHeader, requestID)
		}
		w.Header().Set(requestIDHeader, requestID)

		writer := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(writer, r)
		duration := time.Since(start)

		if metrics != nil {
			metrics.RequestsTotal.WithLabelValues(r.Method, strconv.Itoa(writer.status)).Inc()
			metrics.RequestDuration.WithLabelValues(r.Method).Observe(duration.Seconds())
			if writer.status >= http.StatusBadRequest {
				metrics.RequestErrors.Inc()
			}
		}

		var tenant string
		if domains != nil {
			tenant = domains.Subdomain(r.Host)
		}
		level := slog.LevelInfo
		if writer.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", writer.status,
			"duration_ms", duration.Milliseconds(),
			"tenant", tenant,
			"request_id", requestID,
		)
	})
}
