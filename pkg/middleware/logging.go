package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// NewLoggingMiddleware logs every request with duration and payload size.
func NewLoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			logger.Info("request started", appendLoggerFields(r.Context(),
				"method", r.Method,
				"path", r.URL.Path,
				"peer", r.RemoteAddr,
			)...)

			next.ServeHTTP(sw, r)

			duration := time.Since(start)
			if sw.status >= http.StatusInternalServerError {
				logger.Error("request failed", appendLoggerFields(r.Context(),
					"method", r.Method,
					"path", r.URL.Path,
					"status", sw.status,
					"duration_ms", duration.Milliseconds(),
					"response_size_bytes", sw.bytes,
				)...)
			} else {
				logger.Info("request completed", appendLoggerFields(r.Context(),
					"method", r.Method,
					"path", r.URL.Path,
					"status", sw.status,
					"duration_ms", duration.Milliseconds(),
					"response_size_bytes", sw.bytes,
				)...)
			}
		})
	}
}

func appendLoggerFields(ctx context.Context, base ...any) []any {
	if requestID, ok := RequestIDFromContext(ctx); ok && requestID != "" {
		base = append(base, "request_id", requestID)
	}
	return base
}
