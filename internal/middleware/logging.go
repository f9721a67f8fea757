package middleware

import (
	"net/http"
	"strconv"
	"time"
)

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Logger logs HTTP requests and counts them by status
func (m *Middleware) Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := GetStartTime(r.Context())
		wrapped := newResponseWriter(w)

		next.ServeHTTP(wrapped, r)

		m.log.WithRequestID(GetRequestID(r.Context())).
			HTTPRequest(r.Method, r.URL.Path, wrapped.statusCode, time.Since(start), m.ClientIP(r))
		m.metrics.IncAPIRequest(r.Method, strconv.Itoa(wrapped.statusCode))
	})
}
