package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime/debug"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

// writeError renders the same error envelope the API handlers use.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Error: errorDetail{
		Code:      code,
		Message:   message,
		RequestID: GetRequestID(r.Context()),
	}})
}

// Recover turns a panic in a handler into a 500 carrying the request id, so the
// failure can be found in the logs. http.ErrAbortHandler is re-raised untouched.
func (m *Middleware) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}

			m.log.WithRequestID(GetRequestID(r.Context())).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("handler panicked")
			m.metrics.IncAPIRequest(r.Method, "panic")

			writeError(w, r, http.StatusInternalServerError, "internal_server_error", "An unexpected error occurred")
		}()

		next.ServeHTTP(w, r)
	})
}
