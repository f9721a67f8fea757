package router

import (
	"net/http"

	"github.com/clientmailer/clientmailer/internal/config"
	"github.com/clientmailer/clientmailer/internal/handler"
	"github.com/clientmailer/clientmailer/internal/metrics"
	"github.com/clientmailer/clientmailer/internal/middleware"
)

// New creates and configures the HTTP router
func New(h *handler.Handler, mw *middleware.Middleware, m *metrics.Metrics, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// Health and metrics
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ready", h.Ready)
	mux.Handle("GET /metrics", m.Handler())

	mux.HandleFunc("GET /api/v1/{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"clientmailer API v1","version":"` + handler.Version + `"}`))
	})

	// Roster
	mux.HandleFunc("GET /api/v1/clients", h.ListClients)

	// Templates
	mux.HandleFunc("POST /api/v1/emails/templates", h.UploadTemplate)
	mux.HandleFunc("GET /api/v1/emails/templates", h.ListTemplates)
	mux.HandleFunc("GET /api/v1/emails/templates/{id}", h.GetTemplate)
	mux.HandleFunc("DELETE /api/v1/emails/templates/{id}", h.DeleteTemplate)

	// Bulk dispatch (rate limited)
	sendRateLimit := mw.RateLimit(middleware.RateLimitConfig{
		Name:   "send",
		Limit:  cfg.Security.RateLimiting.DispatchLimit,
		Window: cfg.Security.RateLimiting.DispatchWindow,
		KeyFn:  mw.ClientIP,
	})
	mux.Handle("POST /api/v1/emails/send", sendRateLimit(http.HandlerFunc(h.SendEmails)))

	// Apply middleware stack
	var handler http.Handler = mux

	handler = mw.CORS(cfg.Server.AllowedOrigins)(handler)
	handler = mw.SecurityHeaders(handler)
	handler = mw.Logger(handler)
	handler = mw.Timing(handler)
	handler = mw.RequestID(handler)

	// Panic recovery (outermost)
	handler = mw.Recover(handler)

	return handler
}
