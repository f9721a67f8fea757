package handler

import (
	"net/http"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string            `json:"status"`
	Version  string            `json:"version"`
	Services map[string]string `json:"services"`
}

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Health returns the health status of the service
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := "healthy"
	services := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check.HealthCheck(ctx); err != nil {
			services[name] = "unhealthy"
			status = "degraded"
			continue
		}
		services[name] = "healthy"
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, HealthResponse{
		Status:   status,
		Version:  Version,
		Services: services,
	})
}

// Ready returns whether the service is ready to accept requests
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	for name, check := range h.checks {
		if err := check.HealthCheck(ctx); err != nil {
			http.Error(w, name+" not ready", http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
