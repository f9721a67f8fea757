package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/clientmailer/clientmailer/internal/config"
	"github.com/clientmailer/clientmailer/internal/logger"
	"github.com/clientmailer/clientmailer/internal/middleware"
	"github.com/clientmailer/clientmailer/internal/service"
)

// HealthChecker is a backing service probed by the health endpoints.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler holds all HTTP handlers
type Handler struct {
	checks      map[string]HealthChecker
	log         *logger.Logger
	cfg         *config.Config
	templateSvc *service.TemplateService
	clientSvc   *service.ClientService
	dispatchSvc *service.DispatchService
}

// New creates a new Handler instance. checks maps a dependency name to its probe.
func New(
	checks map[string]HealthChecker,
	log *logger.Logger,
	cfg *config.Config,
	templateSvc *service.TemplateService,
	clientSvc *service.ClientService,
	dispatchSvc *service.DispatchService,
) *Handler {
	return &Handler{
		checks:      checks,
		log:         log,
		cfg:         cfg,
		templateSvc: templateSvc,
		clientSvc:   clientSvc,
		dispatchSvc: dispatchSvc,
	}
}

// GenericResponse is the envelope for operations that report a status and a message.
type GenericResponse struct {
	Status   int                   `json:"status"`
	Message  string                `json:"message"`
	Outcomes []service.SendOutcome `json:"outcomes,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
	})
}

func readJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return errors.New("request body is empty")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func (h *Handler) requestLog(r *http.Request) *logger.Logger {
	return h.log.WithRequestID(middleware.GetRequestID(r.Context()))
}
