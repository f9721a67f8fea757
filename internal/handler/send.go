package handler

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/clientmailer/clientmailer/internal/render"
	"github.com/clientmailer/clientmailer/internal/service"
	"github.com/clientmailer/clientmailer/internal/sheets"
)

// SendEmailRequest is the body of POST /api/v1/emails/send.
type SendEmailRequest struct {
	Subject         string   `json:"subject"`
	TemplateID      string   `json:"templateId"`
	RecipientEmails []string `json:"recipientEmails"`
}

func (req SendEmailRequest) validate() string {
	if strings.TrimSpace(req.Subject) == "" {
		return "subject is required"
	}
	if _, err := uuid.Parse(req.TemplateID); err != nil {
		return "templateId must be a UUID"
	}
	if len(req.RecipientEmails) == 0 {
		return "recipientEmails must contain at least one address"
	}
	for _, addr := range req.RecipientEmails {
		parsed, err := mail.ParseAddress(addr)
		if err != nil || parsed.Address != addr {
			return "recipientEmails must contain only email addresses"
		}
	}
	return ""
}

// SendEmails dispatches a template to the selected clients and marks them as emailed in
// the roster.
func (h *Handler) SendEmails(w http.ResponseWriter, r *http.Request) {
	var req SendEmailRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "Invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, "validation_error", msg)
		return
	}

	ctx := r.Context()
	if timeout := h.cfg.Dispatch.Timeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	log := h.requestLog(r)
	result, err := h.dispatchSvc.Dispatch(ctx, service.DispatchRequest{
		Subject:         req.Subject,
		TemplateID:      req.TemplateID,
		RecipientEmails: req.RecipientEmails,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidDispatch):
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
		case errors.Is(err, service.ErrTemplateNotFound):
			writeError(w, http.StatusNotFound, "template_not_found", "Email template not found")
		case errors.Is(err, render.ErrMalformedTemplate):
			writeError(w, http.StatusUnprocessableEntity, "invalid_template", err.Error())
		case errors.Is(err, context.DeadlineExceeded):
			log.Error().Err(err).Msg("dispatch timed out")
			writeError(w, http.StatusGatewayTimeout, "timeout", "Sending took too long. Please try again later.")
		case errors.Is(err, sheets.ErrUpstreamUnavailable):
			log.Error().Err(err).Msg("dispatch failed")
			writeError(w, http.StatusBadGateway, "upstream_unavailable", "Failed to send emails. Please try again later or contact support.")
		default:
			log.Error().Err(err).Msg("dispatch failed")
			writeError(w, http.StatusInternalServerError, "internal_error", "Failed to send emails")
		}
		return
	}

	writeJSON(w, http.StatusOK, GenericResponse{
		Status:   http.StatusOK,
		Message:  "Email sent successfully",
		Outcomes: result.Outcomes,
	})
}
