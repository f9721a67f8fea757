package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/clientmailer/clientmailer/internal/model"
	"github.com/clientmailer/clientmailer/internal/render"
	"github.com/clientmailer/clientmailer/internal/service"
)

// TemplateResponse is a stored template together with the placeholders it uses.
type TemplateResponse struct {
	model.EmailTemplate
	Placeholders []string `json:"placeholders"`
}

// UploadTemplate stores the HTML file sent in the multipart field "file".
// An optional "name" field overrides the file name.
func (h *Handler) UploadTemplate(w http.ResponseWriter, r *http.Request) {
	maxBytes := h.cfg.Server.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<10)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "A multipart form with a file field is required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "The file field is required")
		return
	}
	defer file.Close()

	mediaType, _, err := mime.ParseMediaType(header.Header.Get("Content-Type"))
	if err != nil || mediaType != "text/html" {
		writeError(w, http.StatusNotAcceptable, "unsupported_file_type", "Only HTML files are allowed")
		return
	}
	if header.Size > maxBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "file_too_large", "The template file is too large")
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "The file could not be read")
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		name = header.Filename
	}

	tpl, err := h.templateSvc.Upload(r.Context(), name, string(content))
	if err != nil {
		if errors.Is(err, service.ErrInvalidTemplate) {
			writeError(w, http.StatusUnprocessableEntity, "invalid_template", err.Error())
			return
		}
		h.requestLog(r).Error().Err(err).Msg("failed to store template")
		writeError(w, http.StatusInternalServerError, "internal_error", "Template upload failed")
		return
	}

	writeJSON(w, http.StatusCreated, TemplateResponse{
		EmailTemplate: *tpl,
		Placeholders:  render.Placeholders(tpl.TemplateContent),
	})
}

// ListTemplates returns template metadata, newest first.
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.templateSvc.List(r.Context())
	if err != nil {
		h.requestLog(r).Error().Err(err).Msg("failed to list templates")
		writeError(w, http.StatusInternalServerError, "internal_error", "Templates could not be listed")
		return
	}

	out := make([]model.EmailTemplate, len(templates))
	for i, tpl := range templates {
		out[i] = tpl.Summary()
	}
	writeJSON(w, http.StatusOK, out)
}

// GetTemplate returns one template with its content.
func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, err := h.templateSvc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.templateError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TemplateResponse{
		EmailTemplate: *tpl,
		Placeholders:  render.Placeholders(tpl.TemplateContent),
	})
}

// DeleteTemplate removes a template.
func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := h.templateSvc.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.templateError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, GenericResponse{
		Status:  http.StatusOK,
		Message: "Email template deleted successfully",
	})
}

func (h *Handler) templateError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, service.ErrTemplateNotFound) {
		writeError(w, http.StatusNotFound, "template_not_found", "Email template not found")
		return
	}
	h.requestLog(r).Error().Err(err).Msg("template lookup failed")
	writeError(w, http.StatusInternalServerError, "internal_error", "Template request failed")
}
