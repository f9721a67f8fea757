package handler

import (
	"net/http"
)

// ListClients returns the roster decoded from the spreadsheet.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.clientSvc.List(r.Context())
	if err != nil {
		h.requestLog(r).Error().Err(err).Msg("failed to list clients")
		writeError(w, http.StatusBadGateway, "upstream_unavailable", "The client roster could not be read. Please try again later.")
		return
	}
	writeJSON(w, http.StatusOK, clients)
}
