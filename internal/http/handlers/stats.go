package handlers

import (
	"net/http"

	apierrors "github.com/pribylovaa/go-users-directory/internal/errors"
)

// GetStats — GET /stats?scope=visible|all.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Directory.Stats(r.Context(), sessionID(r), r.URL.Query().Get("scope"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, st)
}
