package handlers

import (
	"net/http"

	apierrors "github.com/pribylovaa/go-users-directory/internal/errors"
	"github.com/pribylovaa/go-users-directory/internal/models"
)

// GetCriteria — GET /criteria.
func (h *Handlers) GetCriteria(w http.ResponseWriter, r *http.Request) {
	view, err := h.Directory.State(r.Context(), sessionID(r))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, view.Criteria)
}

// PatchCriteria — PATCH /criteria {search_text?, gender_filter?, favourites_only?}.
// Отвечает пересчитанным видимым списком.
func (h *Handlers) PatchCriteria(w http.ResponseWriter, r *http.Request) {
	var upd models.CriteriaUpdate
	if err := decodeStrict(w, r, &upd); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	view, err := h.Directory.UpdateCriteria(r.Context(), sessionID(r), upd)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}
