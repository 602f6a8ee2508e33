package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/pribylovaa/go-users-directory/internal/errors"
)

type tagRequest struct {
	Text string `json:"text"`
}

type renameTagRequest struct {
	Old string `json:"old"`
	New string `json:"new"`
}

type tagsResponse struct {
	ID   string   `json:"id"`
	Tags []string `json:"tags"`
}

// AddTag — POST /users/{id}/tags {"text"}.
func (h *Handlers) AddTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := decodeStrict(w, r, &req); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	tags, err := h.Directory.AddTag(r.Context(), sessionID(r), id, req.Text)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tagsResponse{ID: id, Tags: tags})
}

// RemoveTag — DELETE /users/{id}/tags {"text"}.
func (h *Handlers) RemoveTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := decodeStrict(w, r, &req); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	tags, err := h.Directory.RemoveTag(r.Context(), sessionID(r), id, req.Text)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tagsResponse{ID: id, Tags: tags})
}

// RenameTag — PUT /users/{id}/tags {"old","new"}.
func (h *Handlers) RenameTag(w http.ResponseWriter, r *http.Request) {
	var req renameTagRequest
	if err := decodeStrict(w, r, &req); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	tags, err := h.Directory.RenameTag(r.Context(), sessionID(r), id, req.Old, req.New)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tagsResponse{ID: id, Tags: tags})
}
