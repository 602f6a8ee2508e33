package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/pribylovaa/go-users-directory/internal/errors"
)

// LoadUsers — POST /users/load?results=N.
// Пустой results — размер по умолчанию; N <= 0 и N > max нормализует сервис.
func (h *Handlers) LoadUsers(w http.ResponseWriter, r *http.Request) {
	var count int
	if v := r.URL.Query().Get("results"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			apierrors.WriteError(w, r, invalidArgument(err))
			return
		}

		count = n
	}

	view, err := h.Directory.LoadUsers(r.Context(), sessionID(r), count)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// ListUsers — GET /users: видимый список, критерии и размер полного списка.
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	view, err := h.Directory.State(r.Context(), sessionID(r))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// GetUser — GET /users/{id}: карточка профиля.
func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.Directory.UserByID(r.Context(), sessionID(r), chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, u)
}

// ToggleFavourite — POST /users/{id}/favourite.
func (h *Handlers) ToggleFavourite(w http.ResponseWriter, r *http.Request) {
	u, err := h.Directory.ToggleFavourite(r.Context(), sessionID(r), chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, u)
}

// GetSnapshot — GET /snapshot: сохранённое состояние сессии как есть.
func (h *Handlers) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Directory.Snapshot(r.Context(), sessionID(r))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, snap)
}
