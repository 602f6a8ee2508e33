// handlers реализует REST-эндпойнты directory-сервиса поверх сервисного слоя.
// Сессия запроса определяется мидлваром Session; ошибки пишутся через apierrors.WriteError.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pribylovaa/go-users-directory/internal/http/middleware"
	"github.com/pribylovaa/go-users-directory/internal/models"
	"github.com/pribylovaa/go-users-directory/internal/service"
)

// maxBodyBytes — верхняя граница тела запроса.
const maxBodyBytes = 1 << 20

// Directory — операции сервисного слоя, доступные REST API (реализует *service.Service).
type Directory interface {
	LoadUsers(ctx context.Context, sid string, count int) (*models.View, error)
	State(ctx context.Context, sid string) (*models.View, error)
	Snapshot(ctx context.Context, sid string) (*models.Snapshot, error)
	UserByID(ctx context.Context, sid, id string) (*models.User, error)
	ToggleFavourite(ctx context.Context, sid, id string) (*models.User, error)
	UpdateCriteria(ctx context.Context, sid string, upd models.CriteriaUpdate) (*models.View, error)
	AddTag(ctx context.Context, sid, id, text string) ([]string, error)
	RemoveTag(ctx context.Context, sid, id, text string) ([]string, error)
	RenameTag(ctx context.Context, sid, id, oldText, newText string) ([]string, error)
	Stats(ctx context.Context, sid, scope string) (*models.Stats, error)
}

// Handlers агрегирует зависимости хендлеров.
type Handlers struct {
	Directory Directory
}

func New(d Directory) *Handlers {
	return &Handlers{Directory: d}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: неизвестные поля, лишние данные
// после объекта и тело больше maxBodyBytes — ErrInvalidArgument.
func decodeStrict(w http.ResponseWriter, r *http.Request, value any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(value); err != nil {
		return invalidArgument(err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return invalidArgument(fmt.Errorf("trailing data after json object"))
	}

	return nil
}

// invalidArgument — локальная ошибка разбора запроса -> 400.
func invalidArgument(err error) error {
	return fmt.Errorf("%w: %w", service.ErrInvalidArgument, err)
}

// sessionID достаёт идентификатор сессии, проставленный мидлваром Session.
func sessionID(r *http.Request) string {
	return middleware.SessionID(r.Context())
}
