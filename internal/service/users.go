package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pribylovaa/go-users-directory/internal/filter"
	"github.com/pribylovaa/go-users-directory/internal/metrics"
	"github.com/pribylovaa/go-users-directory/internal/models"
	"github.com/pribylovaa/go-users-directory/internal/randomuser"
	"github.com/pribylovaa/go-users-directory/pkg/log"
	"github.com/pribylovaa/go-users-directory/pkg/redact"
)

// NormalizeCount применяет лимиты конфига:
// count <= 0 -> DefaultCount; count > MaxCount -> MaxCount.
func (s *Service) NormalizeCount(count int) int {
	if count <= 0 {
		count = s.cfg.Fetcher.DefaultCount
	}

	if s.cfg.Fetcher.MaxCount > 0 && count > s.cfg.Fetcher.MaxCount {
		count = s.cfg.Fetcher.MaxCount
	}

	return count
}

// LoadUsers загружает count профилей и целиком заменяет ими список сессии.
// Критерии фильтра сохраняются.
//
// Ошибки:
//   - ErrUpstreamUnavailable / ErrUpstreamInvalid — загрузка не удалась,
//     состояние сессии не меняется;
//   - ErrUnavailable — хранилище сессий недоступно.
//
// Параллельные загрузки не сериализуются: последняя записавшая побеждает.
func (s *Service) LoadUsers(ctx context.Context, sid string, count int) (*models.View, error) {
	const op = "service.users.LoadUsers"

	if err := requireSession(op, sid); err != nil {
		return nil, err
	}

	lg := log.From(ctx)
	count = s.NormalizeCount(count)

	lg.Info("load_users_request",
		slog.String("op", op),
		slog.Int("count", count),
	)

	started := time.Now()
	users, err := s.fetcher.FetchUsers(ctx, count)
	if err != nil {
		return nil, s.fetchFailed(ctx, op, err, time.Since(started))
	}
	s.metrics.ObserveFetch(metrics.FetchOK, len(users), time.Since(started))

	mu := s.lock(sid)
	mu.Lock()
	defer mu.Unlock()

	if err := s.sessions.SaveUsers(ctx, sid, users); err != nil {
		lg.Error("save_users_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, unavailable(op, err)
	}

	snap, err := s.load(ctx, op, sid)
	if err != nil {
		return nil, err
	}

	lg.Info("load_users_ok",
		slog.String("op", op),
		slog.Int("users", len(users)),
		slog.Duration("took", time.Since(started)),
	)

	return view(snap), nil
}

// fetchFailed классифицирует ошибку Fetcher и фиксирует метрику.
func (s *Service) fetchFailed(ctx context.Context, op string, err error, took time.Duration) error {
	lg := log.From(ctx)

	var ve *randomuser.ValidationError
	if errors.As(err, &ve) {
		s.metrics.ObserveFetch(metrics.FetchInvalid, 0, took)
		lg.Warn("load_users_invalid_payload",
			slog.String("op", op),
			slog.Int("index", ve.Index),
			slog.String("field", ve.Field),
		)
		return fmt.Errorf("%s: %w: %w", op, ErrUpstreamInvalid, err)
	}

	s.metrics.ObserveFetch(metrics.FetchFailed, 0, took)

	var fe *randomuser.FetchError
	if errors.As(err, &fe) {
		lg.Warn("load_users_upstream_failed",
			slog.String("op", op),
			slog.Int("status", fe.Status),
			slog.String("err", err.Error()),
		)
	} else {
		lg.Warn("load_users_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
	}

	return fmt.Errorf("%s: %w: %w", op, ErrUpstreamUnavailable, err)
}

// State возвращает видимый список с текущими критериями.
func (s *Service) State(ctx context.Context, sid string) (*models.View, error) {
	const op = "service.users.State"

	if err := requireSession(op, sid); err != nil {
		return nil, err
	}

	snap, err := s.load(ctx, op, sid)
	if err != nil {
		return nil, err
	}

	return view(snap), nil
}

// Snapshot возвращает сохранённое состояние сессии как есть.
func (s *Service) Snapshot(ctx context.Context, sid string) (*models.Snapshot, error) {
	const op = "service.users.Snapshot"

	if err := requireSession(op, sid); err != nil {
		return nil, err
	}

	snap, err := s.load(ctx, op, sid)
	if err != nil {
		return nil, err
	}

	return &snap, nil
}

// UserByID возвращает профиль из полного списка сессии (фильтр не учитывается).
func (s *Service) UserByID(ctx context.Context, sid, id string) (*models.User, error) {
	const op = "service.users.UserByID"

	if err := requireSession(op, sid); err != nil {
		return nil, err
	}

	if id == "" {
		return nil, fmt.Errorf("%s: empty id: %w", op, ErrInvalidArgument)
	}

	snap, err := s.load(ctx, op, sid)
	if err != nil {
		return nil, err
	}

	i := indexOf(snap.Users, id)
	if i < 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	u := snap.Users[i].Clone()
	return &u, nil
}

// ToggleFavourite инвертирует Favourite у пользователя.
func (s *Service) ToggleFavourite(ctx context.Context, sid, id string) (*models.User, error) {
	const op = "service.users.ToggleFavourite"

	u, err := s.mutateUser(ctx, op, sid, id, func(u *models.User) bool {
		u.Favourite = !u.Favourite
		return true
	})
	if err != nil {
		return nil, err
	}

	log.From(ctx).Info("favourite_toggled",
		slog.String("op", op),
		slog.String("user_id", u.ID),
		slog.String("email", redact.Email(u.Email)),
		slog.String("phone", redact.Phone(u.Phone)),
		slog.Bool("favourite", u.Favourite),
	)

	return u, nil
}

// mutateUser — read-modify-write одного пользователя под блокировкой сессии.
// apply возвращает false, если запись не изменилась (тогда сохранения нет).
func (s *Service) mutateUser(ctx context.Context, op, sid, id string, apply func(*models.User) bool) (*models.User, error) {
	if err := requireSession(op, sid); err != nil {
		return nil, err
	}

	if id == "" {
		return nil, fmt.Errorf("%s: empty id: %w", op, ErrInvalidArgument)
	}

	mu := s.lock(sid)
	mu.Lock()
	defer mu.Unlock()

	snap, err := s.load(ctx, op, sid)
	if err != nil {
		return nil, err
	}

	i := indexOf(snap.Users, id)
	if i < 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	if apply(&snap.Users[i]) {
		if err := s.sessions.SaveUsers(ctx, sid, snap.Users); err != nil {
			log.From(ctx).Error("save_users_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return nil, unavailable(op, err)
		}
	}

	u := snap.Users[i].Clone()
	return &u, nil
}

func indexOf(users []models.User, id string) int {
	for i := range users {
		if users[i].ID == id {
			return i
		}
	}

	return -1
}

// view строит представление по снимку.
func view(snap models.Snapshot) *models.View {
	return &models.View{
		Criteria: snap.Criteria,
		Users:    filter.Visible(snap.Users, snap.Criteria),
		Total:    len(snap.Users),
	}
}
