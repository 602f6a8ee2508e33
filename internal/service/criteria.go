package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pribylovaa/go-users-directory/internal/models"
	"github.com/pribylovaa/go-users-directory/pkg/log"
)

// UpdateCriteria частично обновляет критерии фильтра.
// Записываются только переданные поля; пустое обновление — no-op.
//
// Ошибки:
//   - ErrInvalidArgument — пустой gender_filter (не совпал бы ни с одной записью);
//   - ErrUnavailable — хранилище сессий недоступно.
func (s *Service) UpdateCriteria(ctx context.Context, sid string, upd models.CriteriaUpdate) (*models.View, error) {
	const op = "service.criteria.UpdateCriteria"

	if err := requireSession(op, sid); err != nil {
		return nil, err
	}

	if upd.GenderFilter != nil && *upd.GenderFilter == "" {
		return nil, fmt.Errorf("%s: empty gender filter: %w", op, ErrInvalidArgument)
	}

	lg := log.From(ctx)

	mu := s.lock(sid)
	mu.Lock()
	defer mu.Unlock()

	snap, err := s.load(ctx, op, sid)
	if err != nil {
		return nil, err
	}

	if upd.Empty() {
		return view(snap), nil
	}

	next := snap.Criteria
	if upd.SearchText != nil {
		next.SearchText = *upd.SearchText
	}
	if upd.GenderFilter != nil {
		next.GenderFilter = *upd.GenderFilter
	}
	if upd.FavouritesOnly != nil {
		next.FavouritesOnly = *upd.FavouritesOnly
	}

	// три ключа пишутся одной операцией: при отказе сессия остаётся прежней.
	if err := s.sessions.SaveCriteria(ctx, sid, next); err != nil {
		return nil, unavailable(op, err)
	}
	snap.Criteria = next

	v := view(snap)

	lg.Info("criteria_updated",
		slog.String("op", op),
		slog.Int("search_len", len(snap.SearchText)),
		slog.String("gender_filter", snap.GenderFilter),
		slog.Bool("favourites_only", snap.FavouritesOnly),
		slog.Int("visible", len(v.Users)),
	)

	return v, nil
}
