package service

import (
	"context"
	"fmt"

	"github.com/pribylovaa/go-users-directory/internal/filter"
	"github.com/pribylovaa/go-users-directory/internal/models"
	"github.com/pribylovaa/go-users-directory/internal/stats"
)

// Stats считает три графика по видимому (scope=visible, по умолчанию)
// или полному (scope=all) списку сессии.
func (s *Service) Stats(ctx context.Context, sid, scope string) (*models.Stats, error) {
	const op = "service.stats.Stats"

	if err := requireSession(op, sid); err != nil {
		return nil, err
	}

	if scope == "" {
		scope = ScopeVisible
	}

	if scope != ScopeVisible && scope != ScopeAll {
		return nil, fmt.Errorf("%s: unknown scope %q: %w", op, scope, ErrInvalidArgument)
	}

	snap, err := s.load(ctx, op, sid)
	if err != nil {
		return nil, err
	}

	users := snap.Users
	if scope == ScopeVisible {
		users = filter.Visible(snap.Users, snap.Criteria)
	}

	st := stats.Compute(users)
	return &st, nil
}
