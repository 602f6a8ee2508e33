package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pribylovaa/go-users-directory/internal/storage"
	"github.com/pribylovaa/go-users-directory/pkg/log"
)

// StartSweeper периодически удаляет просроченные сессии бэкенда sw.
//
// Особенности:
//   - нужен бэкендам с ленивым удалением (memory, postgres);
//   - ошибка одного прохода логируется, цикл продолжается;
//   - число удалённых записей уходит в метрику directory_swept_session_records_total;
//   - останавливается по ctx.
func (s *Service) StartSweeper(ctx context.Context, sw storage.Sweeper, interval time.Duration) error {
	const op = "service.sweeper.StartSweeper"

	if interval <= 0 {
		return fmt.Errorf("%s: interval must be > 0", op)
	}

	lg := log.From(ctx)
	lg.Info("sweeper_start",
		slog.String("op", op),
		slog.Duration("interval", interval),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			lg.Info("sweeper_stop", slog.String("op", op))
			return nil
		case <-ticker.C:
			s.sweepOnce(ctx, sw)
		}
	}
}

// sweepOnce — один проход очистки.
func (s *Service) sweepOnce(ctx context.Context, sw storage.Sweeper) {
	const op = "service.sweeper.sweepOnce"

	lg := log.From(ctx)

	n, err := sw.Sweep(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}

		lg.Warn("sweep_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return
	}

	s.metrics.AddSwept(n)

	if n > 0 {
		lg.Debug("sweep_done",
			slog.String("op", op),
			slog.Int64("removed", n),
		)
	}
}
