package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	logctx "github.com/pribylovaa/go-users-directory/pkg/log"
)

// Timeout ограничивает обработку запроса сверху сроком d.
// Более ранний дедлайн родительского контекста сохраняется; d <= 0 делает
// мидлвар no-op. Запрос, выбравший дедлайн, отмечается в логе.
func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))

			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				logctx.From(ctx).Warn("request_deadline_exceeded",
					slog.String("op", "http.middleware.Timeout"),
					slog.String("path", r.URL.Path),
					slog.Duration("limit", d),
				)
			}
		})
	}
}
