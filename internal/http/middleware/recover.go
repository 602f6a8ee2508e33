package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	apierrors "github.com/pribylovaa/go-users-directory/internal/errors"
	logctx "github.com/pribylovaa/go-users-directory/pkg/log"
)

// Recover перехватывает panic, пишет в лог путь, значение и стек
// и отвечает 500/internal. Детали паники клиенту не уходят.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}

					logctx.From(r.Context()).LogAttrs(r.Context(), slog.LevelError, "panic_recovered",
						slog.String("path", r.URL.Path),
						slog.Any("panic", rec),
						slog.String("stack", string(debug.Stack())),
					)
					apierrors.WriteError(w, r, fmt.Errorf("panic: %v", rec))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
