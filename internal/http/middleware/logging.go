package middleware

import (
	"log/slog"
	"net/http"
	"time"

	logctx "github.com/pribylovaa/go-users-directory/pkg/log"
)

// Logging кладёт в контекст request-scoped логгер (с request_id, если он уже
// проставлен) и после ответа пишет одну запись "http": method, path, status,
// dur, bytes. Уровень: Info, Warn для 4xx, Error для 5xx.
func Logging(l *slog.Logger) Middleware {
	if l == nil {
		l = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLogger := l
			if rid := RequestIDFrom(r.Context()); rid != "" {
				reqLogger = reqLogger.With(slog.String("request_id", rid))
			}
			r = r.WithContext(logctx.Into(r.Context(), reqLogger))

			sw := newStatusWriter(w)
			start := time.Now()
			next.ServeHTTP(sw, r)

			status := sw.Status()
			lvl := slog.LevelInfo
			switch {
			case status >= http.StatusInternalServerError:
				lvl = slog.LevelError
			case status >= http.StatusBadRequest:
				lvl = slog.LevelWarn
			}

			reqLogger.LogAttrs(r.Context(), lvl, "http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Duration("dur", time.Since(start)),
				slog.Int("bytes", sw.count),
			)
		})
	}
}
