package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	apierrors "github.com/pribylovaa/go-users-directory/internal/errors"
	"github.com/pribylovaa/go-users-directory/internal/session"
	logctx "github.com/pribylovaa/go-users-directory/pkg/log"
)

// HeaderSessionToken — заголовок с токеном сессии для клиентов без cookie.
const HeaderSessionToken = "X-Session-Token"

// SessionTokens — выпуск и проверка токенов сессии (реализует *session.Tokens).
type SessionTokens interface {
	Issue(sid string) (string, time.Time, error)
	Parse(token string) (session.Claims, error)
}

// SessionOptions — параметры cookie сессии.
type SessionOptions struct {
	Cookie string
	Secure bool
	// Now — источник времени для решения о продлении токена; по умолчанию time.Now.
	Now func() time.Time
}

type sessionKey struct{}

// Session определяет сессию запроса.
//
// Порядок:
//  1. токен берётся из cookie opts.Cookie, иначе из заголовка X-Session-Token;
//  2. валидный токен даёт идентификатор сессии; если прошла половина срока
//     жизни, выпускается новый токен для той же сессии;
//  3. отсутствующий, просроченный или поддельный токен — новая сессия.
//
// Выпущенный токен возвращается и в Set-Cookie, и в X-Session-Token.
// Идентификатор сессии доступен обработчикам через SessionID.
func Session(tokens SessionTokens, opts SessionOptions) Middleware {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "http.middleware.Session"

			ctx := r.Context()
			lg := logctx.From(ctx)

			var (
				sid   string
				issue bool
			)

			raw := readToken(r, opts.Cookie)
			if raw != "" {
				claims, err := tokens.Parse(raw)
				if err == nil {
					sid = claims.SessionID
					issue = claims.NeedsRefresh(now())
				} else {
					lg.Debug("session_token_rejected",
						slog.String("op", op),
						slog.String("err", err.Error()),
					)
				}
			}

			if sid == "" {
				sid = session.NewID()
				issue = true
				lg.Debug("session_started", slog.String("op", op))
			}

			if issue {
				token, exp, err := tokens.Issue(sid)
				if err != nil {
					lg.Error("session_token_issue_failed",
						slog.String("op", op),
						slog.String("err", err.Error()),
					)
					apierrors.WriteError(w, r, fmt.Errorf("%s: %w", op, err))
					return
				}

				writeToken(w, opts, token, exp)
			}

			ctx = WithSessionID(ctx, sid)
			ctx = logctx.With(ctx, slog.String("session", shortID(sid)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionID возвращает идентификатор сессии запроса или "".
func SessionID(ctx context.Context) string {
	sid, _ := ctx.Value(sessionKey{}).(string)
	return sid
}

// WithSessionID кладёт идентификатор сессии в контекст.
func WithSessionID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sid)
}

// shortID — префикс идентификатора сессии для логов.
func shortID(sid string) string {
	if len(sid) > 8 {
		return sid[:8]
	}

	return sid
}

func readToken(r *http.Request, cookie string) string {
	if cookie != "" {
		if c, err := r.Cookie(cookie); err == nil && c.Value != "" {
			return c.Value
		}
	}

	return r.Header.Get(HeaderSessionToken)
}

func writeToken(w http.ResponseWriter, opts SessionOptions, token string, exp time.Time) {
	w.Header().Set(HeaderSessionToken, token)

	if opts.Cookie == "" {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     opts.Cookie,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
