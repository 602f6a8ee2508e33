package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"

	apierrors "github.com/pribylovaa/go-users-directory/internal/errors"
)

type requestIDKey struct{}

// RequestID обеспечивает наличие X-Request-Id:
//  1. берёт заголовок X-Request-Id, если он есть;
//  2. иначе генерирует случайный hex id (32 символа);
//  3. кладёт id в заголовки ответа и запроса (его читает errors.WriteError)
//     и в контекст (см. RequestIDFrom).
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(apierrors.HeaderRequestID)
			if id == "" {
				id = genID()
				r.Header.Set(apierrors.HeaderRequestID, id)
			}
			w.Header().Set(apierrors.HeaderRequestID, id)

			ctx := context.WithValue(r.Context(), requestIDKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFrom возвращает id запроса из контекста или "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func genID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
