package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/go-users-directory/internal/metrics"
)

// Metrics считает запросы и их длительность по шаблону маршрута chi
// (например /users/{id}), чтобы id не раздували кардинальность меток.
// Должен подключаться внутри chi.Router (через Use): шаблон известен
// только после маршрутизации.
func Metrics(m *metrics.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := newStatusWriter(w)
			start := time.Now()
			next.ServeHTTP(sw, r)

			var route string
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}

			m.ObserveHTTP(r.Method, route, sw.Status(), time.Since(start))
		})
	}
}
