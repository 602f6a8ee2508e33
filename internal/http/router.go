package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/go-users-directory/internal/http/handlers"
	"github.com/pribylovaa/go-users-directory/internal/http/middleware"
	"github.com/pribylovaa/go-users-directory/internal/metrics"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger  *slog.Logger
	Timeout time.Duration

	Tokens  middleware.SessionTokens
	Session middleware.SessionOptions

	// Metrics — счётчики HTTP; nil отключает их.
	Metrics *metrics.Metrics
	// Gatherer — источник для /metrics; при nil эндпойнт не регистрируется.
	Gatherer prometheus.Gatherer
	// Ready — готовность для /healthz; при nil сервис всегда готов.
	Ready func() bool
}

// NewRouter собирает http.Handler: chi-роутер с REST API и служебными эндпойнтами.
//
// Мидлвары (внешний -> внутренний):
// RequestID -> Logging -> Metrics -> Recover, для API дополнительно Session -> Timeout.
// Служебные /livez, /healthz, /metrics сессий не создают.
func NewRouter(d handlers.Directory, opts Options) http.Handler {
	root := chi.NewRouter()

	root.Use(
		middleware.RequestID(),          // X-Request-Id до логирования
		middleware.Logging(opts.Logger), // request-scoped логгер в контексте
		middleware.Metrics(opts.Metrics),
		middleware.Recover(),
	)

	registerOps(root, opts)

	h := handlers.New(d)

	root.Group(func(r chi.Router) {
		r.Use(middleware.Session(opts.Tokens, opts.Session))
		if opts.Timeout > 0 {
			r.Use(middleware.Timeout(opts.Timeout))
		}

		registerRoutes(r, h)
	})

	return root
}

// registerRoutes — единая точка регистрации REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers) {
	// users
	r.Post("/users/load", h.LoadUsers)
	r.Get("/users", h.ListUsers)
	r.Get("/users/{id}", h.GetUser)
	r.Post("/users/{id}/favourite", h.ToggleFavourite)

	// tags
	r.Post("/users/{id}/tags", h.AddTag)
	r.Delete("/users/{id}/tags", h.RemoveTag)
	r.Put("/users/{id}/tags", h.RenameTag)

	// criteria
	r.Get("/criteria", h.GetCriteria)
	r.Patch("/criteria", h.PatchCriteria)

	r.Get("/stats", h.GetStats)
	r.Get("/snapshot", h.GetSnapshot)
}

func registerOps(r chi.Router, opts Options) {
	r.Get("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if opts.Ready != nil && !opts.Ready() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
}
