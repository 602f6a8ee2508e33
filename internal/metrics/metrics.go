// metrics описывает prometheus-метрики сервиса.
//
// Все методы безопасны для nil-получателя: сервис и middleware можно
// собирать без метрик (например, в тестах).
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Результаты загрузки для лейбла result.
const (
	FetchOK      = "ok"
	FetchFailed  = "upstream_error"
	FetchInvalid = "invalid_payload"
)

// Metrics — набор метрик сервиса.
type Metrics struct {
	fetchTotal    *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	fetchedUsers  prometheus.Histogram
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	sweptSessions prometheus.Counter
}

// New регистрирует метрики в reg (обычно prometheus.DefaultRegisterer).
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		fetchTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "directory_fetch_total",
				Help: "Total number of upstream user fetches by result",
			},
			[]string{"result"},
		),
		fetchDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "directory_fetch_duration_seconds",
				Help:    "Duration of upstream user fetches in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		fetchedUsers: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "directory_fetched_users",
				Help:    "Number of users returned by a successful fetch",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "directory_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "directory_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		sweptSessions: f.NewCounter(
			prometheus.CounterOpts{
				Name: "directory_swept_session_records_total",
				Help: "Total number of expired session records removed by the sweeper",
			},
		),
	}
}

// ObserveFetch фиксирует одну загрузку из внешнего API.
func (m *Metrics) ObserveFetch(result string, users int, d time.Duration) {
	if m == nil {
		return
	}

	m.fetchTotal.WithLabelValues(result).Inc()
	m.fetchDuration.Observe(d.Seconds())

	if result == FetchOK {
		m.fetchedUsers.Observe(float64(users))
	}
}

// ObserveHTTP фиксирует один HTTP-запрос. route — шаблон маршрута chi.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}

	if route == "" {
		route = "unmatched"
	}

	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// AddSwept учитывает вычищенные просроченные записи.
func (m *Metrics) AddSwept(n int64) {
	if m == nil || n <= 0 {
		return
	}

	m.sweptSessions.Add(float64(n))
}
