// service содержит бизнес-логику directory-сервиса: загрузку профилей,
// критерии фильтрации, избранное, теги и статистику в рамках одной сессии.
package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/pribylovaa/go-users-directory/internal/config"
	"github.com/pribylovaa/go-users-directory/internal/metrics"
	"github.com/pribylovaa/go-users-directory/internal/models"
	"github.com/pribylovaa/go-users-directory/internal/session"
)

var (
	// ErrNotFound — пользователь с таким id отсутствует в списке сессии.
	// Транспорт: 404.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument — некорректные входные аргументы.
	// Транспорт: 400.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnavailable — хранилище сессий недоступно.
	// Транспорт: 503.
	ErrUnavailable = errors.New("session storage unavailable")
	// ErrUpstreamUnavailable — внешний API не ответил или вернул не-2xx.
	// Транспорт: 502.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrUpstreamInvalid — внешний API вернул некорректные данные.
	// Транспорт: 502.
	ErrUpstreamInvalid = errors.New("upstream returned invalid data")
)

// Scope статистики.
const (
	ScopeVisible = "visible"
	ScopeAll     = "all"
)

// lockStripes — число мьютексов для сериализации изменений сессий.
const lockStripes = 64

// Fetcher — источник случайных профилей.
//
// Требования к реализации:
//  1. один вызов — одна попытка, без внутренних ретраев;
//  2. Favourite=false и Tags=[] у каждой записи;
//  3. выборка либо целиком валидна, либо возвращается ошибка.
type Fetcher interface {
	FetchUsers(ctx context.Context, count int) ([]models.User, error)
}

// Service — описывает бизнес-логику directory-сервиса.
//
// Все изменения одной сессии (read-modify-write) выполняются под мьютексом
// её полосы; сетевой запрос к Fetcher делается вне блокировки.
type Service struct {
	fetcher  Fetcher
	sessions *session.Store
	cfg      config.Config
	metrics  *metrics.Metrics
	locks    [lockStripes]sync.Mutex
}

// New создает новый экземпляр Service. m может быть nil.
func New(fetcher Fetcher, sessions *session.Store, cfg config.Config, m *metrics.Metrics) *Service {
	return &Service{
		fetcher:  fetcher,
		sessions: sessions,
		cfg:      cfg,
		metrics:  m,
	}
}

// lock возвращает мьютекс полосы сессии sid.
func (s *Service) lock(sid string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sid))

	return &s.locks[h.Sum32()%lockStripes]
}

// unavailable оборачивает ошибку хранилища.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

// requireSession — пустой sid означает ошибку сборки транспорта.
func requireSession(op, sid string) error {
	if sid == "" {
		return fmt.Errorf("%s: empty session id: %w", op, ErrInvalidArgument)
	}

	return nil
}

// load читает снимок сессии.
func (s *Service) load(ctx context.Context, op, sid string) (models.Snapshot, error) {
	snap, err := s.sessions.LoadSnapshot(ctx, sid)
	if err != nil {
		return models.Snapshot{}, unavailable(op, err)
	}

	return snap, nil
}
