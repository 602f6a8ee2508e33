// memory — in-process реализация storage.Sessions.
// Подходит для одного экземпляра сервиса и для тестов.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pribylovaa/go-users-directory/internal/storage"
)

// Storage хранит сессии в map под мьютексом; просроченные удаляются
// лениво (при чтении) и через Sweep.
type Storage struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]*session
}

type session struct {
	values    map[string]string
	expiresAt time.Time
}

// Option настраивает Storage.
type Option func(*Storage)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(s *Storage) { s.now = now }
}

// New создаёт хранилище. ttl <= 0 означает бессрочные сессии.
func New(ttl time.Duration, opts ...Option) *Storage {
	s := &Storage{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*session),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Storage) Get(ctx context.Context, sid, key string) (string, error) {
	const op = "storage.memory.Get"

	if err := storage.ValidateKey(sid, key); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sid]
	if !ok {
		return "", fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	if s.expired(sess) {
		delete(s.sessions, sid)
		return "", fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	s.touch(sess)

	value, ok := sess.values[key]
	if !ok {
		return "", fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return value, nil
}

func (s *Storage) Set(ctx context.Context, sid, key, value string) error {
	const op = "storage.memory.Set"

	if err := storage.ValidateKey(sid, key); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return s.write(ctx, op, sid, map[string]string{key: value})
}

// SetMany записывает все значения под одной блокировкой.
func (s *Storage) SetMany(ctx context.Context, sid string, values map[string]string) error {
	const op = "storage.memory.SetMany"

	if err := storage.ValidateValues(sid, values); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return s.write(ctx, op, sid, values)
}

func (s *Storage) write(ctx context.Context, op, sid string, values map[string]string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sid]
	if !ok || s.expired(sess) {
		sess = &session{values: make(map[string]string, len(values))}
		s.sessions[sid] = sess
	}

	for key, value := range values {
		sess.values[key] = value
	}
	s.touch(sess)

	return nil
}

// Sweep удаляет все просроченные сессии.
func (s *Storage) Sweep(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("storage.memory.Sweep: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for sid, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, sid)
			removed++
		}
	}

	return removed, nil
}

func (s *Storage) Ping(context.Context) error { return nil }

func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make(map[string]*session)
	return nil
}

// touch сдвигает срок жизни сессии; вызывается под s.mu.
func (s *Storage) touch(sess *session) {
	if s.ttl > 0 {
		sess.expiresAt = s.now().Add(s.ttl)
	}
}

func (s *Storage) expired(sess *session) bool {
	return !sess.expiresAt.IsZero() && !s.now().Before(sess.expiresAt)
}

var (
	_ storage.Sessions = (*Storage)(nil)
	_ storage.Sweeper  = (*Storage)(nil)
)
