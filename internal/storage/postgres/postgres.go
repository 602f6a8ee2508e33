// postgres предоставляет реализацию storage.Sessions на базе PostgreSQL.
// Схема — migrations/1_init_sessions.up.sql.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pribylovaa/go-users-directory/internal/storage"
)

// noExpiry — срок для ttl <= 0.
const noExpiry = 100 * 365 * 24 * time.Hour

// ErrSchemaMissing — таблица session_values не создана (миграции не применены).
var ErrSchemaMissing = errors.New("session_values table is missing: apply migrations")

// Storage — хранилище сессий в таблице session_values.
type Storage struct {
	db  *pgxpool.Pool
	ttl time.Duration
}

// New создает и инициализирует пул соединений к PostgreSQL.
func New(ctx context.Context, dbURL string, ttl time.Duration) (*Storage, error) {
	const op = "storage.postgres.New"

	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if ttl <= 0 {
		ttl = noExpiry
	}

	return &Storage{db: db, ttl: ttl}, nil
}

// Ping проверяет соединение с БД.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close закрывает пул соединений.
// Должен вызываться при остановке приложения.
func (s *Storage) Close() error {
	s.db.Close()
	return nil
}

// mapErr переводит ошибки PostgreSQL в ошибки слоя хранилища.
func mapErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable {
		return fmt.Errorf("%w: %s", ErrSchemaMissing, pgErr.Message)
	}

	return err
}

// Проверка выполнения контракта верхнего уровня.
var (
	_ storage.Sessions = (*Storage)(nil)
	_ storage.Sweeper  = (*Storage)(nil)
)
