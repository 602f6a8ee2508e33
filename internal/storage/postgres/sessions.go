package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pribylovaa/go-users-directory/internal/storage"
)

// Get возвращает значение непросроченного ключа и одним запросом
// сдвигает expires_at у всех ключей живой сессии.
// Ошибки: storage.ErrNotFound, если записи нет или она истекла.
func (s *Storage) Get(ctx context.Context, sid, key string) (string, error) {
	const op = "storage.postgres.Get"

	if err := storage.ValidateKey(sid, key); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var value string
	err := s.db.QueryRow(ctx, `
	WITH touched AS (
		UPDATE session_values
		SET expires_at = now() + $3::float8 * interval '1 second'
		WHERE session_id = $1 AND expires_at > now()
		RETURNING key, value
	)
	SELECT value FROM touched WHERE key = $2
	`, sid, key, s.ttl.Seconds()).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return "", fmt.Errorf("%s: %w", op, mapErr(err))
	}

	return value, nil
}

// Set делает upsert ключа и сдвигает expires_at у всех ключей сессии.
func (s *Storage) Set(ctx context.Context, sid, key, value string) error {
	const op = "storage.postgres.Set"

	if err := storage.ValidateKey(sid, key); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return s.write(ctx, op, sid, map[string]string{key: value})
}

// SetMany делает upsert всех ключей в одной транзакции.
func (s *Storage) SetMany(ctx context.Context, sid string, values map[string]string) error {
	const op = "storage.postgres.SetMany"

	if err := storage.ValidateValues(sid, values); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return s.write(ctx, op, sid, values)
}

func (s *Storage) write(ctx context.Context, op, sid string, values map[string]string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, err)
	}
	defer tx.Rollback(ctx)

	ttlSeconds := s.ttl.Seconds()

	batch := &pgx.Batch{}
	// истёкшие ключи сессии не должны «воскреснуть» вместе с новой записью.
	batch.Queue(`
	DELETE FROM session_values
	WHERE session_id = $1 AND expires_at <= now()
	`, sid)
	for key, value := range values {
		batch.Queue(`
		INSERT INTO session_values (session_id, key, value, expires_at)
		VALUES ($1, $2, $3, now() + $4::float8 * interval '1 second')
		ON CONFLICT (session_id, key) DO UPDATE
		SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at
		`, sid, key, value, ttlSeconds)
	}
	batch.Queue(`
	UPDATE session_values
	SET expires_at = now() + $2::float8 * interval '1 second'
	WHERE session_id = $1
	`, sid, ttlSeconds)

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("%s: batch item %d: %w", op, i, mapErr(err))
		}
	}

	if err := br.Close(); err != nil {
		return fmt.Errorf("%s: batch close: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	return nil
}

// Sweep удаляет просроченные ключи всех сессий.
func (s *Storage) Sweep(ctx context.Context) (int64, error) {
	const op = "storage.postgres.Sweep"

	tag, err := s.db.Exec(ctx, `DELETE FROM session_values WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, mapErr(err))
	}

	return tag.RowsAffected(), nil
}
