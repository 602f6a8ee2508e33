// redis — реализация storage.Sessions поверх Redis.
//
// Каждая сессия — Redis Hash <prefix><sid> с полями-ключами;
// TTL выставляется на весь хэш при каждом чтении и записи.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pribylovaa/go-users-directory/internal/storage"
	goredis "github.com/redis/go-redis/v9"
)

// DefaultPrefix — префикс ключей сессий по умолчанию.
const DefaultPrefix = "directory:session:"

// Storage — хранилище сессий в Redis.
type Storage struct {
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

// New создаёт клиент из URL (например, redis://:pass@host:6379/0) и
// проверяет соединение. Пустой prefix заменяется на DefaultPrefix.
func New(ctx context.Context, redisURL, prefix string, ttl time.Duration) (*Storage, error) {
	const op = "storage.redis.New"

	if prefix == "" {
		prefix = DefaultPrefix
	}

	opt, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: parse url: %w", op, err)
	}

	rdb := goredis.NewClient(opt)

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	return &Storage{rdb: rdb, prefix: prefix, ttl: ttl}, nil
}

func (s *Storage) key(sid string) string { return s.prefix + sid }

// Get читает поле и в той же транзакции продлевает TTL хэша.
// EXPIRE по отсутствующему ключу ничего не создаёт.
func (s *Storage) Get(ctx context.Context, sid, key string) (string, error) {
	const op = "storage.redis.Get"

	if err := storage.ValidateKey(sid, key); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	pipe := s.rdb.TxPipeline()
	get := pipe.HGet(ctx, s.key(sid), key)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(sid), s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, goredis.Nil) {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	value, err := get.Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	return value, nil
}

func (s *Storage) Set(ctx context.Context, sid, key, value string) error {
	const op = "storage.redis.Set"

	if err := storage.ValidateKey(sid, key); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return s.write(ctx, op, sid, map[string]string{key: value})
}

// SetMany пишет все поля одной командой HSET внутри MULTI/EXEC.
func (s *Storage) SetMany(ctx context.Context, sid string, values map[string]string) error {
	const op = "storage.redis.SetMany"

	if err := storage.ValidateValues(sid, values); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return s.write(ctx, op, sid, values)
}

func (s *Storage) write(ctx context.Context, op, sid string, values map[string]string) error {
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, s.key(sid), values)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(sid), s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Storage) Close() error { return s.rdb.Close() }

var _ storage.Sessions = (*Storage)(nil)
