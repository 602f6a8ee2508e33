// session сохраняет и восстанавливает состояние пользовательской сессии
// (критерии фильтра и загруженный список) поверх storage.Sessions.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/pribylovaa/go-users-directory/internal/models"
	"github.com/pribylovaa/go-users-directory/internal/storage"
	"github.com/pribylovaa/go-users-directory/pkg/log"
)

// Ключи состояния сессии.
const (
	KeySearchText     = "searchText"
	KeyGenderFilter   = "genderFilter"
	KeyFavouritesOnly = "showFavouritesOnly"
	KeyUsersList      = "usersList"
)

// ErrStorageParse — сохранённое значение не декодируется.
// Наружу не возвращается: ключ получает значение по умолчанию.
var ErrStorageParse = errors.New("storage parse error")

// Store кодирует поля models.Snapshot в строки и обратно.
//
// Кодирование:
//   - searchText, genderFilter — строка как есть;
//   - showFavouritesOnly — "true"/"false";
//   - usersList — JSON-массив models.User.
type Store struct {
	kv storage.Sessions
}

// NewStore создаёт Store поверх бэкенда kv.
func NewStore(kv storage.Sessions) *Store {
	return &Store{kv: kv}
}

// LoadSnapshot читает все четыре ключа независимо друг от друга.
// Отсутствующий или битый ключ получает значение по умолчанию, остальные
// восстанавливаются как есть. Ошибка возвращается только при отказе бэкенда.
func (s *Store) LoadSnapshot(ctx context.Context, sid string) (models.Snapshot, error) {
	const op = "session.LoadSnapshot"

	snap := models.DefaultSnapshot()

	fields := []struct {
		key    string
		decode func(string) error
	}{
		{KeySearchText, func(raw string) error {
			snap.SearchText = raw
			return nil
		}},
		{KeyGenderFilter, func(raw string) error {
			v, err := decodeGender(raw)
			if err == nil {
				snap.GenderFilter = v
			}
			return err
		}},
		{KeyFavouritesOnly, func(raw string) error {
			v, err := decodeBool(raw)
			if err == nil {
				snap.FavouritesOnly = v
			}
			return err
		}},
		{KeyUsersList, func(raw string) error {
			v, err := decodeUsers(raw)
			if err == nil {
				snap.Users = v
			}
			return err
		}},
	}

	for _, f := range fields {
		raw, ok, err := s.get(ctx, sid, f.key)
		if err != nil {
			return models.Snapshot{}, fmt.Errorf("%s: %w", op, err)
		}

		if !ok {
			continue
		}

		if err := f.decode(raw); err != nil {
			log.From(ctx).Debug("session_value_parse_failed",
				slog.String("op", op),
				slog.String("key", f.key),
				slog.String("err", err.Error()),
			)
		}
	}

	return snap, nil
}

// SaveSnapshot записывает все четыре ключа одной атомарной операцией.
func (s *Store) SaveSnapshot(ctx context.Context, sid string, snap models.Snapshot) error {
	const op = "session.SaveSnapshot"

	values := encodeCriteria(snap.Criteria)

	users, err := encodeUsers(snap.Users)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	values[KeyUsersList] = users

	if err := s.kv.SetMany(ctx, sid, values); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// SaveCriteria записывает три ключа критериев атомарно:
// при ошибке бэкенда в сессии остаются прежние значения.
func (s *Store) SaveCriteria(ctx context.Context, sid string, c models.Criteria) error {
	const op = "session.SaveCriteria"

	if err := s.kv.SetMany(ctx, sid, encodeCriteria(c)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// SaveUsers сериализует список целиком. nil сохраняется как [].
func (s *Store) SaveUsers(ctx context.Context, sid string, users []models.User) error {
	const op = "session.SaveUsers"

	raw, err := encodeUsers(users)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.kv.Set(ctx, sid, KeyUsersList, raw); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Store) get(ctx context.Context, sid, key string) (string, bool, error) {
	raw, err := s.kv.Get(ctx, sid, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", false, nil
		}

		return "", false, err
	}

	return raw, true, nil
}

func encodeCriteria(c models.Criteria) map[string]string {
	return map[string]string{
		KeySearchText:     c.SearchText,
		KeyGenderFilter:   c.GenderFilter,
		KeyFavouritesOnly: strconv.FormatBool(c.FavouritesOnly),
	}
}

func encodeUsers(users []models.User) (string, error) {
	if users == nil {
		users = []models.User{}
	}

	b, err := json.Marshal(users)
	if err != nil {
		return "", fmt.Errorf("marshal users: %w", err)
	}

	return string(b), nil
}

// decodeGender — пустой фильтр не совпал бы ни с одной записью, считаем его битым.
func decodeGender(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: empty gender filter", ErrStorageParse)
	}

	return raw, nil
}

func decodeBool(raw string) (bool, error) {
	switch raw {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}

	return false, fmt.Errorf("%w: bool %q", ErrStorageParse, raw)
}

// decodeUsers допускает неполные записи; nil-теги нормализуются в [].
func decodeUsers(raw string) ([]models.User, error) {
	var users []models.User
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		return nil, fmt.Errorf("%w: users list: %v", ErrStorageParse, err)
	}

	if users == nil {
		return nil, fmt.Errorf("%w: users list is null", ErrStorageParse)
	}

	for i := range users {
		if users[i].Tags == nil {
			users[i].Tags = []string{}
		}
	}

	return users, nil
}
