// storage определяет контракт key/value-хранилища сессий.
//
// Значения — непрозрачные строки; кодированием занимается session.Store.
// Время жизни сессии (TTL) обеспечивает реализация: любое обращение к живой
// сессии (Get, Set, SetMany) продлевает срок жизни всех её ключей.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound — ключ (или сессия целиком) отсутствует либо истёк.
	ErrNotFound = errors.New("not found")
	// ErrInvalidKey — пустой идентификатор сессии или ключ.
	ErrInvalidKey = errors.New("invalid key")
)

// Sessions — key/value-хранилище, разбитое на сессии.
type Sessions interface {
	// Get возвращает значение ключа сессии или ErrNotFound.
	// Чтение живой сессии продлевает её TTL, даже если ключа в ней нет.
	Get(ctx context.Context, sid, key string) (string, error)
	// Set безусловно перезаписывает значение и продлевает TTL сессии.
	Set(ctx context.Context, sid, key, value string) error
	// SetMany записывает несколько ключей атомарно: либо все, либо ни одного.
	SetMany(ctx context.Context, sid string, values map[string]string) error
	// Ping проверяет доступность бэкенда.
	Ping(ctx context.Context) error
	// Close освобождает ресурсы.
	Close() error
}

// Sweeper реализуют бэкенды с ленивым удалением просроченных сессий.
type Sweeper interface {
	// Sweep удаляет просроченные данные и возвращает число удалённых записей.
	Sweep(ctx context.Context) (int64, error)
}

// ValidateKey проверяет пару sid/key перед обращением к бэкенду.
func ValidateKey(sid, key string) error {
	if sid == "" || key == "" {
		return ErrInvalidKey
	}

	return nil
}

// ValidateValues проверяет sid и все ключи пакетной записи.
// Пустой набор значений считается ошибкой.
func ValidateValues(sid string, values map[string]string) error {
	if sid == "" || len(values) == 0 {
		return ErrInvalidKey
	}

	for key := range values {
		if key == "" {
			return ErrInvalidKey
		}
	}

	return nil
}
