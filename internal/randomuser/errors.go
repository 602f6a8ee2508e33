package randomuser

import (
	"fmt"
	"net/http"
)

// FetchError — сетевая ошибка или не-2xx ответ источника.
// Status == 0 означает, что ответ не был получен.
type FetchError struct {
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("randomuser: fetch failed: status=%d %s", e.Status, http.StatusText(e.Status))
	}

	return fmt.Sprintf("randomuser: fetch failed: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ValidationError — полученная запись не соответствует контракту.
// Index — позиция записи в results (-1 для тела целиком), Field хранит путь поля.
type ValidationError struct {
	Index  int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "missing"
	}

	if e.Index < 0 {
		return fmt.Sprintf("randomuser: invalid payload: %s: %s", e.Field, reason)
	}

	return fmt.Sprintf("randomuser: invalid record #%d: %s: %s", e.Index, e.Field, reason)
}
