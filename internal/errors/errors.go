// errors стандартизирует ответы об ошибках HTTP-слоя directory-сервиса.
// На вход принимается ошибка сервисного слоя, на выход:
//   - HTTP-статус;
//   - короткий стабильный код и безопасное message без утечки деталей.
//
// Источник истинности по маппингу: sentinel-ошибки internal/service.
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/pribylovaa/go-users-directory/internal/service"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// HeaderRequestID — заголовок с идентификатором запроса.
const HeaderRequestID = "X-Request-Id"

// APIError — единый формат ошибки для клиента.
// Code — короткий стабильный код для машинной обработки.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует ошибку сервиса в HTTP-статус и унифицированный ответ.
//
// Маппинг:
//   - ErrUpstreamUnavailable -> 502 upstream_unavailable;
//   - ErrUpstreamInvalid -> 502 upstream_invalid;
//   - ErrInvalidArgument -> 400, ErrNotFound -> 404;
//   - ErrUnavailable -> 503 (хранилище сессий);
//   - context.Canceled -> 499, context.DeadlineExceeded -> 504;
//   - nil и всё прочее -> 500/internal.
//
// Ошибки хранилища оборачиваются вместе с ErrUnavailable, поэтому
// отмена и таймаут проверяются раньше: клиент видит причину, а не следствие.
func ToHTTP(err error) (int, ErrorResponse) {
	httpStatus, code, msg := classify(err)

	return httpStatus, ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	}
}

func classify(err error) (int, string, string) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, "internal", "internal error"
	case stderrors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "canceled", "canceled"
	case stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"
	case stderrors.Is(err, service.ErrUpstreamUnavailable):
		return http.StatusBadGateway, "upstream_unavailable", "user source unavailable"
	case stderrors.Is(err, service.ErrUpstreamInvalid):
		return http.StatusBadGateway, "upstream_invalid", "user source returned invalid data"
	case stderrors.Is(err, service.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument", "invalid argument"
	case stderrors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found", "not found"
	case stderrors.Is(err, service.ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable", "service unavailable"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет статус и тело, добавляет request_id из заголовка запроса, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get(HeaderRequestID); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
