// log хранит request-scoped *slog.Logger в context.Context.
//
// Транспорт кладёт логгер один раз (Into), мидлвари дополняют его
// атрибутами запроса (With), сервисный слой достаёт его через From.
package log

import (
	"context"
	"log/slog"
)

type loggerKey struct{}

// Into кладёт логгер в контекст. nil не сохраняется: ctx возвращается как есть.
func Into(ctx context.Context, l *slog.Logger) context.Context {
	if l == nil {
		return ctx
	}

	return context.WithValue(ctx, loggerKey{}, l)
}

// From возвращает логгер запроса, а вне запроса slog.Default().
func From(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}

	return slog.Default()
}

// With дополняет логгер из контекста атрибутами и кладёт результат обратно.
// Без атрибутов контекст не меняется.
func With(ctx context.Context, args ...any) context.Context {
	if len(args) == 0 {
		return ctx
	}

	return Into(ctx, From(ctx).With(args...))
}
