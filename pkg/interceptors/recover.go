package interceptors

import (
	"context"
	"log/slog"
	"runtime/debug"

	"github.com/pribylovaa/go-users-directory/pkg/log"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Recover возвращает unary-интерсептор, переводящий панику обработчика
// в codes.Internal. Детали паники пишутся в лог (метод, значение, стек),
// клиент получает нейтральное сообщение.
//
// Логгер берётся из контекста запроса; если его там нет — base (или slog.Default()).
func Recover(base *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				l := log.From(ctx)
				if l == slog.Default() && base != nil {
					l = base
				}

				l.Error("panic_recovered",
					slog.String("method", info.FullMethod),
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())),
				)

				resp, err = nil, status.Error(codes.Internal, "internal server error")
			}
		}()

		return handler(ctx, req)
	}
}
