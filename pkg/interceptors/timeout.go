// interceptors содержит серверные gRPC-интерсепторы: перехват паник,
// логирование вызовов и ограничение времени обработки.
package interceptors

import (
	"context"
	"time"

	"google.golang.org/grpc"
)

// WithTimeout возвращает unary-интерсептор, ограничивающий обработку вызова сверху.
//
// Правила:
//   - d <= 0: контекст не меняется;
//   - входящий дедлайн наступает раньше now+d: он сохраняется как есть;
//   - иначе (дедлайна нет или он дальше): обработчик получает дедлайн now+d.
//
// По истечении дедлайна обработчик обычно возвращает context.DeadlineExceeded,
// gRPC-рантайм отдаёт клиенту codes.DeadlineExceeded.
func WithTimeout(d time.Duration) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if d <= 0 {
			return handler(ctx, req)
		}

		if dl, ok := ctx.Deadline(); ok && time.Until(dl) <= d {
			return handler(ctx, req)
		}

		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		return handler(ctx, req)
	}
}
