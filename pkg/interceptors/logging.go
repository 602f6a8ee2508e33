package interceptors

import (
	"context"
	"log/slog"
	"time"

	"github.com/pribylovaa/go-users-directory/pkg/log"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// requestIDKey — ключ metadata с идентификатором запроса.
const requestIDKey = "x-request-id"

// UnaryLoggingInterceptor пишет одну строку "grpc" на каждый unary-вызов.
//
// Формат:
//   - request_id из metadata x-request-id, иначе новый UUID;
//   - method, peer (IP:port или "-"), code, dur;
//   - уровень Info для codes.OK, Warn для остальных кодов.
//
// Обогащённый логгер кладётся в контекст (pkg/log) и доступен обработчику.
func UnaryLoggingInterceptor(base *slog.Logger) grpc.UnaryServerInterceptor {
	if base == nil {
		base = slog.Default()
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()

		l := base.With(
			slog.String("request_id", requestID(ctx)),
			slog.String("method", info.FullMethod),
			slog.String("peer", peerAddr(ctx)),
		)
		ctx = log.Into(ctx, l)

		resp, err := handler(ctx, req)

		code := status.Code(err)
		lvl := slog.LevelInfo
		if code != codes.OK {
			lvl = slog.LevelWarn
		}

		l.LogAttrs(ctx, lvl, "grpc",
			slog.String("code", code.String()),
			slog.Duration("dur", time.Since(start)),
		)

		return resp, err
	}
}

func requestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(requestIDKey); len(v) > 0 && v[0] != "" {
			return v[0]
		}
	}

	return uuid.NewString()
}

func peerAddr(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p != nil && p.Addr != nil {
		return p.Addr.String()
	}

	return "-"
}
