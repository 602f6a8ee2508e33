// grpc поднимает служебный gRPC-сервер directory-сервиса: grpc.health.v1
// (и reflection в local/dev) с общими интерсепторами и метриками go-grpc-prometheus.
package grpc

import (
	"log/slog"
	"time"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/pribylovaa/go-users-directory/pkg/interceptors"
)

// ServiceName — имя сервиса в grpc.health.v1 (наряду с пустым именем "весь сервер").
const ServiceName = "users.directory"

// ServerOptions — параметры сборки gRPC-сервера.
type ServerOptions struct {
	Logger  *slog.Logger
	Timeout time.Duration
	// Reflection включает grpc reflection (local/dev).
	Reflection bool
}

// NewServer собирает gRPC-сервер с health-сервисом.
// Оба имени сервиса стартуют в NOT_SERVING; статус переключает Probe.
func NewServer(opts ServerOptions) (*grpc.Server, *health.Server) {
	grpc_prometheus.EnableHandlingTimeHistogram()

	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			interceptors.Recover(opts.Logger),
			interceptors.UnaryLoggingInterceptor(opts.Logger),
			interceptors.WithTimeout(opts.Timeout),
			grpc_prometheus.UnaryServerInterceptor,
		),
		grpc.ChainStreamInterceptor(
			grpc_prometheus.StreamServerInterceptor,
		),
	)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	if opts.Reflection {
		reflection.Register(srv)
	}

	grpc_prometheus.Register(srv)

	return srv, hs
}
