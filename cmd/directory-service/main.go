package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pribylovaa/go-users-directory/internal/config"
	httpapi "github.com/pribylovaa/go-users-directory/internal/http"
	"github.com/pribylovaa/go-users-directory/internal/http/middleware"
	"github.com/pribylovaa/go-users-directory/internal/metrics"
	"github.com/pribylovaa/go-users-directory/internal/randomuser"
	"github.com/pribylovaa/go-users-directory/internal/service"
	"github.com/pribylovaa/go-users-directory/internal/session"
	"github.com/pribylovaa/go-users-directory/internal/storage"
	"github.com/pribylovaa/go-users-directory/internal/storage/memory"
	"github.com/pribylovaa/go-users-directory/internal/storage/mongo"
	"github.com/pribylovaa/go-users-directory/internal/storage/postgres"
	"github.com/pribylovaa/go-users-directory/internal/storage/redis"
	grpctransport "github.com/pribylovaa/go-users-directory/internal/transport/grpc"
	logctx "github.com/pribylovaa/go-users-directory/pkg/log"

	"google.golang.org/grpc"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file (overrides CONFIG_PATH env)")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting directory-service",
		slog.String("env", cfg.Env),
		slog.String("backend", cfg.Session.Backend),
	)

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()
	rootCtx = logctx.Into(rootCtx, log)

	dbCtx, dbCancel := context.WithTimeout(rootCtx, 10*time.Second)
	kv, err := openStorage(dbCtx, cfg)
	dbCancel()
	if err != nil {
		log.Error("session_storage_connect_failed", slog.String("err", err.Error()))
		rootCancel()
		os.Exit(1)
	}
	log.Info("session_storage_connected", slog.String("backend", cfg.Session.Backend))

	m := metrics.New(prometheus.DefaultRegisterer)

	fetcher := randomuser.New(&http.Client{Timeout: cfg.Fetcher.Timeout}, cfg.Fetcher.URL)
	svc := service.New(fetcher, session.NewStore(kv), *cfg, m)
	log.Info("service_initialized")

	if sw, ok := kv.(storage.Sweeper); ok {
		go func() {
			if err := svc.StartSweeper(rootCtx, sw, cfg.Session.SweepInterval); err != nil {
				log.Error("sweeper_failed", slog.String("err", err.Error()))
			}
		}()
	}

	// gRPC health + проба хранилища.
	grpcServer, hs := grpctransport.NewServer(grpctransport.ServerOptions{
		Logger:     log,
		Timeout:    cfg.Timeouts.Service,
		Reflection: cfg.Env == envLocal || cfg.Env == envDev,
	})
	probe := grpctransport.NewProbe(hs, kv, cfg.GRPC.ProbeInterval, log)

	probeCtx, probeCancel := context.WithCancel(rootCtx)
	probeDone := make(chan struct{})
	go func() {
		probe.Run(probeCtx)
		close(probeDone)
	}()

	tokens := session.NewTokens(session.TokenConfig{
		Secret: cfg.Session.Secret,
		Issuer: cfg.Session.Issuer,
		TTL:    cfg.Session.TTL,
	})

	router := httpapi.NewRouter(svc, httpapi.Options{
		Logger:  log,
		Timeout: cfg.Timeouts.Service,
		Tokens:  tokens,
		Session: middleware.SessionOptions{
			Cookie: cfg.Session.Cookie,
			Secure: cfg.Session.CookieSecure,
		},
		Metrics:  m,
		Gatherer: prometheus.DefaultGatherer,
		Ready:    probe.Ready,
	})

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErrCh := make(chan error, 2)

	go func() {
		log.Info("http_listen_start", slog.String("addr", httpAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- fmt.Errorf("http: %w", err)
		}
	}()

	grpcAddr := cfg.GRPC.Addr()
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		log.Error("grpc_listen_failed",
			slog.String("addr", grpcAddr),
			slog.String("err", err.Error()),
		)
		probeCancel()
		_ = httpSrv.Shutdown(context.Background())
		_ = kv.Close()
		rootCancel()
		os.Exit(1)
	}
	log.Info("grpc_listen_start", slog.String("addr", grpcAddr))

	go func() {
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			serveErrCh <- fmt.Errorf("grpc: %w", err)
		}
	}()

	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		log.Error("serve_failed", slog.String("err", err.Error()))
	}

	probeCancel()
	<-probeDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Timeouts.Shutdown)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_failed", slog.String("err", err.Error()))
	}

	done := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("grpc_stopped")
	case <-shutdownCtx.Done():
		log.Warn("grpc_force_stop")
		grpcServer.Stop()
	}

	rootCancel()
	if err := kv.Close(); err != nil {
		log.Warn("session_storage_close_failed", slog.String("err", err.Error()))
	}

	log.Info("service_stopped")
}

// openStorage подключает бэкенд хранилища сессий из конфига.
func openStorage(ctx context.Context, cfg *config.Config) (storage.Sessions, error) {
	ttl := cfg.Session.TTL

	switch cfg.Session.Backend {
	case config.BackendMemory:
		return memory.New(ttl), nil
	case config.BackendRedis:
		return redis.New(ctx, cfg.Redis.URL, cfg.Redis.Prefix, ttl)
	case config.BackendPostgres:
		return postgres.New(ctx, cfg.DB.URL, ttl)
	case config.BackendMongo:
		return mongo.New(ctx, cfg.Mongo.URL, ttl)
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
