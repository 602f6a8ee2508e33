package grpc

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Pinger — проверка доступности хранилища сессий (реализует storage.Sessions).
type Pinger interface {
	Ping(ctx context.Context) error
}

// Probe периодически пингует хранилище сессий и переключает
// health-статус между SERVING и NOT_SERVING.
type Probe struct {
	hs       *health.Server
	pinger   Pinger
	interval time.Duration
	timeout  time.Duration
	log      *slog.Logger
	ready    atomic.Bool
	checked  atomic.Bool
}

// NewProbe создаёт Probe. timeout одного пинга — половина interval.
func NewProbe(hs *health.Server, p Pinger, interval time.Duration, log *slog.Logger) *Probe {
	if log == nil {
		log = slog.Default()
	}

	return &Probe{
		hs:       hs,
		pinger:   p,
		interval: interval,
		timeout:  interval / 2,
		log:      log,
	}
}

// Ready — результат последней проверки.
func (p *Probe) Ready() bool {
	return p.ready.Load()
}

// Check выполняет одну проверку и выставляет статус. Возвращает готовность.
// Логируются только смены состояния и первая неудачная проверка.
func (p *Probe) Check(ctx context.Context) bool {
	const op = "transport.grpc.Probe.Check"

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	err := p.pinger.Ping(ctx)
	ok := err == nil

	first := !p.checked.Swap(true)
	was := p.ready.Swap(ok)

	switch {
	case ok && !was:
		p.log.Info("session_storage_ready", slog.String("op", op))
	case !ok && (was || first):
		p.log.Warn("session_storage_unavailable",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
	}

	p.set(ok)
	return ok
}

// Run проверяет хранилище сразу и затем каждые interval, пока ctx не отменён.
// При выходе выставляет NOT_SERVING.
func (p *Probe) Run(ctx context.Context) {
	p.Check(ctx)

	t := time.NewTicker(p.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			p.Shutdown()
			return
		case <-t.C:
			p.Check(ctx)
		}
	}
}

// Shutdown переводит сервис в NOT_SERVING (graceful stop).
func (p *Probe) Shutdown() {
	p.ready.Store(false)
	p.set(false)
}

func (p *Probe) set(ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}

	p.hs.SetServingStatus("", st)
	p.hs.SetServingStatus(ServiceName, st)
}
