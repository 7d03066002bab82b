package server

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// HealthServiceName is the service name reported next to the overall "" entry.
const HealthServiceName = "licita-control"

// Pinger checks store reachability; *repository.DB satisfies it.
type Pinger interface {
	HealthCheck(ctx context.Context, timeout time.Duration, logger *slog.Logger) error
}

// GRPCServer exposes grpc.health.v1 reflecting database reachability,
// plus server reflection for grpcurl.
type GRPCServer struct {
	srv     *grpc.Server
	health  *health.Server
	db      Pinger
	timeout time.Duration
	logger  *slog.Logger
}

func NewGRPCServer(db Pinger, pingTimeout time.Duration, logger *slog.Logger) *GRPCServer {
	if logger == nil {
		logger = slog.Default()
	}
	if pingTimeout <= 0 {
		pingTimeout = 3 * time.Second
	}
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	return &GRPCServer{
		srv:     srv,
		health:  hs,
		db:      db,
		timeout: pingTimeout,
		logger:  logger,
	}
}

// Refresh pings the database once and publishes the resulting status.
func (g *GRPCServer) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	st := healthpb.HealthCheckResponse_SERVING
	if g.db == nil {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	} else if err := g.db.HealthCheck(ctx, g.timeout, g.logger); err != nil {
		g.logger.Warn("grpc.health.db_unreachable", "error", err)
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	g.health.SetServingStatus("", st)
	g.health.SetServingStatus(HealthServiceName, st)
	return st
}

// Watch refreshes the health status every interval until ctx is done.
func (g *GRPCServer) Watch(ctx context.Context, interval time.Duration) {
	g.Refresh(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.Refresh(ctx)
		}
	}
}

func (g *GRPCServer) Serve(lis net.Listener) error {
	g.logger.Info("grpc.serving", "addr", lis.Addr().String())
	return g.srv.Serve(lis)
}

// GracefulStop marks every service NOT_SERVING and drains connections.
func (g *GRPCServer) GracefulStop() {
	g.health.Shutdown()
	g.srv.GracefulStop()
}
