package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/drxagencia/dashboards/internal/config"
	"github.com/drxagencia/dashboards/internal/store"
)

// StoreService is the health service name that tracks store reachability.
const StoreService = "painel.store"

const probeInterval = 15 * time.Second

// Module exposes the gRPC server and lifecycle hooks to Fx.
var Module = fx.Module("grpc_server",
	fx.Provide(NewServer),
	fx.Invoke(Run),
)

// NewServer builds a gRPC server with logging interceptors and the
// standard health service registered.
func NewServer(logger *zap.Logger) (*grpc.Server, *health.Server) {
	unary := func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		duration := time.Since(start)
		if err != nil {
			logger.Warn("grpc unary call finished", zap.String("method", info.FullMethod), zap.Duration("duration", duration), zap.Error(err))
		} else {
			logger.Debug("grpc unary call finished", zap.String("method", info.FullMethod), zap.Duration("duration", duration))
		}
		return resp, err
	}

	stream := func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		duration := time.Since(start)
		if err != nil {
			logger.Warn("grpc stream call finished", zap.String("method", info.FullMethod), zap.Duration("duration", duration), zap.Error(err))
		} else {
			logger.Debug("grpc stream call finished", zap.String("method", info.FullMethod), zap.Duration("duration", duration))
		}
		return err
	}

	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(unary),
		grpc.ChainStreamInterceptor(stream),
	)
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus(StoreService, healthpb.HealthCheckResponse_NOT_SERVING)
	return server, healthServer
}

// Probe reads a sentinel path and reports the store's serving status. A
// permission error still proves the store answered.
func Probe(ctx context.Context, s store.Store, timeout time.Duration) healthpb.HealthCheckResponse_ServingStatus {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	_, err := s.Read(ctx, store.Join("painel", "health"))
	if err == nil || errors.Is(err, store.ErrPermissionDenied) {
		return healthpb.HealthCheckResponse_SERVING
	}
	return healthpb.HealthCheckResponse_NOT_SERVING
}

// Run binds the gRPC server to the configured host/port, keeps the store
// health status current and manages lifecycle.
func Run(lc fx.Lifecycle, cfg config.Config, server *grpc.Server, healthServer *health.Server, st store.Store, logger *zap.Logger) {
	addr := fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port)
	var listener net.Listener
	probeCtx, stopProbe := context.WithCancel(context.Background())

	probe := func() {
		status := Probe(probeCtx, st, cfg.Store.RequestTimeout)
		healthServer.SetServingStatus(StoreService, status)
		if status != healthpb.HealthCheckResponse_SERVING {
			logger.Warn("store probe failed")
		}
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen grpc: %w", err)
			}
			listener = ln
			logger.Info("starting gRPC server", zap.String("addr", addr))
			go func() {
				if err := server.Serve(listener); err != nil {
					logger.Fatal("grpc server failed", zap.Error(err))
				}
			}()
			go func() {
				ticker := time.NewTicker(probeInterval)
				defer ticker.Stop()
				probe()
				for {
					select {
					case <-probeCtx.Done():
						return
					case <-ticker.C:
						probe()
					}
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping gRPC server")
			stopProbe()
			healthServer.Shutdown()
			stopped := make(chan struct{})
			go func() {
				server.GracefulStop()
				close(stopped)
			}()

			select {
			case <-ctx.Done():
				server.Stop()
				return ctx.Err()
			case <-stopped:
				if listener != nil {
					_ = listener.Close()
				}
				return nil
			}
		},
	})
}
