package grpcapi

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/Leganyst/salon-booking/internal/service"
)

// NewServer поднимает gRPC-сервер: CalendarService, health и reflection.
// interceptors выполняются после логирования (например, auth.UnaryInterceptor).
func NewServer(cal *service.Calendar, logger *zap.Logger, interceptors ...grpc.UnaryServerInterceptor) (*grpc.Server, *health.Server) {
	chain := append([]grpc.UnaryServerInterceptor{loggingInterceptor(logger)}, interceptors...)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(chain...))

	RegisterCalendarServer(srv, NewCalendarService(cal, logger))

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	reflection.Register(srv)
	return srv, hs
}

func loggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		logger.Info("grpc request",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("latency", time.Since(start)),
		)
		return resp, err
	}
}
