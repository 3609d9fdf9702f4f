// Package grpcserver — gRPC-часть сервиса: health-check и reflection.
package grpcserver

import (
	"context"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// ServiceName — имя, под которым публикуется статус ядра бронирований.
const ServiceName = "studio.booking.v1.Core"

type Server struct {
	grpc   *grpc.Server
	health *health.Server
	log    logrus.FieldLogger
}

func New(log logrus.FieldLogger) *Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		recoverUnary(log),
		logUnary(log),
	))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	s := &Server{grpc: srv, health: hs, log: log}
	s.SetServing(true)
	return s
}

func (s *Server) SetServing(ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// WatchDependency периодически вызывает ping и переключает статус health.
// Возвращается, когда ctx отменён.
func (s *Server) WatchDependency(ctx context.Context, interval time.Duration, ping func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	serving := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, interval)
			err := ping(pingCtx)
			cancel()
			if ok := err == nil; ok != serving {
				serving = ok
				s.SetServing(ok)
				if ok {
					s.log.Info("dependency recovered, health is SERVING")
				} else {
					s.log.WithError(err).Warn("dependency check failed, health is NOT_SERVING")
				}
			}
		}
	}
}

func (s *Server) Serve(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// GracefulStop переводит health в NOT_SERVING и дожидается активных вызовов.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

func logUnary(log logrus.FieldLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		entry := log.WithFields(logrus.Fields{
			"method":  info.FullMethod,
			"code":    status.Code(err).String(),
			"latency": time.Since(start).String(),
		})
		if err != nil {
			entry.WithError(err).Warn("grpc call")
		} else {
			entry.Debug("grpc call")
		}
		return resp, err
	}
}

func recoverUnary(log logrus.FieldLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.WithField("method", info.FullMethod).Errorf("grpc panic: %v", r)
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}
