package grpc

import (
	"context"
	"fmt"
	"sync"

	"github.com/getsentry/sentry-go"
	grpcprom "github.com/grpc-ecosystem/go-grpc-middleware/providers/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/Belphemur/MediaFetch/internal/config"
	"github.com/Belphemur/MediaFetch/internal/services"
)

var (
	metricsOnce   sync.Once
	sharedMetrics *grpcprom.ServerMetrics
)

// serverMetrics registers the gRPC collectors once per process.
func serverMetrics() *grpcprom.ServerMetrics {
	metricsOnce.Do(func() {
		sharedMetrics = grpcprom.NewServerMetrics(grpcprom.WithServerHandlingTimeHistogram())
		prometheus.MustRegister(sharedMetrics)
	})
	return sharedMetrics
}

// NewGRPCServer builds a server exposing MediaFetchService with health,
// reflection and Prometheus metrics. extra is appended to the server options,
// e.g. grpc.MaxSendMsgSize for results that carry an archive.
func NewGRPCServer(previewer services.Previewer, orchestrator services.Orchestrator, extra ...grpc.ServerOption) *grpc.Server {
	m := serverMetrics()

	opts := append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(recoverUnary, m.UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(recoverStream, m.StreamServerInterceptor()),
	}, extra...)
	srv := grpc.NewServer(opts...)

	RegisterMediaFetchServer(srv, NewServer(previewer, orchestrator))

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, healthServer)
	for _, name := range []string{ServiceName, ""} {
		healthServer.SetServingStatus(name, grpc_health_v1.HealthCheckResponse_SERVING)
	}

	// for grpcurl
	reflection.Register(srv)
	m.InitializeMetrics(srv)
	return srv
}

// recovered turns a handler panic into an Internal status and reports it.
func recovered(method string, p any) error {
	err := fmt.Errorf("panic in %s: %v", method, p)
	logger := config.GetLogger()
	logger.Error().Err(err).Str("method", method).Msg("Recovered from handler panic")
	sentry.CaptureException(err)
	return status.Error(codes.Internal, "internal error")
}

func recoverUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = recovered(info.FullMethod, p)
		}
	}()
	return handler(ctx, req)
}

func recoverStream(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = recovered(info.FullMethod, p)
		}
	}()
	return handler(srv, ss)
}
