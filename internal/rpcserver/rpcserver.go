// Package rpcserver builds the gRPC server shared by the Control Plane and
// every Process: a worker-pool-bounded unary interceptor chain with
// recovery, correlation-ID, and logging middleware layered on top.
package rpcserver

import (
	"context"
	"time"

	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/recovery"
	"github.com/JekaMas/workerpool"
	"github.com/google/uuid"
	"google.golang.org/grpc"

	"chainkv/internal/logutil"
)

// New builds a *grpc.Server whose unary calls run through a bounded pool of
// workers workers, wrapped in panic recovery, a correlation ID, and a log
// line per call. workers is typically 10 for the Control Plane and 2 per
// Process.
func New(workers int, logger *logutil.Logger) *grpc.Server {
	wp := workerpool.New(workers)
	chain := grpc_middleware.ChainUnaryServer(
		grpc_recovery.UnaryServerInterceptor(),
		correlationInterceptor(),
		loggingInterceptor(logger),
		poolInterceptor(wp),
	)
	return grpc.NewServer(grpc.UnaryInterceptor(chain))
}

func correlationInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		return handler(context.WithValue(ctx, correlationIDKey{}, uuid.NewString()), req)
	}
}

type correlationIDKey struct{}

// CorrelationID extracts the per-call ID attached by correlationInterceptor,
// or "" if none is present (e.g. in unit tests that call handlers directly).
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}

func loggingInterceptor(logger *logutil.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		fields := []any{"method", info.FullMethod, "elapsed", time.Since(start), "correlationId", CorrelationID(ctx)}
		if err != nil {
			logger.Warn("rpc failed", append(fields, "err", err)...)
		} else {
			logger.Debug("rpc handled", fields...)
		}
		return resp, err
	}
}

func poolInterceptor(wp *workerpool.WorkerPool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		var resp interface{}
		var err error
		wp.SubmitWait(func() {
			resp, err = handler(ctx, req)
		})
		return resp, err
	}
}
