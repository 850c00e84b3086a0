package middleware

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/webshop/pkg/contextx"
	"github.com/wyfcoding/webshop/pkg/logger"
	"github.com/wyfcoding/webshop/pkg/metrics"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// GRPCLoggingInterceptor 记录 gRPC 调用日志与指标
func GRPCLoggingInterceptor(m *metrics.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		requestID := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get("x-request-id"); len(v) > 0 {
				requestID = v[0]
			}
		}
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = contextx.WithRequestID(ctx, requestID)

		start := time.Now()
		resp, err := handler(ctx, req)
		elapsed := time.Since(start)

		code := status.Code(err)
		m.ObserveGRPC(info.FullMethod, code.String(), elapsed)
		if err != nil && code != codes.NotFound && code != codes.InvalidArgument {
			logger.Error(ctx, "grpc request failed", "method", info.FullMethod, "code", code.String(), "error", err, "duration", elapsed)
		} else {
			logger.Info(ctx, "grpc request", "method", info.FullMethod, "code", code.String(), "duration", elapsed)
		}
		return resp, err
	}
}

// GRPCRecoveryInterceptor 捕获 panic 并返回 Internal
func GRPCRecoveryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error(ctx, "grpc request panicked", "method", info.FullMethod, "panic", rec)
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}
