// Package grpcclient gRPC 客户端工厂：keepalive、超时、重试，并把请求 ID 与 trace 透传给服务端
package grpcclient

import (
	"context"
	"time"

	"github.com/wyfcoding/webshop/pkg/contextx"
	"github.com/wyfcoding/webshop/pkg/logger"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// ClientConfig gRPC 客户端配置
type ClientConfig struct {
	Target string
	// 单次调用超时，0 表示不限制
	RequestTimeout time.Duration
	// 失败后的最大重试次数
	MaxRetries int
	RetryDelay time.Duration
	// 0 表示不启用 keepalive
	KeepaliveInterval time.Duration
}

// NewClient 创建客户端连接。连接是惰性建立的，首次调用时才会拨号
func NewClient(cfg ClientConfig, extra ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		grpc.WithChainUnaryInterceptor(
			requestIDInterceptor(),
			retryInterceptor(cfg),
		),
	}
	if cfg.KeepaliveInterval > 0 {
		opts = append(opts, grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                cfg.KeepaliveInterval,
			Timeout:             10 * time.Second,
			PermitWithoutStream: true,
		}))
	}
	opts = append(opts, extra...)

	conn, err := grpc.NewClient(cfg.Target, opts...)
	if err != nil {
		return nil, err
	}
	logger.Debug(context.Background(), "grpc client created", "target", cfg.Target)
	return conn, nil
}

// requestIDInterceptor 把 ctx 中的请求 ID 写入 x-request-id 元数据
func requestIDInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		if id := contextx.RequestID(ctx); id != "" {
			ctx = metadata.AppendToOutgoingContext(ctx, "x-request-id", id)
		}
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// retryInterceptor 对可重试的状态码按固定间隔重试
func retryInterceptor(cfg ClientConfig) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		start := time.Now()

		var lastErr error
		for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
			err := invokeOnce(ctx, cfg.RequestTimeout, method, req, reply, cc, invoker, opts...)
			if err == nil {
				logger.Debug(ctx, "grpc call succeeded", "method", method, "attempts", attempt+1, "duration", time.Since(start))
				return nil
			}
			lastErr = err
			if !shouldRetry(status.Code(err)) || attempt == cfg.MaxRetries {
				break
			}

			select {
			case <-time.After(cfg.RetryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		logger.Warn(ctx, "grpc call failed", "method", method, "duration", time.Since(start), "error", lastErr)
		return lastErr
	}
}

func invokeOnce(ctx context.Context, timeout time.Duration, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

func shouldRetry(code codes.Code) bool {
	switch code {
	case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded:
		return true
	default:
		return false
	}
}
