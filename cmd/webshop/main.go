// Webshop 主程序
// 功能：商品目录、评价、下单与用户收货信息的 REST 接口，商品目录只读 gRPC 接口，
// 领域事件经发件箱投递到 Kafka
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/wyfcoding/webshop/internal/server"
	"github.com/wyfcoding/webshop/pkg/auth"
	"github.com/wyfcoding/webshop/pkg/cache"
	"github.com/wyfcoding/webshop/pkg/config"
	"github.com/wyfcoding/webshop/pkg/db"
	"github.com/wyfcoding/webshop/pkg/logger"
	"github.com/wyfcoding/webshop/pkg/metrics"
	"github.com/wyfcoding/webshop/pkg/mq"
	"github.com/wyfcoding/webshop/pkg/outbox"
	"github.com/wyfcoding/webshop/pkg/tracing"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "configs/webshop.toml", "配置文件路径")
	migrateOnly := flag.Bool("migrate", false, "执行数据库迁移后退出")
	issueToken := flag.Uint("issue-token", 0, "为指定用户签发访问令牌并退出（仅用于本地调试）")
	flag.Parse()

	if err := run(*configPath, *migrateOnly, *issueToken); err != nil {
		fmt.Fprintf(os.Stderr, "webshop: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, migrateOnly bool, issueToken uint) error {
	// 1. 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	tokens := auth.NewManager(cfg.Auth.SecretKey, cfg.Auth.AccessTokenLifetime)
	if issueToken > 0 {
		token, err := tokens.Issue(issueToken)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	}

	// 2. 初始化日志
	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "starting webshop",
		"service", cfg.ServiceName,
		"version", cfg.Version,
		"environment", cfg.Environment,
	)

	// 3. 初始化追踪
	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		ServiceName:  cfg.ServiceName,
		Version:      cfg.Version,
		Environment:  cfg.Environment,
		Endpoint:     cfg.Tracing.CollectorEndpoint,
		SamplingRate: cfg.Tracing.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error(ctx, "failed to shutdown tracer", "error", err)
		}
	}()

	// 4. 初始化数据库
	database, err := db.Open(ctx, db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: time.Duration(cfg.Database.SlowQueryThreshold) * time.Millisecond,
		Tracing:            cfg.Tracing.Enabled,
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	if migrateOnly || cfg.Database.AutoMigrate {
		if err := database.WithContext(ctx).AutoMigrate(server.Models()...); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info(ctx, "database migrated")
		if migrateOnly {
			return nil
		}
	}

	// 5. 初始化 Redis（可选）
	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		redisCache, err = cache.New(ctx, cache.Config{
			Addr:         cfg.Redis.Addr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.MaxPoolSize,
			DialTimeout:  time.Duration(cfg.Redis.ConnTimeout) * time.Second,
			ReadTimeout:  time.Duration(cfg.Redis.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.Redis.WriteTimeout) * time.Second,
		})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisCache.Close()
	}

	// 6. 初始化指标
	m := metrics.New()
	if err := m.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	// 7. 组装服务
	app := server.New(server.Deps{
		Config:  cfg,
		DB:      database,
		Cache:   redisCache,
		Metrics: m,
		Tokens:  tokens,
	})

	httpServer := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      app.Router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	var grpcListener net.Listener
	if cfg.GRPC.Enabled {
		if grpcListener, err = net.Listen("tcp", cfg.GRPC.Addr()); err != nil {
			return fmt.Errorf("listen grpc: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	// 8. 启动 HTTP 服务器
	g.Go(func() error {
		logger.Info(gctx, "http server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	// 9. 启动 gRPC 服务器
	if grpcListener != nil {
		g.Go(func() error {
			logger.Info(gctx, "grpc server listening", "addr", grpcListener.Addr().String())
			return app.GRPC.Serve(grpcListener)
		})
		g.Go(func() error {
			<-gctx.Done()
			app.Health.Shutdown()
			app.GRPC.GracefulStop()
			return nil
		})
	}

	// 10. 启动指标服务
	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(fmt.Sprintf(":%d", cfg.Metrics.Port), cfg.Metrics.Path, prometheus.DefaultGatherer)
		g.Go(metricsServer.Start)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return metricsServer.Shutdown(shutdownCtx)
		})
	}

	// 11. 启动发件箱中继
	if cfg.Kafka.Enabled {
		producer := mq.NewProducer(mq.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			MaxAttempts:  cfg.Kafka.MaxAttempts,
			WriteTimeout: cfg.Kafka.WriteTimeout,
		})
		defer producer.Close()

		relay := outbox.NewRelay(outbox.NewStore(database.DB), producer, m, outbox.RelayConfig{
			PollInterval: cfg.Outbox.PollInterval,
			BatchSize:    cfg.Outbox.BatchSize,
			MaxAttempts:  cfg.Outbox.MaxAttempts,
			Retention:    cfg.Outbox.Retention,
		})
		g.Go(func() error { return relay.Run(gctx) })
	} else {
		logger.Warn(ctx, "kafka disabled, domain events stay in the outbox table")
	}

	// 12. 等待退出信号
	err = g.Wait()
	logger.Info(context.Background(), "webshop stopped")
	return err
}
