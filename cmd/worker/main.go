package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/timeroster/push-relay/internal/config"
	"github.com/timeroster/push-relay/internal/gateway"
	"github.com/timeroster/push-relay/internal/infra/postgresql"
	"github.com/timeroster/push-relay/internal/infra/postgresql/migrations"
	infraredis "github.com/timeroster/push-relay/internal/infra/redis"
	"github.com/timeroster/push-relay/internal/observability"
	"github.com/timeroster/push-relay/internal/queue"
	"github.com/timeroster/push-relay/internal/registry"
	"github.com/timeroster/push-relay/internal/repository"
	"github.com/timeroster/push-relay/internal/service"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	rmq, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}
	consumer := queue.NewRabbitMQConsumer(rmq, cfg.WorkerConcurrency, logger)
	publisher := queue.NewRabbitMQPublisher(rmq)
	defer rmq.Close()

	rateLimiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.RateLimitPerSec)
	if err != nil {
		logger.Fatal("rate limiter initialization failed", zap.Error(err))
	}

	pushGateway, err := gateway.NewFCMGateway(cfg.FCMEndpoint, cfg.FCMServerKey)
	if err != nil {
		logger.Fatal("gateway initialization failed", zap.Error(err))
	}

	intentRepo := repository.NewGormIntentRepo(db)
	contactRepo := repository.NewGormContactRepo(db)
	endpointRegistry := registry.NewGormRegistry(db)
	metrics := observability.NewMetrics()

	dispatcher, err := service.NewDispatcher(
		intentRepo,
		endpointRegistry,
		pushGateway,
		consumer,
		rateLimiter,
		cfg.WorkerConcurrency,
		cfg.AppURL,
		logger,
	)
	if err != nil {
		logger.Fatal("dispatcher initialization failed", zap.Error(err))
	}
	dispatcher.SetMetrics(metrics)

	mirror, err := service.NewMirror(contactRepo, consumer, logger)
	if err != nil {
		logger.Fatal("mirror initialization failed", zap.Error(err))
	}
	mirror.SetMetrics(metrics)

	reconciler, err := service.NewReconciler(intentRepo, publisher, 0, 0, 0, logger)
	if err != nil {
		logger.Fatal("reconciler initialization failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("push-relay worker started",
		zap.Int("concurrency", cfg.WorkerConcurrency),
	)

	g, groupCtx := errgroup.WithContext(ctx)
	g.Go(func() error { return dispatcher.Start(groupCtx) })
	g.Go(func() error { return mirror.Start(groupCtx) })
	g.Go(func() error { return reconciler.Start(groupCtx) })

	if err := g.Wait(); err != nil {
		logger.Fatal("worker stopped with error", zap.Error(err))
	}

	logger.Info("push-relay worker stopped")
}
