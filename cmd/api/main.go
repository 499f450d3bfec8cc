package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/timeroster/push-relay/internal/config"
	"github.com/timeroster/push-relay/internal/handler"
	"github.com/timeroster/push-relay/internal/infra/postgresql"
	"github.com/timeroster/push-relay/internal/infra/postgresql/migrations"
	infraredis "github.com/timeroster/push-relay/internal/infra/redis"
	"github.com/timeroster/push-relay/internal/observability"
	"github.com/timeroster/push-relay/internal/queue"
	"github.com/timeroster/push-relay/internal/registry"
	"github.com/timeroster/push-relay/internal/repository"
	"github.com/timeroster/push-relay/internal/service"
	"github.com/timeroster/push-relay/internal/transport"
	"go.uber.org/zap"
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
	publisher := queue.NewRabbitMQPublisher(rmq)
	defer publisher.Close()

	intentRepo := repository.NewGormIntentRepo(db)
	contactRepo := repository.NewGormContactRepo(db)
	endpointRegistry := registry.NewGormRegistry(db)

	intentService, err := service.NewIntentService(intentRepo, publisher, logger)
	if err != nil {
		logger.Fatal("intent service initialization failed", zap.Error(err))
	}
	contactService, err := service.NewContactService(contactRepo, publisher, logger)
	if err != nil {
		logger.Fatal("contact service initialization failed", zap.Error(err))
	}

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(recover.New())
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, sqlDB, rdb, rmq)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	if err := handler.RegisterIntentRoutes(app, intentService); err != nil {
		logger.Fatal("intent routes registration failed", zap.Error(err))
	}
	if err := handler.RegisterEndpointRoutes(app, endpointRegistry); err != nil {
		logger.Fatal("endpoint routes registration failed", zap.Error(err))
	}
	if err := handler.RegisterContactRoutes(app, contactService); err != nil {
		logger.Fatal("contact routes registration failed", zap.Error(err))
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down api")
		_ = app.Shutdown()
	}()

	logger.Info("push-relay api started", zap.Int("port", cfg.APIPort))
	if err := app.Listen(fmt.Sprintf(":%d", cfg.APIPort)); err != nil {
		logger.Fatal("api server stopped with error", zap.Error(err))
	}
}
