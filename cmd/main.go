package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/shenikar/occurrence_tracking_system/internal/config"
	v1 "github.com/shenikar/occurrence_tracking_system/internal/handler/http/v1"
	"github.com/shenikar/occurrence_tracking_system/internal/repository"
	"github.com/shenikar/occurrence_tracking_system/internal/service"
	"github.com/shenikar/occurrence_tracking_system/internal/webhook"
	"github.com/shenikar/occurrence_tracking_system/pkg/logger"
	"github.com/shenikar/occurrence_tracking_system/pkg/postgres"
	"github.com/shenikar/occurrence_tracking_system/pkg/rabbitmq"
	redisclient "github.com/shenikar/occurrence_tracking_system/pkg/redis"
	"github.com/sirupsen/logrus"

	_ "github.com/shenikar/occurrence_tracking_system/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Occurrence Tracking System API
// @version 1.0
// @description Fire department occurrence tracking: lifecycle, history and reports.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func runMigrations(cfg *config.Config, log *logrus.Logger) error {
	log.Info("Running database migrations...")

	migrationURL := cfg.DatabaseURL
	if !strings.HasPrefix(migrationURL, "pgx5://") {
		migrationURL = strings.Replace(migrationURL, "postgres://", "pgx5://", 1)
	}

	m, err := migrate.New(
		"file://migrations",
		migrationURL,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database migrations applied successfully")
	return nil
}

// newPublisher выбирает канал уведомлений по NOTIFY_BACKEND.
// Возвращаемая функция освобождает ресурсы канала.
func newPublisher(ctx context.Context, cfg *config.Config, log *logrus.Logger) (webhook.Publisher, func(), error) {
	switch cfg.NotifyBackend {
	case config.NotifyRedis:
		redisClient, err := redisclient.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Successfully connected to Redis")

		// Воркер доставляет события из очереди на WEBHOOK_URL
		webhook.NewWorker(redisClient, log, cfg).Start(ctx)
		return webhook.NewRedisPublisher(redisClient), func() { _ = redisClient.Close() }, nil

	case config.NotifyAMQP:
		conn, err := rabbitmq.NewConnection(cfg.AMQPURL)
		if err != nil {
			return nil, nil, err
		}
		publisher, err := webhook.NewAMQPPublisher(conn.Channel, cfg.AMQPQueue)
		if err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
		log.Info("Successfully connected to RabbitMQ")
		return publisher, func() { _ = conn.Close() }, nil

	default:
		log.Info("Notifications are disabled")
		return webhook.NewNopPublisher(log), func() {}, nil
	}
}

func main() {
	// Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	log := logger.New(cfg.LogLevel)

	// Контекст для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Запуск миграций
	if err := runMigrations(cfg, log); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Подключение к PostgreSQL
	dbpool, err := postgres.NewPostgresDB(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer dbpool.Close()
	log.Info("Successfully connected to PostgreSQL")

	// Канал уведомлений
	publisher, closePublisher, err := newPublisher(ctx, cfg, log)
	if err != nil {
		log.Fatalf("Failed to initialize notification backend %q: %v", cfg.NotifyBackend, err)
	}
	defer closePublisher()

	// Инициализация репозиториев
	occurrenceRepo := repository.NewOccurrenceRepository(dbpool)
	reportRepo := repository.NewReportRepository(dbpool)
	userRepo := repository.NewUserRepository(dbpool)

	// Инициализация сервисов
	clock := service.SystemClock()
	occurrenceService := service.NewOccurrenceService(
		occurrenceRepo,
		userRepo,
		publisher,
		clock,
		service.Pagination{DefaultPageSize: cfg.DefaultPageSize, MaxPageSize: cfg.MaxPageSize},
		log,
	)
	reportService := service.NewReportService(reportRepo, clock, log)

	// Инициализация хэндлеров
	handler := v1.NewHandler(occurrenceService, reportService, userRepo, log, cfg)

	// Настройка Gin роутера
	router := gin.Default()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	// Добавление маршрута для Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Запуск HTTP-сервера
	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	// Запуск сервера в горутине
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Error starting HTTP server: %v", err)
		}
	}()
	log.Infof("HTTP server started on port %s", cfg.HTTPPort)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Received shutdown signal, shutting down server...")

	// Останавливаем воркер уведомлений вместе с сервером
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server gracefully stopped")
}
