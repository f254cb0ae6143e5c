package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	awspkg "github.com/yashrajoria/capture-backend/pkg/aws"
	"github.com/yashrajoria/capture-backend/services/common/auth"
	apperrors "github.com/yashrajoria/capture-backend/services/common/errors"
	"github.com/yashrajoria/capture-backend/services/common/logger"
	"github.com/yashrajoria/capture-backend/services/common/middleware"
	"github.com/yashrajoria/capture-backend/services/common/storage"
	"github.com/yashrajoria/capture-backend/services/notification-service/consumer"
	"github.com/yashrajoria/capture-backend/services/notification-service/controllers"
	"github.com/yashrajoria/capture-backend/services/notification-service/database"
	"github.com/yashrajoria/capture-backend/services/notification-service/models"
	"github.com/yashrajoria/capture-backend/services/notification-service/repository"
	"github.com/yashrajoria/capture-backend/services/notification-service/routes"
	"github.com/yashrajoria/capture-backend/services/notification-service/services"
	"go.uber.org/zap"
)

const serviceName = "notification-service"

func main() {
	ctx := context.Background()
	log := logger.Initialize(os.Getenv("APP_ENV"))
	defer log.Sync()

	awsSettings := awspkg.SettingsFromEnv()
	awsCfg, err := awspkg.LoadAWSConfig(ctx, awsSettings, log)
	if err != nil {
		log.Fatal("Failed to load AWS config", zap.Error(err))
	}

	if os.Getenv("CLOUDWATCH_ENABLED") == "true" {
		if cw, err := awspkg.NewCloudWatchLogsClient(ctx, awsCfg, serviceName); err != nil {
			log.Warn("CloudWatch Logs disabled", zap.Error(err))
		} else {
			log = logger.InitializeWithWriter(os.Getenv("APP_ENV"), cw)
		}
	}

	cfg, err := LoadConfig(ctx, awspkg.NewSecretsClient(awsCfg), log)
	if err != nil {
		log.Fatal("Config load failed", zap.Error(err))
	}

	db, err := database.ConnectPostgres(cfg.Postgres, log, &models.NotificationLog{})
	if err != nil {
		log.Fatal("DB connection failed", zap.Error(err))
	}

	gateway, closeGateway, err := storage.OpenGateway(ctx, storage.GatewayConfigFromEnv(), awsCfg, log)
	if err != nil {
		log.Fatal("Failed to open document store", zap.Error(err))
	}
	defer closeGateway()

	confirmations, err := cfg.ConfirmationSender()
	if err != nil {
		log.Fatal("Failed to init email sender", zap.Error(err))
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, time.Hour)
	if err != nil {
		log.Fatal("Failed to init token service", zap.Error(err))
	}

	metricsClient := awspkg.NewMetricsClient(awsCfg)
	notificationRepo := repository.NewNotificationRepository(db)
	notificationService := services.NewNotificationService(notificationRepo, confirmations, gateway, metricsClient, log)
	notificationController := controllers.NewNotificationController(notificationService, log)

	sqsClient := awspkg.NewSQSClient(awsCfg, awsSettings.Endpoint)
	queueURL := cfg.OutboxQueueURL
	if queueURL == "" {
		if queueURL, err = awspkg.GetQueueURL(ctx, sqsClient, cfg.OutboxQueue); err != nil {
			log.Fatal("Failed to resolve outbox queue", zap.Error(err))
		}
	}
	outbox := consumer.NewOutboxConsumer(awspkg.NewQueue(sqsClient, queueURL, log), notificationService, log)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(log),
		middleware.MetricsMiddleware(metricsClient, serviceName),
		middleware.Timeout(30*time.Second),
		apperrors.ErrorMiddleware(log),
	)
	routes.RegisterRoutes(r, notificationController, tokens)

	consumerCtx, consumerCancel := context.WithCancel(ctx)
	defer consumerCancel()
	go outbox.Start(consumerCtx)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Info("Notification service started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Initiating graceful shutdown...")
	consumerCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}
	if err := database.Close(db); err != nil {
		log.Error("Database close error", zap.Error(err))
	}

	log.Info("Notification service stopped gracefully")
}
