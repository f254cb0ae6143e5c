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
	"github.com/yashrajoria/capture-backend/services/shop-service/controllers"
	"github.com/yashrajoria/capture-backend/services/shop-service/events"
	"github.com/yashrajoria/capture-backend/services/shop-service/repository"
	"github.com/yashrajoria/capture-backend/services/shop-service/routes"
	"github.com/yashrajoria/capture-backend/services/shop-service/services"
	"go.uber.org/zap"
)

const serviceName = "shop-service"

func main() {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

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

	gateway, closeGateway, err := storage.OpenGateway(ctx, storage.GatewayConfigFromEnv(), awsCfg, log)
	if err != nil {
		log.Fatal("Failed to open document store", zap.Error(err))
	}
	defer closeGateway()

	redisClient, err := repository.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	cartRepo := repository.NewCartRepository(redisClient, cfg.CartTTL)

	confirmations, err := cfg.ConfirmationSender()
	if err != nil {
		log.Fatal("Failed to init email sender", zap.Error(err))
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		log.Fatal("Failed to init token service", zap.Error(err))
	}

	metricsClient := awspkg.NewMetricsClient(awsCfg)

	objectStore := awspkg.NewS3Store(awspkg.NewS3Client(awsCfg, awsSettings.S3Endpoint), cfg.S3Bucket, awsSettings.S3Endpoint, cfg.S3CDNDomain)

	var outbox services.OutboxQueue
	sqsClient := awspkg.NewSQSClient(awsCfg, awsSettings.Endpoint)
	queueURL := cfg.OutboxQueueURL
	if queueURL == "" {
		queueURL, err = awspkg.GetQueueURL(ctx, sqsClient, cfg.OutboxQueue)
	}
	if err != nil {
		log.Warn("Outbox queue unavailable; failed confirmations will not be retried", zap.Error(err))
	} else {
		outbox = awspkg.NewQueue(sqsClient, queueURL, log)
	}

	var publisher services.OrderEventPublisher
	switch cfg.EventBackend {
	case "sns":
		if cfg.SNSTopicArn != "" {
			publisher = events.NewSNSPublisher(awspkg.NewSNSClient(awsCfg, awsSettings.Endpoint, log), cfg.SNSTopicArn)
		}
	case "kafka":
		kafkaPublisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}
	if publisher == nil {
		log.Info("Order events disabled", zap.String("backend", cfg.EventBackend))
	}

	validator := services.NewValidator()
	reconciler := services.NewReconciler(objectStore, log)

	provider := services.NewPasswordProvider(gateway, tokens, log).
		WithRevocationStore(repository.NewSessionRepository(redisClient))
	registry := services.NewSessionRegistry(ctx, provider, gateway, log)
	authService := services.NewAuthService(provider, registry, gateway, validator, cfg.AdminEmails, log)
	packageService := services.NewPackageService(gateway, reconciler, validator, metricsClient, log)
	productService := services.NewProductService(gateway, reconciler, validator, metricsClient, log)
	bookingService := services.NewBookingService(packageService, gateway, validator, metricsClient, log)
	cartService := services.NewCartService(cartRepo, gateway, log)
	checkoutService := services.NewCheckoutService(cfg.Checkout, cartRepo, gateway, confirmations, outbox,
		publisher, cartRepo, validator, metricsClient, log)

	go sweepSessions(ctx, provider, registry, log)

	authLimiter := middleware.NewRateLimiter(middleware.PerMinute(cfg.AuthRatePerMinute), cfg.AuthRatePerMinute, 10*time.Minute)
	go authLimiter.Janitor(ctx)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.MaxMultipartMemory = 32 << 20
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(log),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.AllowedOrigins),
		middleware.MetricsMiddleware(metricsClient, serviceName),
		middleware.Timeout(30*time.Second),
		apperrors.ErrorMiddleware(log),
	)
	routes.RegisterRoutes(r, routes.Controllers{
		Auth:     controllers.NewAuthController(authService, cfg.Env == "production", log),
		Catalog:  controllers.NewCatalogController(packageService, log),
		Products: controllers.NewProductController(productService, log),
		Bookings: controllers.NewBookingController(bookingService),
		Cart:     controllers.NewCartController(cartService),
		Checkout: controllers.NewCheckoutController(checkoutService),
	}, registry, authLimiter.Middleware())

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Info("Shop service started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Initiating graceful shutdown...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}
	stop()

	log.Info("Shop service stopped gracefully")
}

func sweepSessions(ctx context.Context, provider *services.PasswordProvider, registry *services.SessionRegistry, log *zap.Logger) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			closed := registry.Sweep(now)
			expired := provider.Sweep(now)
			if closed > 0 || expired > 0 {
				log.Debug("Swept expired sessions", zap.Int("holders", closed), zap.Int("sessions", expired))
			}
		}
	}
}
