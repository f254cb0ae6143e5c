package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/yashrajoria/capture-backend/api-gateway/routes"
	"github.com/yashrajoria/capture-backend/api-gateway/utils"
	"github.com/yashrajoria/capture-backend/services/common/logger"
	"github.com/yashrajoria/capture-backend/services/common/middleware"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	log := logger.Initialize(os.Getenv("APP_ENV"))
	defer log.Sync()

	log.Info("Starting API Gateway...")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if os.Getenv("APP_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	authLimiter := middleware.NewRateLimiter(middleware.PerMinute(getInt("AUTH_RATE_PER_MINUTE", 20)), 5, 10*time.Minute)
	go authLimiter.Janitor(ctx)

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(log),
		middleware.SecurityHeaders(),
		middleware.CORS(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
	)

	routes.RegisterAllRoutes(r, routes.Upstreams{
		Shop:          utils.NewForwarder(getEnv("SHOP_SERVICE_URL", "http://shop-service:8080"), log),
		Notifications: utils.NewForwarder(getEnv("NOTIFICATION_SERVICE_URL", "http://notification-service:8089"), log),
	}, authLimiter.Middleware())

	port := getEnv("PORT", "8000")
	srv := &http.Server{Addr: ":" + port, Handler: r}
	go func() {
		log.Info("API Gateway listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}
	log.Info("API Gateway stopped")
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return fallback
}
