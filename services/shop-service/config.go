package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	awspkg "github.com/yashrajoria/capture-backend/pkg/aws"
	"github.com/yashrajoria/capture-backend/services/notification-service/sender"
	"github.com/yashrajoria/capture-backend/services/shop-service/services"
	"go.uber.org/zap"
)

type Config struct {
	Env            string
	Port           string
	AllowedOrigins string
	JWTSecret      string
	TokenTTL       time.Duration
	AdminEmails    []string

	RedisURL string
	CartTTL  time.Duration

	S3Bucket    string
	S3CDNDomain string

	OutboxQueueURL string
	OutboxQueue    string

	EventBackend string // sns | kafka | none
	SNSTopicArn  string
	KafkaBrokers []string
	KafkaTopic   string

	AuthRatePerMinute int

	Checkout      services.CheckoutConfig
	EmailProvider string // emailjs | smtp
	EmailJS       sender.EmailJSConfig
	SMTP          sender.SMTPConfig
}

// LoadConfig reads the environment (after .env), then lets Secrets Manager
// override credentials when AWS_USE_SECRETS=true.
func LoadConfig(ctx context.Context, secrets *awspkg.SecretsClient, logger *zap.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using system environment variables")
	}

	checkout := services.DefaultCheckoutConfig()
	checkout.ShopEmail = getEnv("SHOP_EMAIL", checkout.ShopEmail)
	checkout.FromName = getEnv("SHOP_FROM_NAME", checkout.FromName)

	cfg := &Config{
		Env:               getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		AllowedOrigins:    os.Getenv("ALLOWED_ORIGINS"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		TokenTTL:          getDuration("TOKEN_TTL", 24*time.Hour),
		AdminEmails:       splitList(os.Getenv("ADMIN_EMAILS")),
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
		CartTTL:           getDuration("CART_TTL", 7*24*time.Hour),
		S3Bucket:          getEnv("S3_BUCKET", "capture-media"),
		S3CDNDomain:       os.Getenv("S3_CDN_DOMAIN"),
		OutboxQueueURL:    os.Getenv("OUTBOX_SQS_QUEUE_URL"),
		OutboxQueue:       getEnv("OUTBOX_SQS_QUEUE_NAME", "capture-notification-outbox"),
		EventBackend:      getEnv("EVENT_BACKEND", "sns"),
		SNSTopicArn:       os.Getenv("ORDER_EVENTS_TOPIC_ARN"),
		KafkaBrokers:      splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:        getEnv("KAFKA_ORDER_TOPIC", "order-events"),
		AuthRatePerMinute: getInt("AUTH_RATE_PER_MINUTE", 10),
		Checkout:          checkout,
		EmailProvider:     getEnv("EMAIL_PROVIDER", "emailjs"),
		EmailJS: sender.EmailJSConfig{
			Endpoint:   getEnv("EMAILJS_ENDPOINT", sender.DefaultEmailJSEndpoint),
			ServiceID:  os.Getenv("EMAILJS_SERVICE_ID"),
			TemplateID: os.Getenv("EMAILJS_TEMPLATE_ID"),
			UserID:     os.Getenv("EMAILJS_USER_ID"),
			AccessKey:  os.Getenv("EMAILJS_ACCESS_KEY"),
		},
		SMTP: sender.SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
			From:     os.Getenv("SMTP_FROM"),
		},
	}

	if os.Getenv("AWS_USE_SECRETS") == "true" && secrets != nil {
		name := getEnv("SHOP_SECRET_NAME", "capture/shop")
		values, err := secrets.GetSecretMap(ctx, name)
		if err != nil {
			logger.Warn("Secrets Manager override skipped", zap.String("secret", name), zap.Error(err))
		} else {
			override(&cfg.JWTSecret, values["JWT_SECRET"])
			override(&cfg.EmailJS.ServiceID, values["EMAILJS_SERVICE_ID"])
			override(&cfg.EmailJS.TemplateID, values["EMAILJS_TEMPLATE_ID"])
			override(&cfg.EmailJS.UserID, values["EMAILJS_USER_ID"])
			override(&cfg.EmailJS.AccessKey, values["EMAILJS_ACCESS_KEY"])
			override(&cfg.SMTP.Password, values["SMTP_PASS"])
			override(&cfg.RedisURL, values["REDIS_URL"])
		}
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET not set")
	}
	return cfg, nil
}

// ConfirmationSender builds the configured delivery channel.
func (c *Config) ConfirmationSender() (sender.ConfirmationSender, error) {
	switch c.EmailProvider {
	case "emailjs":
		return sender.NewEmailJSSender(c.EmailJS)
	case "smtp":
		smtpSender, err := sender.NewSMTPSender(c.SMTP)
		if err != nil {
			return nil, err
		}
		return sender.NewTemplateConfirmationSender(smtpSender), nil
	default:
		return nil, fmt.Errorf("unknown EMAIL_PROVIDER %q", c.EmailProvider)
	}
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
