package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	awspkg "github.com/yashrajoria/capture-backend/pkg/aws"
	"github.com/yashrajoria/capture-backend/services/notification-service/database"
	"github.com/yashrajoria/capture-backend/services/notification-service/sender"
	"go.uber.org/zap"
)

type Config struct {
	Env            string
	Port           string
	JWTSecret      string
	OutboxQueueURL string
	OutboxQueue    string
	Postgres       database.PostgresConfig
	EmailProvider  string // emailjs | smtp
	EmailJS        sender.EmailJSConfig
	SMTP           sender.SMTPConfig
}

// LoadConfig reads the environment (after .env), then lets Secrets Manager
// override credentials when AWS_USE_SECRETS=true.
func LoadConfig(ctx context.Context, secrets *awspkg.SecretsClient, logger *zap.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using system environment variables")
	}

	cfg := &Config{
		Env:            getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8089"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		OutboxQueueURL: os.Getenv("OUTBOX_SQS_QUEUE_URL"),
		OutboxQueue:    getEnv("OUTBOX_SQS_QUEUE_NAME", "capture-notification-outbox"),
		Postgres: database.PostgresConfig{
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			Name:     os.Getenv("POSTGRES_DB"),
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
			TimeZone: getEnv("POSTGRES_TIMEZONE", "UTC"),
		},
		EmailProvider: getEnv("EMAIL_PROVIDER", "emailjs"),
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
		name := getEnv("NOTIFICATION_SECRET_NAME", "capture/notification")
		values, err := secrets.GetSecretMap(ctx, name)
		if err != nil {
			logger.Warn("Secrets Manager override skipped", zap.String("secret", name), zap.Error(err))
		} else {
			override(&cfg.JWTSecret, values["JWT_SECRET"])
			override(&cfg.Postgres.User, values["POSTGRES_USER"])
			override(&cfg.Postgres.Password, values["POSTGRES_PASSWORD"])
			override(&cfg.Postgres.Host, values["POSTGRES_HOST"])
			override(&cfg.EmailJS.UserID, values["EMAILJS_USER_ID"])
			override(&cfg.EmailJS.AccessKey, values["EMAILJS_ACCESS_KEY"])
			override(&cfg.SMTP.Password, values["SMTP_PASS"])
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
