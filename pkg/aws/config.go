package aws

import (
	"context"
	"fmt"
	"os"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"go.uber.org/zap"
)

// Settings holds the AWS connection settings shared by every client in a binary.
type Settings struct {
	Region          string
	Endpoint        string // generic LocalStack edge, e.g. http://localstack:4566
	S3Endpoint      string
	AccessKeyID     string
	SecretAccessKey string
}

// SettingsFromEnv reads AWS_REGION, AWS_ENDPOINT, AWS_S3_ENDPOINT and static keys.
func SettingsFromEnv() Settings {
	s := Settings{
		Region:          os.Getenv("AWS_REGION"),
		Endpoint:        os.Getenv("AWS_ENDPOINT"),
		S3Endpoint:      os.Getenv("AWS_S3_ENDPOINT"),
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
	}
	if s.Region == "" {
		s.Region = "us-east-1"
	}
	if s.S3Endpoint == "" {
		s.S3Endpoint = s.Endpoint
	}
	return s
}

// LoadAWSConfig loads the SDK config. When an endpoint is set every service client
// is pointed at it, which is how LocalStack is targeted in development.
func LoadAWSConfig(ctx context.Context, s Settings, logger *zap.Logger) (sdkaws.Config, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(s.Region)}
	if s.AccessKeyID != "" && s.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.AccessKeyID, s.SecretAccessKey, ""),
		))
	}

	if s.Endpoint != "" {
		endpoint, region := s.Endpoint, s.Region
		opts = append(opts, config.WithEndpointResolverWithOptions(
			sdkaws.EndpointResolverWithOptionsFunc(func(service, r string, options ...interface{}) (sdkaws.Endpoint, error) {
				return sdkaws.Endpoint{
					URL:               endpoint,
					SigningRegion:     region,
					HostnameImmutable: true,
				}, nil
			}),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return cfg, fmt.Errorf("failed to load aws config: %w", err)
	}

	logger.Info("AWS config loaded",
		zap.String("region", cfg.Region),
		zap.String("endpoint", s.Endpoint),
		zap.String("s3_endpoint", s.S3Endpoint),
	)
	return cfg, nil
}
