// Package storage selects and opens the document-store backend for a binary.
package storage

import (
	"context"
	"fmt"
	"os"
	"strings"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/yashrajoria/capture-backend/pkg/docstore"
	"github.com/yashrajoria/capture-backend/pkg/dynamodb"
	"github.com/yashrajoria/capture-backend/pkg/mongodb"
	"go.uber.org/zap"
)

const (
	BackendDynamo = "dynamodb"
	BackendMongo  = "mongodb"
	BackendMemory = "memory"
)

type GatewayConfig struct {
	Backend     string
	DDBEndpoint string
	TablePrefix string
	Tables      map[string]string
	MongoURI    string
	MongoDB     string
}

// GatewayConfigFromEnv reads DOCSTORE_BACKEND, DDB_TABLE_PREFIX, DDB_TABLE_<COLLECTION>,
// MONGO_URI and MONGO_DB.
func GatewayConfigFromEnv() GatewayConfig {
	cfg := GatewayConfig{
		Backend:     strings.ToLower(getEnv("DOCSTORE_BACKEND", BackendDynamo)),
		DDBEndpoint: os.Getenv("AWS_ENDPOINT"),
		TablePrefix: getEnv("DDB_TABLE_PREFIX", "capture_"),
		Tables:      map[string]string{},
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:     getEnv("MONGO_DB", "capture"),
	}
	for _, c := range []string{
		docstore.Packages, docstore.Teams, docstore.Products, docstore.Orders,
		docstore.Users, docstore.Credentials, docstore.Bookings,
	} {
		if t := os.Getenv("DDB_TABLE_" + strings.ToUpper(c)); t != "" {
			cfg.Tables[c] = t
		}
	}
	return cfg
}

// OpenGateway returns the configured gateway and a close func.
func OpenGateway(ctx context.Context, cfg GatewayConfig, awsCfg sdkaws.Config, logger *zap.Logger) (docstore.Gateway, func(), error) {
	switch cfg.Backend {
	case BackendDynamo:
		client := dynamodb.NewClientFromConfig(awsCfg, cfg.DDBEndpoint)
		logger.Info("Using DynamoDB document store", zap.String("table_prefix", cfg.TablePrefix))
		return dynamodb.NewGateway(client, cfg.TablePrefix, cfg.Tables), func() {}, nil
	case BackendMongo:
		client, err := mongodb.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using MongoDB document store", zap.String("database", cfg.MongoDB))
		return mongodb.NewGateway(client.Database(cfg.MongoDB)), func() {
			_ = client.Disconnect(context.Background())
		}, nil
	case BackendMemory:
		logger.Warn("Using in-memory document store; data is lost on restart")
		return docstore.NewMemoryGateway(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown DOCSTORE_BACKEND %q", cfg.Backend)
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
