// Command migrate-mongo-to-ddb copies the document store from MongoDB into
// DynamoDB tables, keeping every record id.
package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	awspkg "github.com/yashrajoria/capture-backend/pkg/aws"
	"github.com/yashrajoria/capture-backend/pkg/dynamodb"
	"github.com/yashrajoria/capture-backend/pkg/mongodb"
	"github.com/yashrajoria/capture-backend/services/common/logger"
	"github.com/yashrajoria/capture-backend/services/common/storage"
	"go.uber.org/zap"
)

func main() {
	gwCfg := storage.GatewayConfigFromEnv()

	var collections string
	var dryRun bool
	flag.StringVar(&gwCfg.MongoURI, "mongo", gwCfg.MongoURI, "MongoDB URI")
	flag.StringVar(&gwCfg.MongoDB, "db", gwCfg.MongoDB, "MongoDB database name")
	flag.StringVar(&gwCfg.TablePrefix, "prefix", gwCfg.TablePrefix, "DynamoDB table prefix")
	flag.StringVar(&collections, "collections", strings.Join(Collections, ","), "comma separated collections to copy")
	flag.BoolVar(&dryRun, "dry-run", false, "read and count without writing")
	flag.Parse()

	log := logger.Initialize(os.Getenv("APP_ENV"))
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	client, err := mongodb.Connect(ctx, gwCfg.MongoURI)
	if err != nil {
		log.Fatal("Mongo connect failed", zap.Error(err))
	}
	defer client.Disconnect(context.Background())
	src := mongodb.NewGateway(client.Database(gwCfg.MongoDB))

	awsCfg, err := awspkg.LoadAWSConfig(ctx, awspkg.SettingsFromEnv(), log)
	if err != nil {
		log.Fatal("Failed to load AWS config", zap.Error(err))
	}
	dst := dynamodb.NewGateway(dynamodb.NewClientFromConfig(awsCfg, gwCfg.DDBEndpoint), gwCfg.TablePrefix, gwCfg.Tables)

	report, err := Migrate(ctx, src, dst, splitCollections(collections), dryRun, log)
	if err != nil {
		log.Fatal("Migration failed", zap.Error(err))
	}

	total := 0
	for _, n := range report.Copied {
		total += n
	}
	log.Info("Migration finished", zap.Int("records", total), zap.Bool("dry_run", dryRun))
}

func splitCollections(s string) []string {
	var out []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
