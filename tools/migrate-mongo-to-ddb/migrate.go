package main

import (
	"context"
	"fmt"

	"github.com/yashrajoria/capture-backend/pkg/docstore"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Collections copied by default, in dependency order.
var Collections = []string{
	docstore.Teams, docstore.Packages, docstore.Products,
	docstore.Users, docstore.Credentials, docstore.Bookings, docstore.Orders,
}

type Report struct {
	Copied  map[string]int
	Skipped map[string]int
}

// Migrate copies every record of each collection from src to dst under the
// same id. Records without an id are skipped. With dryRun nothing is written.
func Migrate(ctx context.Context, src, dst docstore.Gateway, collections []string, dryRun bool, log *zap.Logger) (Report, error) {
	report := Report{Copied: map[string]int{}, Skipped: map[string]int{}}
	for _, collection := range collections {
		var records []map[string]interface{}
		if err := src.List(ctx, collection, &records); err != nil {
			return report, fmt.Errorf("list %s: %w", collection, err)
		}
		for _, rec := range records {
			id := recordID(rec)
			if id == "" {
				report.Skipped[collection]++
				log.Warn("Skipping record without id", zap.String("collection", collection))
				continue
			}
			fields := normalize(rec).(map[string]interface{})
			delete(fields, "_id")
			if !dryRun {
				if err := dst.Set(ctx, collection, id, fields); err != nil {
					return report, fmt.Errorf("put %s/%s: %w", collection, id, err)
				}
			}
			report.Copied[collection]++
		}
		log.Info("Migrated collection",
			zap.String("collection", collection),
			zap.Int("copied", report.Copied[collection]),
			zap.Int("skipped", report.Skipped[collection]),
			zap.Bool("dry_run", dryRun),
		)
	}
	return report, nil
}

func recordID(rec map[string]interface{}) string {
	for _, key := range []string{docstore.KeyAttribute, "_id"} {
		switch v := rec[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case primitive.ObjectID:
			return v.Hex()
		}
	}
	return ""
}

// normalize rewrites driver-specific bson values into plain maps, slices and
// times so the destination marshaller sees ordinary Go values.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case bson.M:
		return normalize(map[string]interface{}(t))
	case bson.D:
		out := make(map[string]interface{}, len(t))
		for _, e := range t {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case bson.A:
		return normalize([]interface{}(t))
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.ObjectID:
		return t.Hex()
	case primitive.Decimal128:
		return t.String()
	default:
		return v
	}
}
