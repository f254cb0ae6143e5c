package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yashrajoria/capture-backend/pkg/docstore"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connect dials uri and pings the primary.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}

// Gateway implements docstore.Gateway with one Mongo collection per name and
// the record id stored as _id. Records decode through their bson tags, so the
// id field must be tagged `bson:"_id"`.
type Gateway struct {
	db    *mongo.Database
	newID func() string
}

func NewGateway(db *mongo.Database) *Gateway {
	return &Gateway{db: db, newID: uuid.NewString}
}

func (g *Gateway) List(ctx context.Context, collection string, out interface{}) error {
	cur, err := g.db.Collection(collection).Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return docstore.Unavailable("find "+collection, err)
	}
	if err := cur.All(ctx, out); err != nil {
		return docstore.Unavailable("decode "+collection, err)
	}
	return nil
}

func (g *Gateway) Get(ctx context.Context, collection, id string, out interface{}) error {
	err := g.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return docstore.ErrNotFound
	}
	if err != nil {
		return docstore.Unavailable("find "+collection, err)
	}
	return nil
}

func (g *Gateway) Create(ctx context.Context, collection string, fields interface{}) (string, error) {
	id := g.newID()
	if err := g.Set(ctx, collection, id, fields); err != nil {
		return "", err
	}
	return id, nil
}

func (g *Gateway) Set(ctx context.Context, collection, id string, fields interface{}) error {
	doc, err := toDocument(fields)
	if err != nil {
		return err
	}
	doc["_id"] = id

	_, err = g.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return docstore.Unavailable("replace "+collection, err)
	}
	return nil
}

func (g *Gateway) Update(ctx context.Context, collection, id string, fields interface{}) error {
	doc, err := toDocument(fields)
	if err != nil {
		return err
	}
	if len(doc) == 0 {
		return nil
	}

	res, err := g.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": doc})
	if err != nil {
		return docstore.Unavailable("update "+collection, err)
	}
	if res.MatchedCount == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func (g *Gateway) Delete(ctx context.Context, collection, id string) error {
	if _, err := g.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return docstore.Unavailable("delete "+collection, err)
	}
	return nil
}

// toDocument round-trips fields through bson so struct tags apply; key
// attributes are stripped and re-applied by the caller.
func toDocument(fields interface{}) (bson.M, error) {
	raw, err := bson.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("marshal fields: %w", err)
	}
	doc := bson.M{}
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	delete(doc, "_id")
	delete(doc, docstore.KeyAttribute)
	return doc, nil
}
