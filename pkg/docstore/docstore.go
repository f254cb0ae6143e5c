// Package docstore defines the collection gateway the services persist through
// and an in-memory implementation of it.
//
// Records are plain structs (or maps) tagged with `dynamodbav` for the DynamoDB
// and in-memory backends and `bson` for MongoDB. Every record carries its key in
// the "id" attribute; the gateway injects it on write and returns it on read.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Collection names.
const (
	Packages    = "packages"
	Teams       = "teams"
	Products    = "products"
	Orders      = "orders"
	Users       = "users"
	Credentials = "credentials"
	Bookings    = "bookings"
)

// KeyAttribute holds every record's id.
const KeyAttribute = "id"

var (
	ErrNotFound          = errors.New("record not found")
	ErrRemoteUnavailable = errors.New("document store unavailable")
)

// Gateway is a thin CRUD facade over one remote database. There are no
// transactions and no retries; the last writer wins.
type Gateway interface {
	// List decodes every record of collection into out, which must be a pointer
	// to a slice. Records come back ordered by id.
	List(ctx context.Context, collection string, out interface{}) error
	Get(ctx context.Context, collection, id string, out interface{}) error
	// Create stores fields under a generated id and returns it.
	Create(ctx context.Context, collection string, fields interface{}) (string, error)
	// Set stores fields under id, replacing any existing record.
	Set(ctx context.Context, collection, id string, fields interface{}) error
	// Update overwrites only the supplied attributes of an existing record.
	Update(ctx context.Context, collection, id string, fields interface{}) error
	Delete(ctx context.Context, collection, id string) error
}

// Unavailable wraps a driver error so callers can match ErrRemoteUnavailable.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrRemoteUnavailable, err)
}

// EncodeFields marshals a struct or map into attribute values and stamps the key.
// An empty id leaves the key attribute out.
func EncodeFields(id string, fields interface{}) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(fields)
	if err != nil {
		return nil, fmt.Errorf("marshal fields: %w", err)
	}
	if item == nil {
		item = map[string]types.AttributeValue{}
	}
	delete(item, KeyAttribute)
	if id != "" {
		item[KeyAttribute] = &types.AttributeValueMemberS{Value: id}
	}
	return item, nil
}

// KeyOf returns the string key of an encoded record.
func KeyOf(item map[string]types.AttributeValue) string {
	if s, ok := item[KeyAttribute].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

// SortByKey orders encoded records by id.
func SortByKey(items []map[string]types.AttributeValue) {
	sort.SliceStable(items, func(i, j int) bool { return KeyOf(items[i]) < KeyOf(items[j]) })
}
