package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/yashrajoria/capture-backend/pkg/docstore"
)

// API is the subset of the DynamoDB client the gateway uses.
type API interface {
	dynamodb.ScanAPIClient
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Gateway implements docstore.Gateway with one table per collection, each keyed
// by the string attribute "id".
type Gateway struct {
	client API
	tables map[string]string
	prefix string
	newID  func() string
}

// NewGateway maps collections to tables through tables; collections without an
// entry use prefix+collection.
func NewGateway(client API, prefix string, tables map[string]string) *Gateway {
	return &Gateway{client: client, tables: tables, prefix: prefix, newID: uuid.NewString}
}

func (g *Gateway) table(collection string) *string {
	if t, ok := g.tables[collection]; ok && t != "" {
		return aws.String(t)
	}
	return aws.String(g.prefix + collection)
}

func key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{docstore.KeyAttribute: &types.AttributeValueMemberS{Value: id}}
}

// List scans the whole table; collections here are small reference sets.
func (g *Gateway) List(ctx context.Context, collection string, out interface{}) error {
	paginator := dynamodb.NewScanPaginator(g.client, &dynamodb.ScanInput{TableName: g.table(collection)})

	var items []map[string]types.AttributeValue
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return docstore.Unavailable("scan "+collection, err)
		}
		items = append(items, page.Items...)
	}

	docstore.SortByKey(items)
	if err := attributevalue.UnmarshalListOfMaps(items, out); err != nil {
		return fmt.Errorf("unmarshal %s: %w", collection, err)
	}
	return nil
}

func (g *Gateway) Get(ctx context.Context, collection, id string, out interface{}) error {
	res, err := g.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      g.table(collection),
		Key:            key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return docstore.Unavailable("get "+collection, err)
	}
	if len(res.Item) == 0 {
		return docstore.ErrNotFound
	}
	if err := attributevalue.UnmarshalMap(res.Item, out); err != nil {
		return fmt.Errorf("unmarshal %s/%s: %w", collection, id, err)
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
	item, err := docstore.EncodeFields(id, fields)
	if err != nil {
		return err
	}
	if _, err := g.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: g.table(collection),
		Item:      item,
	}); err != nil {
		return docstore.Unavailable("put "+collection, err)
	}
	return nil
}

// Update issues a single SET expression over the supplied attributes, guarded
// by attribute_exists(id) so a missing record reports ErrNotFound.
func (g *Gateway) Update(ctx context.Context, collection, id string, fields interface{}) error {
	patch, err := docstore.EncodeFields("", fields)
	if err != nil {
		return err
	}
	if len(patch) == 0 {
		return nil
	}

	expr, names, values := updateExpression(patch)
	names["#pk"] = docstore.KeyAttribute

	_, err = g.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 g.table(collection),
		Key:                       key(id),
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return docstore.ErrNotFound
		}
		return docstore.Unavailable("update "+collection, err)
	}
	return nil
}

func (g *Gateway) Delete(ctx context.Context, collection, id string) error {
	if _, err := g.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: g.table(collection),
		Key:       key(id),
	}); err != nil {
		return docstore.Unavailable("delete "+collection, err)
	}
	return nil
}

// updateExpression builds "SET #f0 = :v0, #f1 = :v1" with attributes in name order.
func updateExpression(patch map[string]types.AttributeValue) (string, map[string]string, map[string]types.AttributeValue) {
	attrs := make([]string, 0, len(patch))
	for a := range patch {
		attrs = append(attrs, a)
	}
	sort.Strings(attrs)

	names := make(map[string]string, len(attrs)+1)
	values := make(map[string]types.AttributeValue, len(attrs))
	sets := make([]string, 0, len(attrs))
	for i, a := range attrs {
		n, v := "#f"+strconv.Itoa(i), ":v"+strconv.Itoa(i)
		names[n] = a
		values[v] = patch[a]
		sets = append(sets, n+" = "+v)
	}
	return "SET " + strings.Join(sets, ", "), names, values
}
