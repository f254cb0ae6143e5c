package docstore

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// MemoryGateway keeps records in process using the same attribute-value
// encoding as the DynamoDB gateway. It backs local development and tests.
type MemoryGateway struct {
	mu    sync.RWMutex
	items map[string]map[string]map[string]types.AttributeValue
	newID func() string
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		items: make(map[string]map[string]map[string]types.AttributeValue),
		newID: uuid.NewString,
	}
}

func (m *MemoryGateway) List(ctx context.Context, collection string, out interface{}) error {
	m.mu.RLock()
	records := make([]map[string]types.AttributeValue, 0, len(m.items[collection]))
	for _, item := range m.items[collection] {
		records = append(records, maps.Clone(item))
	}
	m.mu.RUnlock()

	SortByKey(records)
	if err := attributevalue.UnmarshalListOfMaps(records, out); err != nil {
		return fmt.Errorf("unmarshal %s: %w", collection, err)
	}
	return nil
}

func (m *MemoryGateway) Get(ctx context.Context, collection, id string, out interface{}) error {
	m.mu.RLock()
	item, ok := m.items[collection][id]
	if ok {
		item = maps.Clone(item)
	}
	m.mu.RUnlock()

	if !ok {
		return ErrNotFound
	}
	if err := attributevalue.UnmarshalMap(item, out); err != nil {
		return fmt.Errorf("unmarshal %s/%s: %w", collection, id, err)
	}
	return nil
}

func (m *MemoryGateway) Create(ctx context.Context, collection string, fields interface{}) (string, error) {
	id := m.newID()
	if err := m.Set(ctx, collection, id, fields); err != nil {
		return "", err
	}
	return id, nil
}

func (m *MemoryGateway) Set(ctx context.Context, collection, id string, fields interface{}) error {
	item, err := EncodeFields(id, fields)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items[collection] == nil {
		m.items[collection] = make(map[string]map[string]types.AttributeValue)
	}
	m.items[collection][id] = item
	return nil
}

func (m *MemoryGateway) Update(ctx context.Context, collection, id string, fields interface{}) error {
	patch, err := EncodeFields("", fields)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[collection][id]
	if !ok {
		return ErrNotFound
	}
	merged := maps.Clone(item)
	maps.Copy(merged, patch)
	m.items[collection][id] = merged
	return nil
}

func (m *MemoryGateway) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items[collection], id)
	return nil
}
