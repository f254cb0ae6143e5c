package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/capture-backend/services/shop-service/models"
)

type mockSNS struct {
	mock.Mock
}

func (m *mockSNS) Publish(ctx context.Context, topicArn, eventType string, message []byte) error {
	args := m.Called(ctx, topicArn, eventType, message)
	return args.Error(0)
}

func TestSNSPublisherSendsEventJSON(t *testing.T) {
	client := new(mockSNS)
	var body []byte
	client.On("Publish", mock.Anything, "arn:aws:sns:us-east-1:000000000000:orders", models.EventOrderCreated, mock.Anything).
		Run(func(args mock.Arguments) { body = args.Get(3).([]byte) }).
		Return(nil)

	p := NewSNSPublisher(client, "arn:aws:sns:us-east-1:000000000000:orders")
	err := p.PublishOrderCreated(context.Background(), models.OrderCreatedEvent{
		Event:     models.EventOrderCreated,
		OrderID:   "ORD-1",
		Total:     200,
		Timestamp: time.Unix(0, 0).UTC(),
	})
	require.NoError(t, err)
	client.AssertExpectations(t)

	var decoded models.OrderCreatedEvent
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "ORD-1", decoded.OrderID)
	assert.Equal(t, 200.0, decoded.Total)
}
