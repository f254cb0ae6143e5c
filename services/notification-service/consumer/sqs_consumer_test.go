package consumer

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	awspkg "github.com/yashrajoria/capture-backend/pkg/aws"
	"github.com/yashrajoria/capture-backend/services/notification-service/models"
	"go.uber.org/zap"
)

type stubService struct {
	seen []string
	err  error
}

func (s *stubService) ProcessOutbox(ctx context.Context, msg *models.OutboxMessage) error {
	s.seen = append(s.seen, msg.OrderID)
	return s.err
}

func (s *stubService) GetLogs(ctx context.Context, f models.NotificationFilter) ([]models.NotificationLog, int64, error) {
	return nil, 0, nil
}

func (s *stubService) OrderDelivery(ctx context.Context, orderID string) (*models.DeliveryStatus, error) {
	return nil, nil
}

type fakeSQS struct {
	messages []types.Message
	deleted  []string
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	return &sqs.ReceiveMessageOutput{Messages: f.messages}, nil
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func (f *fakeSQS) SendMessage(ctx context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	return &sqs.SendMessageOutput{}, nil
}

func TestPollDeletesOnlyHandledMessages(t *testing.T) {
	api := &fakeSQS{messages: []types.Message{
		{Body: aws.String(`{"kind":"order_confirmation","order_id":"ORD-1"}`), ReceiptHandle: aws.String("r1")},
		{Body: aws.String(`not json`), ReceiptHandle: aws.String("r2")},
	}}
	svc := &stubService{}
	c := NewOutboxConsumer(awspkg.NewQueue(api, "http://queue", zap.NewNop()), svc, zap.NewNop())

	require.NoError(t, c.queue.PollOnce(context.Background(), c.Handle))
	assert.Equal(t, []string{"ORD-1"}, svc.seen)
	assert.Equal(t, []string{"r1", "r2"}, api.deleted)
}

func TestPollKeepsFailedMessages(t *testing.T) {
	api := &fakeSQS{messages: []types.Message{
		{Body: aws.String(`{"kind":"order_confirmation","order_id":"ORD-2"}`), ReceiptHandle: aws.String("r1")},
	}}
	svc := &stubService{err: errors.New("still down")}
	c := NewOutboxConsumer(awspkg.NewQueue(api, "http://queue", zap.NewNop()), svc, zap.NewNop())

	require.NoError(t, c.queue.PollOnce(context.Background(), c.Handle))
	assert.Empty(t, api.deleted)
}
