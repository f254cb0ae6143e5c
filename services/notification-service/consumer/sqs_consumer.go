package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	awspkg "github.com/yashrajoria/capture-backend/pkg/aws"
	"github.com/yashrajoria/capture-backend/services/notification-service/models"
	"github.com/yashrajoria/capture-backend/services/notification-service/services"
	"go.uber.org/zap"
)

// OutboxConsumer feeds outbox messages from SQS to the notification service.
type OutboxConsumer struct {
	queue   *awspkg.Queue
	service services.NotificationService
	logger  *zap.Logger
}

func NewOutboxConsumer(queue *awspkg.Queue, svc services.NotificationService, logger *zap.Logger) *OutboxConsumer {
	return &OutboxConsumer{queue: queue, service: svc, logger: logger}
}

// Start blocks until ctx is cancelled.
func (c *OutboxConsumer) Start(ctx context.Context) {
	c.logger.Info("Outbox consumer started")
	_ = c.queue.StartPolling(ctx, c.Handle)
}

// Handle decodes one message body. Undecodable bodies are dropped so they do
// not cycle through the queue forever.
func (c *OutboxConsumer) Handle(ctx context.Context, body string) error {
	var msg models.OutboxMessage
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		c.logger.Error("invalid outbox message", zap.Error(err))
		return nil
	}
	if err := c.service.ProcessOutbox(ctx, &msg); err != nil {
		return fmt.Errorf("process outbox %s: %w", msg.OrderID, err)
	}
	return nil
}
