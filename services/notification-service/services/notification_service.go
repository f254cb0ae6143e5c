package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	awspkg "github.com/yashrajoria/capture-backend/pkg/aws"
	"github.com/yashrajoria/capture-backend/pkg/docstore"
	"github.com/yashrajoria/capture-backend/services/notification-service/models"
	"github.com/yashrajoria/capture-backend/services/notification-service/repository"
	"github.com/yashrajoria/capture-backend/services/notification-service/sender"
	"go.uber.org/zap"
)

type NotificationService interface {
	// ProcessOutbox retries a confirmation the checkout could not deliver and,
	// once sent, marks the order's notification_status. A returned error keeps
	// the message on the queue.
	ProcessOutbox(ctx context.Context, msg *models.OutboxMessage) error
	GetLogs(ctx context.Context, filter models.NotificationFilter) ([]models.NotificationLog, int64, error)
	OrderDelivery(ctx context.Context, orderID string) (*models.DeliveryStatus, error)
}

// MetricsRecorder is satisfied by *awspkg.MetricsClient.
type MetricsRecorder interface {
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
}

type notificationService struct {
	repo     repository.NotificationRepository
	sender   sender.ConfirmationSender
	orders   docstore.Gateway
	metrics  MetricsRecorder
	logger   *zap.Logger
	attempts int
	backoff  time.Duration
}

func NewNotificationService(
	repo repository.NotificationRepository,
	confirmations sender.ConfirmationSender,
	orders docstore.Gateway,
	metrics MetricsRecorder,
	logger *zap.Logger,
) NotificationService {
	return &notificationService{
		repo:     repo,
		sender:   confirmations,
		orders:   orders,
		metrics:  metrics,
		logger:   logger,
		attempts: 3,
		backoff:  time.Second,
	}
}

func (s *notificationService) ProcessOutbox(ctx context.Context, msg *models.OutboxMessage) error {
	if msg.Kind != models.TypeOrderConfirmation {
		s.logger.Warn("dropping unsupported outbox message", zap.String("kind", msg.Kind))
		return nil
	}
	if msg.OrderID == "" || msg.Params.ToEmail == "" {
		s.logger.Warn("dropping malformed outbox message", zap.String("order_id", msg.OrderID))
		return nil
	}

	status, err := s.orderNotificationStatus(ctx, msg.OrderID)
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		s.logger.Warn("dropping outbox message for unknown order", zap.String("order_id", msg.OrderID))
		return nil
	case err != nil:
		return fmt.Errorf("load order %s: %w", msg.OrderID, err)
	case status == models.StatusSent:
		s.logger.Info("confirmation already sent, dropping outbox message", zap.String("order_id", msg.OrderID))
		return nil
	}

	if err := s.sendWithRetry(ctx, msg); err != nil {
		return err
	}

	err = s.orders.Update(ctx, docstore.Orders, msg.OrderID, map[string]interface{}{
		"notification_status": models.StatusSent,
	})
	if err != nil {
		// the email went out; a redelivery would send it twice
		s.logger.Error("failed to mark order notification as sent",
			zap.String("order_id", msg.OrderID),
			zap.Error(err),
		)
	}
	return nil
}

func (s *notificationService) sendWithRetry(ctx context.Context, msg *models.OutboxMessage) error {
	var lastErr error
	var result sender.SendResult
	attempt := 0

	for ; attempt < s.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * s.backoff):
			}
		}

		result, lastErr = s.sender.SendOrderConfirmation(ctx, msg.Params)
		if lastErr == nil {
			break
		}

		s.logger.Warn("send attempt failed",
			zap.String("order_id", msg.OrderID),
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr),
		)
	}

	entry := &models.NotificationLog{
		OrderID:    msg.OrderID,
		Recipient:  msg.Params.ToEmail,
		Type:       msg.Kind,
		Channel:    models.ChannelEmail,
		Status:     models.StatusSent,
		MessageID:  result.MessageID,
		RetryCount: attempt,
	}
	metric := awspkg.MetricNotificationsSent
	if lastErr != nil {
		entry.Status = models.StatusFailed
		entry.Error = lastErr.Error()
		entry.RetryCount = s.attempts
		metric = awspkg.MetricNotificationsFailed
	}

	if err := s.repo.SaveLog(ctx, entry); err != nil {
		s.logger.Error("failed to save notification log", zap.String("order_id", msg.OrderID), zap.Error(err))
	}
	if s.metrics != nil {
		_ = s.metrics.RecordCount(ctx, metric, map[string]string{"Type": msg.Kind})
	}

	if lastErr != nil {
		return fmt.Errorf("confirmation for %s not delivered after %d attempts: %w", msg.OrderID, s.attempts, lastErr)
	}
	return nil
}

func (s *notificationService) GetLogs(ctx context.Context, filter models.NotificationFilter) ([]models.NotificationLog, int64, error) {
	return s.repo.GetLogs(ctx, filter)
}

type orderStatus struct {
	NotificationStatus string `dynamodbav:"notification_status" bson:"notification_status"`
}

func (s *notificationService) orderNotificationStatus(ctx context.Context, orderID string) (string, error) {
	var order orderStatus
	if err := s.orders.Get(ctx, docstore.Orders, orderID, &order); err != nil {
		return "", err
	}
	return order.NotificationStatus, nil
}

// OrderDelivery reports the order's notification flag next to its newest
// logged attempt. docstore.ErrNotFound when the order does not exist.
func (s *notificationService) OrderDelivery(ctx context.Context, orderID string) (*models.DeliveryStatus, error) {
	status, err := s.orderNotificationStatus(ctx, orderID)
	if err != nil {
		return nil, err
	}

	latest, attempts, err := s.repo.LatestForOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load attempts for %s: %w", orderID, err)
	}
	return &models.DeliveryStatus{
		OrderID:            orderID,
		NotificationStatus: status,
		Attempts:           attempts,
		LastAttempt:        latest,
	}, nil
}
