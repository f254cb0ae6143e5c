package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	awspkg "github.com/yashrajoria/capture-backend/pkg/aws"
	"github.com/yashrajoria/capture-backend/pkg/docstore"
	apperrors "github.com/yashrajoria/capture-backend/services/common/errors"
	notifymodels "github.com/yashrajoria/capture-backend/services/notification-service/models"
	"github.com/yashrajoria/capture-backend/services/notification-service/sender"
	"github.com/yashrajoria/capture-backend/services/shop-service/models"
	"go.uber.org/zap"
)

// OutboxQueue is satisfied by *aws.Queue.
type OutboxQueue interface {
	SendMessage(ctx context.Context, kind, body string) error
}

type OrderEventPublisher interface {
	PublishOrderCreated(ctx context.Context, event models.OrderCreatedEvent) error
}

// IdempotencyStore is satisfied by *repository.CartRepository.
type IdempotencyStore interface {
	ReserveIdempotency(ctx context.Context, key, orderID string, ttl time.Duration) (string, error)
	// LookupIdempotency returns the order id bound to key, if any.
	LookupIdempotency(ctx context.Context, key string) (string, bool, error)
}

type CheckoutConfig struct {
	ShopEmail      string
	FromName       string
	Redirect       string
	RedirectAfter  time.Duration
	IdempotencyTTL time.Duration
}

func DefaultCheckoutConfig() CheckoutConfig {
	return CheckoutConfig{
		ShopEmail:      "capturerings653@gmail.com",
		FromName:       "Capture Shop",
		Redirect:       "/shop",
		RedirectAfter:  3 * time.Second,
		IdempotencyTTL: 24 * time.Hour,
	}
}

type CheckoutResult struct {
	Order         *models.Order `json:"order"`
	Redirect      string        `json:"redirect"`
	RedirectAfter time.Duration `json:"-"`
	// RedirectAfterMs mirrors RedirectAfter for JSON clients.
	RedirectAfterMs int64 `json:"redirect_after_ms"`
}

type CheckoutService struct {
	cfg       CheckoutConfig
	carts     CartStore
	gateway   docstore.Gateway
	notifier  sender.ConfirmationSender
	outbox    OutboxQueue
	events    OrderEventPublisher
	idem      IdempotencyStore
	validator *Validator
	metrics   MetricsRecorder
	logger    *zap.Logger
	now       func() time.Time
	newID     func(time.Time) (string, error)
}

func NewCheckoutService(
	cfg CheckoutConfig,
	carts CartStore,
	gateway docstore.Gateway,
	notifier sender.ConfirmationSender,
	outbox OutboxQueue,
	events OrderEventPublisher,
	idem IdempotencyStore,
	validator *Validator,
	metrics MetricsRecorder,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		cfg:       cfg,
		carts:     carts,
		gateway:   gateway,
		notifier:  notifier,
		outbox:    outbox,
		events:    events,
		idem:      idem,
		validator: validator,
		metrics:   metricsOrNoop(metrics),
		logger:    logger,
		now:       time.Now,
		newID:     NewOrderID,
	}
}

// NewOrderID returns ORD-<unix millis>-<6 hex chars>.
func NewOrderID(now time.Time) (string, error) {
	b := make([]byte, 3)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", fmt.Errorf("order id entropy: %w", err)
	}
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), hex.EncodeToString(b)), nil
}

// Checkout turns the user's cart into an order and sends the confirmation.
// The cart is cleared only after both the order write and the email succeed.
func (s *CheckoutService) Checkout(ctx context.Context, userID, idempotencyKey string, req models.CheckoutRequest) (*CheckoutResult, error) {
	log := s.logger.With(zap.String("userID", userID))

	if err := s.validator.Struct(ctx, req); err != nil {
		return nil, err
	}

	if placed, err := s.placedOrder(ctx, idempotencyKey); err != nil {
		log.Error("Failed to look up idempotency key", zap.Error(err))
		return nil, apperrors.Wrap(apperrors.ErrServiceUnavailable, err)
	} else if placed != nil {
		log.Info("Replaying placed order", zap.String("orderID", placed.ID))
		return s.result(placed), nil
	}

	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		log.Error("Failed to load cart for checkout", zap.Error(err))
		return nil, apperrors.Wrap(apperrors.ErrServiceUnavailable, err)
	}
	if cart == nil || cart.IsEmpty() {
		return nil, apperrors.NewValidationError(map[string]string{"cart": "Cart is empty"})
	}

	now := s.now().UTC()
	orderID, err := s.newID(now)
	if err != nil {
		log.Error("Failed to generate order id", zap.Error(err))
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if idempotencyKey != "" && s.idem != nil {
		orderID, err = s.idem.ReserveIdempotency(ctx, idempotencyKey, orderID, s.cfg.IdempotencyTTL)
		if err != nil {
			log.Error("Failed to reserve idempotency key", zap.Error(err))
			return nil, apperrors.Wrap(apperrors.ErrServiceUnavailable, err)
		}
	}
	log = log.With(zap.String("orderID", orderID))

	order := &models.Order{
		ID:                 orderID,
		UserID:             userID,
		FullName:           req.FullName,
		Email:              req.Email,
		Address:            req.Address,
		City:               req.City,
		PostalCode:         req.PostalCode,
		Country:            req.Country,
		PaymentMethod:      req.PaymentMethod,
		ShippingMethod:     req.ShippingMethod,
		Items:              append([]models.CartItem(nil), cart.Items...),
		Total:              cart.Total(),
		Status:             models.OrderStatusPending,
		NotificationStatus: models.NotificationPending,
		CreatedAt:          now,
	}

	if err := s.gateway.Set(ctx, docstore.Orders, order.ID, order); err != nil {
		log.Error("Failed to persist order", zap.Error(err))
		_ = s.metrics.RecordCount(ctx, awspkg.MetricOrdersFailed, nil)
		return nil, remoteErr(err)
	}

	params := sender.OrderConfirmation{
		ToName:          req.FullName,
		ToEmail:         req.Email,
		ToShop:          s.cfg.ShopEmail,
		FromName:        s.cfg.FromName,
		OrderID:         order.ID,
		OrderDetails:    cart.Summary(),
		TotalAmount:     order.Total,
		ShippingAddress: req.ShippingAddress(),
	}

	if _, err := s.notifier.SendOrderConfirmation(ctx, params); err != nil {
		log.Warn("Order confirmation failed, queueing for retry", zap.Error(err))
		s.markNotification(ctx, log, order, models.NotificationFailed)
		s.enqueue(ctx, log, params)
		return nil, apperrors.Wrap(apperrors.ErrNotificationFailure, err)
	}
	s.markNotification(ctx, log, order, models.NotificationSent)

	if err := s.carts.DeleteCart(ctx, userID); err != nil {
		log.Error("Failed to clear cart after checkout", zap.Error(err))
	}

	s.publish(ctx, log, order)
	_ = s.metrics.RecordCount(ctx, awspkg.MetricOrdersCreated, nil)
	_ = s.metrics.RecordValue(ctx, awspkg.MetricOrderValue, order.Total, nil)
	_ = s.metrics.RecordCount(ctx, awspkg.MetricCartCheckouts, map[string]string{"PaymentMethod": order.PaymentMethod})

	log.Info("Order placed", zap.Float64("total", order.Total), zap.Int("items", len(order.Items)))
	return s.result(order), nil
}

func (s *CheckoutService) result(order *models.Order) *CheckoutResult {
	return &CheckoutResult{
		Order:           order,
		Redirect:        s.cfg.Redirect,
		RedirectAfter:   s.cfg.RedirectAfter,
		RedirectAfterMs: s.cfg.RedirectAfter.Milliseconds(),
	}
}

// placedOrder returns the order an earlier request with the same key completed.
// Orders whose confirmation has not gone out yet are retried, not replayed.
func (s *CheckoutService) placedOrder(ctx context.Context, idempotencyKey string) (*models.Order, error) {
	if idempotencyKey == "" || s.idem == nil {
		return nil, nil
	}
	orderID, ok, err := s.idem.LookupIdempotency(ctx, idempotencyKey)
	if err != nil || !ok {
		return nil, err
	}
	var order models.Order
	err = s.gateway.Get(ctx, docstore.Orders, orderID, &order)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if order.NotificationStatus != models.NotificationSent {
		return nil, nil
	}
	return &order, nil
}

func (s *CheckoutService) markNotification(ctx context.Context, log *zap.Logger, order *models.Order, status string) {
	order.NotificationStatus = status
	err := s.gateway.Update(ctx, docstore.Orders, order.ID, map[string]interface{}{
		"notification_status": status,
	})
	if err != nil {
		log.Error("Failed to update order notification status", zap.String("status", status), zap.Error(err))
	}
}

func (s *CheckoutService) enqueue(ctx context.Context, log *zap.Logger, params sender.OrderConfirmation) {
	if s.outbox == nil {
		log.Warn("No outbox queue configured; confirmation will not be retried")
		return
	}
	body, err := json.Marshal(notifymodels.OutboxMessage{
		Kind:       notifymodels.TypeOrderConfirmation,
		OrderID:    params.OrderID,
		Params:     params,
		EnqueuedAt: s.now().UTC(),
	})
	if err != nil {
		log.Error("Failed to encode outbox message", zap.Error(err))
		return
	}
	if err := s.outbox.SendMessage(ctx, notifymodels.TypeOrderConfirmation, string(body)); err != nil {
		log.Error("Failed to queue outbox message", zap.Error(err))
	}
}

func (s *CheckoutService) publish(ctx context.Context, log *zap.Logger, order *models.Order) {
	if s.events == nil {
		return
	}
	err := s.events.PublishOrderCreated(ctx, models.OrderCreatedEvent{
		Event:     models.EventOrderCreated,
		OrderID:   order.ID,
		UserID:    order.UserID,
		Email:     order.Email,
		Items:     order.Items,
		Total:     order.Total,
		Timestamp: order.CreatedAt,
	})
	if err != nil {
		log.Warn("Failed to publish order event", zap.Error(err))
	}
}
