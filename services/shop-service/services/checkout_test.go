package services

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/capture-backend/pkg/docstore"
	apperrors "github.com/yashrajoria/capture-backend/services/common/errors"
	notifymodels "github.com/yashrajoria/capture-backend/services/notification-service/models"
	"github.com/yashrajoria/capture-backend/services/shop-service/models"
	"go.uber.org/zap"
)

type memCarts struct {
	mu    sync.Mutex
	carts map[string]*models.Cart
	keys  map[string]string
	err   error
}

func newMemCarts() *memCarts {
	return &memCarts{carts: map[string]*models.Cart{}, keys: map[string]string{}}
}

func (m *memCarts) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.carts[userID]
	if !ok {
		return nil, nil
	}
	cp := *c
	cp.Items = append([]models.CartItem(nil), c.Items...)
	return &cp, nil
}

func (m *memCarts) SaveCart(ctx context.Context, cart *models.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *cart
	cp.Items = append([]models.CartItem(nil), cart.Items...)
	m.carts[cart.UserID] = &cp
	return m.err
}

func (m *memCarts) DeleteCart(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, userID)
	return m.err
}

func (m *memCarts) ReserveIdempotency(ctx context.Context, key, orderID string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.keys[key]; ok {
		return existing, nil
	}
	m.keys[key] = orderID
	return orderID, nil
}

func (m *memCarts) LookupIdempotency(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	orderID, ok := m.keys[key]
	return orderID, ok, nil
}

type fakeOutbox struct {
	kinds  []string
	bodies []string
}

func (f *fakeOutbox) SendMessage(ctx context.Context, kind, body string) error {
	f.kinds = append(f.kinds, kind)
	f.bodies = append(f.bodies, body)
	return nil
}

type fakeEvents struct {
	events []models.OrderCreatedEvent
}

func (f *fakeEvents) PublishOrderCreated(ctx context.Context, e models.OrderCreatedEvent) error {
	f.events = append(f.events, e)
	return nil
}

type checkoutFixture struct {
	svc      *CheckoutService
	carts    *memCarts
	gw       *countingGateway
	notifier *fakeNotifier
	outbox   *fakeOutbox
	events   *fakeEvents
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	f := &checkoutFixture{
		carts:    newMemCarts(),
		gw:       newCountingGateway(),
		notifier: &fakeNotifier{},
		outbox:   &fakeOutbox{},
		events:   &fakeEvents{},
	}
	f.svc = NewCheckoutService(DefaultCheckoutConfig(), f.carts, f.gw, f.notifier, f.outbox, f.events,
		f.carts, NewValidator(), nil, zap.NewNop())
	return f
}

func (f *checkoutFixture) seedRingA(t *testing.T, qty int) {
	t.Helper()
	cart := models.NewCart("u1")
	for i := 0; i < qty; i++ {
		cart.Add(models.Product{ID: "ring-a", Name: "Ring A", Price: 100})
	}
	require.NoError(t, f.carts.SaveCart(context.Background(), cart))
}

func paypalRequest() models.CheckoutRequest {
	return models.CheckoutRequest{
		FullName:       "Jane Doe",
		Email:          "jane@example.com",
		Address:        "1 Main St",
		City:           "Springfield",
		PostalCode:     "12345",
		Country:        "US",
		PaymentMethod:  "paypal",
		ShippingMethod: "standard",
	}
}

func TestCheckoutRingA(t *testing.T) {
	f := newCheckoutFixture(t)
	f.seedRingA(t, 2)

	res, err := f.svc.Checkout(context.Background(), "u1", "", paypalRequest())
	require.NoError(t, err)

	assert.Equal(t, 200.0, res.Order.Total)
	assert.Equal(t, "/shop", res.Redirect)
	assert.Equal(t, 3*time.Second, res.RedirectAfter)
	assert.Regexp(t, regexp.MustCompile(`^ORD-\d+-[0-9a-f]{6}$`), res.Order.ID)

	cart, err := f.carts.GetCart(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, cart)

	var stored models.Order
	require.NoError(t, f.gw.Get(context.Background(), docstore.Orders, res.Order.ID, &stored))
	assert.Equal(t, 200.0, stored.Total)
	assert.Equal(t, models.OrderStatusPending, stored.Status)
	assert.Equal(t, models.NotificationSent, stored.NotificationStatus)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, 2, stored.Items[0].Quantity)

	require.Len(t, f.notifier.sent, 1)
	sent := f.notifier.sent[0]
	assert.Equal(t, "Ring A (2)", sent.OrderDetails)
	assert.Equal(t, 200.0, sent.TotalAmount)
	assert.Equal(t, "capturerings653@gmail.com", sent.ToShop)
	assert.Equal(t, "1 Main St, Springfield, 12345, US", sent.ShippingAddress)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, models.EventOrderCreated, f.events.events[0].Event)
	assert.Empty(t, f.outbox.bodies)
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.svc.Checkout(context.Background(), "u1", "", paypalRequest())
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Cart is empty", verr.Fields["cart"])
	assert.Zero(t, f.gw.sets)
}

func TestCheckoutCardFieldsRequiredForCredit(t *testing.T) {
	f := newCheckoutFixture(t)
	f.seedRingA(t, 1)
	req := paypalRequest()
	req.PaymentMethod = "credit"

	_, err := f.svc.Checkout(context.Background(), "u1", "", req)
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "card_number")
	assert.Contains(t, verr.Fields, "cvv")

	req.CardNumber, req.ExpiryDate, req.CVV = "4111111111111111", "12/30", "123"
	_, err = f.svc.Checkout(context.Background(), "u1", "", req)
	require.NoError(t, err)
}

func TestCheckoutPersistenceFailureKeepsCart(t *testing.T) {
	f := newCheckoutFixture(t)
	f.seedRingA(t, 1)
	f.gw.failWrites = true

	_, err := f.svc.Checkout(context.Background(), "u1", "", paypalRequest())
	assert.ErrorIs(t, err, apperrors.ErrRemoteUnavailable)
	assert.Empty(t, f.notifier.sent)

	cart, _ := f.carts.GetCart(context.Background(), "u1")
	require.NotNil(t, cart)
	assert.Equal(t, 1, cart.Count())
}

func TestCheckoutNotificationFailureQueuesOutbox(t *testing.T) {
	f := newCheckoutFixture(t)
	f.seedRingA(t, 2)
	f.notifier.err = errors.New("emailjs: 503")

	_, err := f.svc.Checkout(context.Background(), "u1", "", paypalRequest())
	assert.ErrorIs(t, err, apperrors.ErrNotificationFailure)

	cart, _ := f.carts.GetCart(context.Background(), "u1")
	require.NotNil(t, cart)
	assert.Equal(t, 2, cart.Count())

	require.Len(t, f.outbox.bodies, 1)
	assert.Equal(t, notifymodels.TypeOrderConfirmation, f.outbox.kinds[0])
	var msg notifymodels.OutboxMessage
	require.NoError(t, json.Unmarshal([]byte(f.outbox.bodies[0]), &msg))
	assert.Equal(t, 200.0, msg.Params.TotalAmount)

	var stored models.Order
	require.NoError(t, f.gw.Get(context.Background(), docstore.Orders, msg.OrderID, &stored))
	assert.Equal(t, models.NotificationFailed, stored.NotificationStatus)
	assert.Empty(t, f.events.events)
}

func TestCheckoutRetryReusesOrderID(t *testing.T) {
	f := newCheckoutFixture(t)
	f.seedRingA(t, 1)
	f.notifier.err = errors.New("timeout")

	_, err := f.svc.Checkout(context.Background(), "u1", "key-1", paypalRequest())
	require.Error(t, err)

	f.notifier.err = nil
	res, err := f.svc.Checkout(context.Background(), "u1", "key-1", paypalRequest())
	require.NoError(t, err)

	var orders []models.Order
	require.NoError(t, f.gw.List(context.Background(), docstore.Orders, &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, res.Order.ID, orders[0].ID)
	assert.Equal(t, models.NotificationSent, orders[0].NotificationStatus)
}

func TestCheckoutReplayReturnsPlacedOrder(t *testing.T) {
	f := newCheckoutFixture(t)
	f.seedRingA(t, 2)

	first, err := f.svc.Checkout(context.Background(), "u1", "key-2", paypalRequest())
	require.NoError(t, err)

	again, err := f.svc.Checkout(context.Background(), "u1", "key-2", paypalRequest())
	require.NoError(t, err)
	assert.Equal(t, first.Order.ID, again.Order.ID)
	assert.Equal(t, 200.0, again.Order.Total)
	assert.Equal(t, "/shop", again.Redirect)
	assert.Len(t, f.notifier.sent, 1)

	var orders []models.Order
	require.NoError(t, f.gw.List(context.Background(), docstore.Orders, &orders))
	assert.Len(t, orders, 1)
}

func TestCheckoutWithoutKeyStillRejectsEmptyCartAfterOrder(t *testing.T) {
	f := newCheckoutFixture(t)
	f.seedRingA(t, 1)

	_, err := f.svc.Checkout(context.Background(), "u1", "key-3", paypalRequest())
	require.NoError(t, err)

	_, err = f.svc.Checkout(context.Background(), "u1", "", paypalRequest())
	var vErr *apperrors.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "Cart is empty", vErr.Fields["cart"])
}

func TestCheckoutOrderIDFailure(t *testing.T) {
	f := newCheckoutFixture(t)
	f.seedRingA(t, 1)
	f.svc.newID = func(time.Time) (string, error) { return "", errors.New("entropy unavailable") }

	_, err := f.svc.Checkout(context.Background(), "u1", "", paypalRequest())
	require.ErrorIs(t, err, apperrors.ErrInternalServer)
	assert.Zero(t, f.gw.sets)
	assert.Empty(t, f.notifier.sent)

	cart, err := f.carts.GetCart(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, cart.IsEmpty())
}

func TestNewOrderIDFormat(t *testing.T) {
	id, err := NewOrderID(time.UnixMilli(1700000000123))
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^ORD-1700000000123-[0-9a-f]{6}$`), id)
}

func TestCartServiceAddMergesByProduct(t *testing.T) {
	gw := newCountingGateway()
	ctx := context.Background()
	id, err := gw.Create(ctx, docstore.Products, models.Product{Name: "Ring A", Price: 100, ImageURLs: []string{"u1", "u2"}})
	require.NoError(t, err)
	svc := NewCartService(newMemCarts(), gw, zap.NewNop())

	for i := 0; i < 3; i++ {
		_, err = svc.AddItem(ctx, "u1", id)
		require.NoError(t, err)
	}
	cart, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, "u1", cart.Items[0].ImageURL)
	assert.Equal(t, 300.0, cart.Total())

	cart, err = svc.SetQuantity(ctx, "u1", id, 0)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	_, err = svc.SetQuantity(ctx, "u1", "missing", 2)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.AddItem(ctx, "u1", "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
