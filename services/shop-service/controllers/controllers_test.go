package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/capture-backend/pkg/docstore"
	"github.com/yashrajoria/capture-backend/services/common/auth"
	apperrors "github.com/yashrajoria/capture-backend/services/common/errors"
	"github.com/yashrajoria/capture-backend/services/notification-service/sender"
	"github.com/yashrajoria/capture-backend/services/shop-service/controllers"
	"github.com/yashrajoria/capture-backend/services/shop-service/models"
	"github.com/yashrajoria/capture-backend/services/shop-service/routes"
	"github.com/yashrajoria/capture-backend/services/shop-service/services"
	"go.uber.org/zap"
)

type memStore struct {
	mu   sync.Mutex
	keys []string
}

func (m *memStore) Upload(ctx context.Context, key, contentType string, size int64, body io.Reader) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, key)
	return "https://media.test/" + key, nil
}

func (m *memStore) Delete(ctx context.Context, ref string) error { return nil }

type memCarts struct {
	mu    sync.Mutex
	carts map[string]models.Cart
}

func (m *memCarts) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[userID]
	if !ok {
		return nil, nil
	}
	c.Items = append([]models.CartItem(nil), c.Items...)
	return &c, nil
}

func (m *memCarts) SaveCart(ctx context.Context, cart *models.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *cart
	c.Items = append([]models.CartItem(nil), cart.Items...)
	m.carts[cart.UserID] = c
	return nil
}

func (m *memCarts) DeleteCart(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, userID)
	return nil
}

type okNotifier struct{}

func (okNotifier) SendOrderConfirmation(ctx context.Context, p sender.OrderConfirmation) (sender.SendResult, error) {
	return sender.SendResult{MessageID: "msg-1", SentAt: time.Now()}, nil
}

type testServer struct {
	router  *gin.Engine
	gateway *docstore.MemoryGateway
	store   *memStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	gw := docstore.NewMemoryGateway()
	_, err := gw.Create(ctx, docstore.Teams, models.Team{Name: "Team A"})
	require.NoError(t, err)

	tokens, err := auth.NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	store := &memStore{}
	carts := &memCarts{carts: map[string]models.Cart{}}
	validator := services.NewValidator()
	reconciler := services.NewReconciler(store, log)
	provider := services.NewPasswordProvider(gw, tokens, log)
	registry := services.NewSessionRegistry(ctx, provider, gw, log)
	authService := services.NewAuthService(provider, registry, gw, validator, []string{"admin@capture.test"}, log)
	packages := services.NewPackageService(gw, reconciler, validator, nil, log)
	products := services.NewProductService(gw, reconciler, validator, nil, log)
	checkout := services.NewCheckoutService(services.DefaultCheckoutConfig(), carts, gw, okNotifier{}, nil, nil, nil, validator, nil, log)

	r := gin.New()
	r.Use(apperrors.ErrorMiddleware(log))
	routes.RegisterRoutes(r, routes.Controllers{
		Auth:     controllers.NewAuthController(authService, false, log),
		Catalog:  controllers.NewCatalogController(packages, log),
		Products: controllers.NewProductController(products, log),
		Bookings: controllers.NewBookingController(services.NewBookingService(packages, gw, validator, nil, log)),
		Cart:     controllers.NewCartController(services.NewCartService(carts, gw, log)),
		Checkout: controllers.NewCheckoutController(checkout),
	}, registry, func(c *gin.Context) { c.Next() })

	return &testServer{router: r, gateway: gw, store: store}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) register(t *testing.T, email string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"email": email, "password": "secret1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var res struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res.AccessToken
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func TestAdminPackageLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "admin@capture.test")

	w := s.do(t, http.MethodPost, "/api/admin/packages", token, gin.H{
		"title": "Gold Package", "description": "Full day", "price": 500, "team": "Team A", "duration": 2,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Packages []models.Package `json:"packages"`
	}
	decode(t, w, &created)
	require.Len(t, created.Packages, 1)
	assert.Empty(t, created.Packages[0].ImageURL)
	id := created.Packages[0].ID

	w = s.do(t, http.MethodDelete, "/api/admin/packages/"+id, token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, "/api/admin/packages/"+id+"?confirm=true", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var deleted struct {
		Packages []models.Package `json:"packages"`
	}
	decode(t, w, &deleted)
	assert.Empty(t, deleted.Packages)
}

func TestCreatePackageValidationFields(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "admin@capture.test")

	w := s.do(t, http.MethodPost, "/api/admin/packages", token, gin.H{
		"title": "", "description": "Full day", "price": 0, "team": "Team A", "duration": 2,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	decode(t, w, &body)
	assert.Equal(t, "Title is required", body.Fields["title"])
	assert.Equal(t, "Price is required", body.Fields["price"])

	var pkgs []models.Package
	require.NoError(t, s.gateway.List(context.Background(), docstore.Packages, &pkgs))
	assert.Empty(t, pkgs)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/admin/packages", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := s.register(t, "jane@example.com")
	w = s.do(t, http.MethodGet, "/api/admin/packages", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "jane@example.com")

	w = s.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateProductMultipart(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "admin@capture.test")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "Ring A"))
	require.NoError(t, mw.WriteField("price", "100"))
	for _, name := range []string{"front.jpg", "side.jpg"} {
		fw, err := mw.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte("img"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/products", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var res struct {
		Products []models.Product `json:"products"`
	}
	decode(t, w, &res)
	require.Len(t, res.Products, 1)
	assert.Equal(t, []string{
		"https://media.test/productImages/front.jpg",
		"https://media.test/productImages/side.jpg",
	}, res.Products[0].ImageURLs)

	w = s.do(t, http.MethodGet, "/api/products/"+res.Products[0].ID+"?image=https://media.test/productImages/side.jpg", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail map[string]interface{}
	decode(t, w, &detail)
	assert.Equal(t, "https://media.test/productImages/front.jpg", detail["next_image"])
	assert.Equal(t, "https://media.test/productImages/front.jpg", detail["primary_image"])
}

func TestCartCheckoutFlow(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	productID, err := s.gateway.Create(ctx, docstore.Products, models.Product{Name: "Ring A", Price: 100})
	require.NoError(t, err)
	token := s.register(t, "jane@example.com")

	for i := 0; i < 2; i++ {
		w := s.do(t, http.MethodPost, "/api/cart/items", token, gin.H{"product_id": productID})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := s.do(t, http.MethodPost, "/api/checkout", token, gin.H{
		"full_name": "Jane Doe", "email": "jane@example.com", "address": "1 Main St",
		"city": "Springfield", "postal_code": "12345", "country": "US",
		"payment_method": "paypal", "shipping_method": "express",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var res struct {
		Order           models.Order `json:"order"`
		Redirect        string       `json:"redirect"`
		RedirectAfterMs int64        `json:"redirect_after_ms"`
	}
	decode(t, w, &res)
	assert.Equal(t, 200.0, res.Order.Total)
	assert.Equal(t, "/shop", res.Redirect)
	assert.Equal(t, int64(3000), res.RedirectAfterMs)
	assert.True(t, strings.HasPrefix(res.Order.ID, "ORD-"))

	w = s.do(t, http.MethodGet, "/api/cart", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cart struct {
		Total float64 `json:"total"`
		Count int     `json:"count"`
	}
	decode(t, w, &cart)
	assert.Zero(t, cart.Count)
	assert.Zero(t, cart.Total)
}

func TestCatalogTeamFilter(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "admin@capture.test")
	w := s.do(t, http.MethodPost, "/api/admin/teams", token, gin.H{"name": "Team B"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	for _, team := range []string{"Team A", "Team B"} {
		w = s.do(t, http.MethodPost, "/api/admin/packages", token, gin.H{
			"title": "Pkg " + team, "description": "d", "price": 100, "team": team, "duration": 1,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodGet, "/api/catalog/packages?team=Team+B", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		Packages []models.Package `json:"packages"`
	}
	decode(t, w, &res)
	require.Len(t, res.Packages, 1)
	assert.Equal(t, "Team B", res.Packages[0].Team)

	w = s.do(t, http.MethodGet, "/api/catalog/packages?team=All", "", nil)
	decode(t, w, &res)
	assert.Len(t, res.Packages, 2)
}
