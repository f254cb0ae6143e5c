package routes

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/capture-backend/api-gateway/utils"
	"github.com/yashrajoria/capture-backend/services/common/middleware"
	"go.uber.org/zap"
)

func setupGateway(t *testing.T, shop, notifications http.Handler, limit gin.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	shopSrv := httptest.NewServer(shop)
	t.Cleanup(shopSrv.Close)
	notifySrv := httptest.NewServer(notifications)
	t.Cleanup(notifySrv.Close)

	if limit == nil {
		limit = func(c *gin.Context) { c.Next() }
	}
	r := gin.New()
	r.Use(middleware.RequestID())
	RegisterAllRoutes(r, Upstreams{
		Shop:          utils.NewForwarder(shopSrv.URL, zap.NewNop()),
		Notifications: utils.NewForwarder(notifySrv.URL, zap.NewNop()),
	}, limit)
	return r
}

func TestGateway_ForwardsShopRequests(t *testing.T) {
	var gotPath, gotQuery, gotAuth, gotRID, gotBody string
	shop := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		gotRID = r.Header.Get(middleware.RequestIDHeader)
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	r := setupGateway(t, shop, http.NotFoundHandler(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/cart/items?x=1", strings.NewReader(`{"product_id":"p1"}`))
	req.Header.Set("Authorization", "Bearer tok")
	req.Header.Set(middleware.RequestIDHeader, "rid-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
	assert.Equal(t, "/api/cart/items", gotPath)
	assert.Equal(t, "x=1", gotQuery)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "rid-1", gotRID)
	assert.Equal(t, `{"product_id":"p1"}`, gotBody)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestGateway_ForwardsNotificationRequests(t *testing.T) {
	var gotPath string
	notify := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	})
	r := setupGateway(t, http.NotFoundHandler(), notify, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/notifications/log", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/notifications/log", gotPath)
}

func TestGateway_UnreachableUpstream(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	down := utils.NewForwarder("http://127.0.0.1:1", zap.NewNop())
	down.Client.Timeout = time.Second
	RegisterAllRoutes(r, Upstreams{Shop: down, Notifications: down}, func(c *gin.Context) { c.Next() })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "service unreachable")
}

func TestGateway_RateLimitsCredentialPosts(t *testing.T) {
	calls := 0
	shop := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})
	limiter := middleware.NewRateLimiter(middleware.PerMinute(1), 1, time.Minute)
	r := setupGateway(t, shop, http.NotFoundHandler(), limiter.Middleware())

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{}`)))
		codes = append(codes, w.Code)
	}
	require.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, 4, calls)
}
