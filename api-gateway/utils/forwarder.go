package utils

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/capture-backend/services/common/logger"
	"github.com/yashrajoria/capture-backend/services/common/middleware"
	"go.uber.org/zap"
)

var hopByHop = map[string]bool{
	"connection":          true,
	"keep-alive":          true,
	"proxy-authenticate":  true,
	"proxy-authorization": true,
	"te":                  true,
	"trailers":            true,
	"transfer-encoding":   true,
	"upgrade":             true,
}

// Forwarder relays requests to one upstream service, keeping the original path.
type Forwarder struct {
	TargetBase string
	Client     *http.Client
	Log        *zap.Logger
}

func NewForwarder(targetBase string, log *zap.Logger) *Forwarder {
	return &Forwarder{
		TargetBase: strings.TrimSuffix(targetBase, "/"),
		Client:     &http.Client{Timeout: 30 * time.Second},
		Log:        log,
	}
}

func (f *Forwarder) Handle(c *gin.Context) {
	log := logger.For(c.Request.Context(), f.Log)

	targetURL := f.TargetBase + c.Request.URL.Path
	if c.Request.URL.RawQuery != "" {
		targetURL += "?" + c.Request.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, targetURL, c.Request.Body)
	if err != nil {
		log.Error("Failed to create forward request", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create request"})
		return
	}
	req.ContentLength = c.Request.ContentLength

	for k, v := range c.Request.Header {
		if hopByHop[strings.ToLower(k)] {
			continue
		}
		req.Header[k] = v
	}
	if rid := c.GetString("request_id"); rid != "" {
		req.Header.Set(middleware.RequestIDHeader, rid)
	}
	req.Header.Set("X-Forwarded-For", c.ClientIP())

	resp, err := f.Client.Do(req)
	if err != nil {
		log.Error("Failed to forward request", zap.String("url", targetURL), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "service unreachable"})
		return
	}
	defer resp.Body.Close()

	// CORS belongs to the gateway's own middleware.
	for k, v := range resp.Header {
		lower := strings.ToLower(k)
		if strings.HasPrefix(lower, "access-control-") || hopByHop[lower] {
			continue
		}
		if strings.EqualFold(k, middleware.RequestIDHeader) {
			continue
		}
		for _, val := range v {
			c.Writer.Header().Add(k, val)
		}
	}

	c.Status(resp.StatusCode)
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		log.Warn("Failed to copy response body", zap.Error(err))
	}
}
