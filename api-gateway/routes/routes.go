package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/capture-backend/api-gateway/utils"
)

type Upstreams struct {
	Shop          *utils.Forwarder
	Notifications *utils.Forwarder
}

var credentialPaths = map[string]bool{
	"/api/auth/login":    true,
	"/api/auth/register": true,
}

// RegisterAllRoutes mounts the public surface. Authorization stays with the
// upstream services, which verify the same tokens.
func RegisterAllRoutes(r *gin.Engine, up Upstreams, authLimit gin.HandlerFunc) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": "api-gateway"})
	})

	r.Any("/api/*any", limitCredentials(authLimit), up.Shop.Handle)
	r.Any("/notifications/*any", up.Notifications.Handle)
}

// limitCredentials applies limit to login and registration posts only.
func limitCredentials(limit gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodPost && credentialPaths[c.Request.URL.Path] {
			limit(c)
			return
		}
		c.Next()
	}
}
