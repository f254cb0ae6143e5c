package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/capture-backend/services/common/auth"
	"github.com/yashrajoria/capture-backend/services/notification-service/controllers"
	"github.com/yashrajoria/capture-backend/services/notification-service/middleware"
)

func RegisterRoutes(router *gin.Engine, controller *controllers.NotificationController, tokens *auth.TokenService) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": "notification-service"})
	})

	admin := router.Group("/notifications", middleware.AuthMiddleware(tokens), middleware.AdminOnly())
	{
		admin.GET("/log", controller.GetNotificationLogs)
		admin.GET("/orders/:order_id", controller.GetOrderDelivery)
	}
}
