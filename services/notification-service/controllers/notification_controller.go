package controllers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/capture-backend/pkg/docstore"
	apperrors "github.com/yashrajoria/capture-backend/services/common/errors"
	"github.com/yashrajoria/capture-backend/services/notification-service/models"
	"github.com/yashrajoria/capture-backend/services/notification-service/services"
	"go.uber.org/zap"
)

type NotificationController struct {
	notificationService services.NotificationService
	logger              *zap.Logger
}

func NewNotificationController(svc services.NotificationService, logger *zap.Logger) *NotificationController {
	return &NotificationController{notificationService: svc, logger: logger}
}

const (
	maxPageSize     = 100
	defaultPageSize = 20
)

var logStatuses = map[string]bool{"": true, models.StatusSent: true, models.StatusFailed: true}

func logFilter(c *gin.Context) (models.NotificationFilter, error) {
	f := models.NotificationFilter{
		OrderID:  c.Query("order_id"),
		Status:   c.Query("status"),
		Page:     1,
		PageSize: defaultPageSize,
	}
	if !logStatuses[f.Status] {
		return f, apperrors.NewValidationError(map[string]string{"status": "Status must be sent or failed"})
	}
	if p, err := strconv.Atoi(c.Query("page")); err == nil && p > 0 {
		f.Page = p
	}
	if l, err := strconv.Atoi(c.Query("page_size")); err == nil && l > 0 {
		f.PageSize = min(l, maxPageSize)
	}
	return f, nil
}

// GetNotificationLogs lists delivery attempts, optionally filtered by order_id and status.
func (cc *NotificationController) GetNotificationLogs(c *gin.Context) {
	filter, err := logFilter(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	logs, total, err := cc.notificationService.GetLogs(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(apperrors.Wrap(apperrors.ErrServiceUnavailable, err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":        logs,
		"total":       total,
		"page":        filter.Page,
		"page_size":   filter.PageSize,
		"total_pages": int(math.Ceil(float64(total) / float64(filter.PageSize))),
	})
}

// GetOrderDelivery shows whether an order's confirmation went out.
func (cc *NotificationController) GetOrderDelivery(c *gin.Context) {
	status, err := cc.notificationService.OrderDelivery(c.Request.Context(), c.Param("order_id"))
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		_ = c.Error(apperrors.Wrapf(apperrors.ErrNotFound, "order %s", c.Param("order_id")))
		return
	case err != nil:
		_ = c.Error(apperrors.Wrap(apperrors.ErrServiceUnavailable, err))
		return
	}
	c.JSON(http.StatusOK, status)
}
