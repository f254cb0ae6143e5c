package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/capture-backend/services/shop-service/models"
	"github.com/yashrajoria/capture-backend/services/shop-service/services"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type CheckoutController struct {
	checkout *services.CheckoutService
}

func NewCheckoutController(checkout *services.CheckoutService) *CheckoutController {
	return &CheckoutController{checkout: checkout}
}

func (cc *CheckoutController) Checkout(c *gin.Context) {
	var req models.CheckoutRequest
	if !bind(c, &req) {
		return
	}

	res, err := cc.checkout.Checkout(c.Request.Context(), currentUserID(c), c.GetHeader(IdempotencyKeyHeader), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, res)
}
