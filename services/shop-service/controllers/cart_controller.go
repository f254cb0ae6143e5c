package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/capture-backend/services/shop-service/models"
	"github.com/yashrajoria/capture-backend/services/shop-service/services"
)

type CartController struct {
	carts *services.CartService
}

func NewCartController(carts *services.CartService) *CartController {
	return &CartController{carts: carts}
}

type addItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func cartResponse(cart *models.Cart) gin.H {
	return gin.H{
		"cart":  cart,
		"total": cart.Total(),
		"count": cart.Count(),
	}
}

func (cc *CartController) GetCart(c *gin.Context) {
	cart, err := cc.carts.Get(c.Request.Context(), currentUserID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, cartResponse(cart))
}

func (cc *CartController) AddItem(c *gin.Context) {
	var req addItemRequest
	if !bind(c, &req) {
		return
	}
	cart, err := cc.carts.AddItem(c.Request.Context(), currentUserID(c), req.ProductID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, cartResponse(cart))
}

// SetQuantity removes the line when quantity <= 0.
func (cc *CartController) SetQuantity(c *gin.Context) {
	var req setQuantityRequest
	if !bind(c, &req) {
		return
	}
	cart, err := cc.carts.SetQuantity(c.Request.Context(), currentUserID(c), c.Param("product_id"), req.Quantity)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, cartResponse(cart))
}

func (cc *CartController) RemoveItem(c *gin.Context) {
	cart, err := cc.carts.Remove(c.Request.Context(), currentUserID(c), c.Param("product_id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, cartResponse(cart))
}

func (cc *CartController) ClearCart(c *gin.Context) {
	if err := cc.carts.Clear(c.Request.Context(), currentUserID(c)); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, cartResponse(models.NewCart(currentUserID(c))))
}
