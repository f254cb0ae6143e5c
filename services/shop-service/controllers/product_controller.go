package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/capture-backend/services/shop-service/models"
	"github.com/yashrajoria/capture-backend/services/shop-service/services"
	"go.uber.org/zap"
)

type ProductController struct {
	products *services.ProductService
	logger   *zap.Logger
}

func NewProductController(products *services.ProductService, logger *zap.Logger) *ProductController {
	return &ProductController{products: products, logger: logger}
}

func (pc *ProductController) ListProducts(c *gin.Context) {
	products, err := pc.products.List(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// GetProduct includes carousel neighbours of ?image= (the primary image when absent).
func (pc *ProductController) GetProduct(c *gin.Context) {
	p, err := pc.products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	current := c.Query("image")
	if current == "" {
		current = p.PrimaryImage()
	}
	c.JSON(http.StatusOK, gin.H{
		"product":        p,
		"primary_image":  p.PrimaryImage(),
		"current_image":  current,
		"next_image":     p.AdjacentImage(current, 1),
		"previous_image": p.AdjacentImage(current, -1),
	})
}

func (pc *ProductController) CreateProduct(c *gin.Context) {
	var form models.ProductForm
	if !bind(c, &form) {
		return
	}

	products, err := pc.products.Create(c.Request.Context(), form, formFiles(c, "images"))
	if err != nil {
		c.Error(err)
		return
	}
	pc.logger.Info("Product created", zap.String("name", form.Name), zap.String("userID", currentUserID(c)))
	c.JSON(http.StatusCreated, gin.H{"products": products})
}

type updateProductRequest struct {
	models.ProductForm
	RemovedImages []string `json:"removed_images" form:"removed_images"`
}

func (pc *ProductController) UpdateProduct(c *gin.Context) {
	var req updateProductRequest
	if !bind(c, &req) {
		return
	}

	id := c.Param("id")
	products, err := pc.products.Update(c.Request.Context(), id, req.ProductForm, formFiles(c, "images"), req.RemovedImages)
	if err != nil {
		c.Error(err)
		return
	}
	pc.logger.Info("Product updated", zap.String("productID", id), zap.String("userID", currentUserID(c)))
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (pc *ProductController) DeleteProduct(c *gin.Context) {
	if !confirmed(c) {
		return
	}
	id := c.Param("id")
	products, err := pc.products.Delete(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	pc.logger.Info("Product deleted", zap.String("productID", id), zap.String("userID", currentUserID(c)))
	c.JSON(http.StatusOK, gin.H{"products": products})
}
