package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/capture-backend/services/shop-service/controllers"
	"github.com/yashrajoria/capture-backend/services/shop-service/middleware"
)

type Controllers struct {
	Auth     *controllers.AuthController
	Catalog  *controllers.CatalogController
	Products *controllers.ProductController
	Bookings *controllers.BookingController
	Cart     *controllers.CartController
	Checkout *controllers.CheckoutController
}

// RegisterRoutes mounts the API under /api. authLimit guards the credential endpoints.
func RegisterRoutes(router *gin.Engine, ctrl Controllers, resolver middleware.IdentityResolver, authLimit gin.HandlerFunc) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": "shop-service"})
	})

	api := router.Group("/api")
	authenticated := middleware.Authenticate(resolver)

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", authLimit, ctrl.Auth.Register)
		authRoutes.POST("/login", authLimit, ctrl.Auth.Login)
		authRoutes.POST("/logout", authenticated, ctrl.Auth.Logout)
		authRoutes.GET("/me", authenticated, ctrl.Auth.Me)
	}

	catalog := api.Group("/catalog")
	{
		catalog.GET("/packages", ctrl.Catalog.ListPackages)
		catalog.GET("/teams", ctrl.Catalog.ListTeams)
	}

	products := api.Group("/products")
	{
		products.GET("", ctrl.Products.ListProducts)
		products.GET("/:id", ctrl.Products.GetProduct)
	}

	bookings := api.Group("/bookings", authenticated)
	{
		bookings.POST("/select", ctrl.Bookings.SelectPackage)
		bookings.POST("", ctrl.Bookings.SubmitBooking)
	}

	cart := api.Group("/cart", authenticated)
	{
		cart.GET("", ctrl.Cart.GetCart)
		cart.DELETE("", ctrl.Cart.ClearCart)
		cart.POST("/items", ctrl.Cart.AddItem)
		cart.PUT("/items/:product_id", ctrl.Cart.SetQuantity)
		cart.DELETE("/items/:product_id", ctrl.Cart.RemoveItem)
	}

	api.POST("/checkout", authenticated, ctrl.Checkout.Checkout)

	admin := api.Group("/admin", authenticated, middleware.AdminOnly())
	{
		admin.GET("/packages", ctrl.Catalog.ListPackages)
		admin.POST("/packages", ctrl.Catalog.CreatePackage)
		admin.PUT("/packages/:id", ctrl.Catalog.UpdatePackage)
		admin.DELETE("/packages/:id", ctrl.Catalog.DeletePackage)

		admin.GET("/products", ctrl.Products.ListProducts)
		admin.POST("/products", ctrl.Products.CreateProduct)
		admin.PUT("/products/:id", ctrl.Products.UpdateProduct)
		admin.DELETE("/products/:id", ctrl.Products.DeleteProduct)

		admin.GET("/teams", ctrl.Catalog.ListTeams)
		admin.POST("/teams", ctrl.Catalog.CreateTeam)
	}
}
