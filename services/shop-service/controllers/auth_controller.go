package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/capture-backend/services/shop-service/middleware"
	"github.com/yashrajoria/capture-backend/services/shop-service/models"
	"github.com/yashrajoria/capture-backend/services/shop-service/services"
	"go.uber.org/zap"
)

type AuthController struct {
	authService  *services.AuthService
	secureCookie bool
	logger       *zap.Logger
}

func NewAuthController(authService *services.AuthService, secureCookie bool, logger *zap.Logger) *AuthController {
	return &AuthController{authService: authService, secureCookie: secureCookie, logger: logger}
}

func (ac *AuthController) setSessionCookie(c *gin.Context, token string, expires time.Time) {
	maxAge := int(time.Until(expires).Seconds())
	if token == "" {
		maxAge = -1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, maxAge, "/", "", ac.secureCookie, true)
}

func (ac *AuthController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bind(c, &req) {
		return
	}

	res, err := ac.authService.Register(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	ac.setSessionCookie(c, res.AccessToken, res.ExpiresAt)
	c.JSON(http.StatusCreated, res)
}

func (ac *AuthController) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bind(c, &req) {
		return
	}

	res, err := ac.authService.Login(c.Request.Context(), req)
	if err != nil {
		ac.logger.Info("Login failed", zap.String("email", req.Email), zap.Error(err))
		c.Error(err)
		return
	}
	ac.setSessionCookie(c, res.AccessToken, res.ExpiresAt)
	c.JSON(http.StatusOK, res)
}

func (ac *AuthController) Logout(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	if err := ac.authService.Logout(c.Request.Context(), identity.SessionID); err != nil {
		c.Error(err)
		return
	}
	ac.setSessionCookie(c, "", time.Time{})
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

func (ac *AuthController) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": middleware.GetIdentity(c)})
}
