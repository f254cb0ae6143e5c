package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/capture-backend/services/common/auth"
	apperrors "github.com/yashrajoria/capture-backend/services/common/errors"
	"github.com/yashrajoria/capture-backend/services/shop-service/services"
)

const (
	SessionCookie = "capture_session"

	IdentityContextKey = "identity"
	UserContextKey     = "userID"
	RoleContextKey     = "role"
)

// IdentityResolver is satisfied by *services.SessionRegistry.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*services.Identity, error)
}

// Authenticate resolves the bearer token (or session cookie) to the session's
// merged identity.
func Authenticate(resolver IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token, _ = c.Cookie(SessionCookie)
		}
		if token == "" {
			c.Error(apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		identity, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			c.Error(err)
			c.Abort()
			return
		}

		c.Set(IdentityContextKey, identity)
		c.Set(UserContextKey, identity.UID)
		c.Set(RoleContextKey, identity.Role)
		c.Next()
	}
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetIdentity(c).IsAdmin() {
			c.Error(apperrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetIdentity returns the identity set by Authenticate, or nil.
func GetIdentity(c *gin.Context) *services.Identity {
	v, ok := c.Get(IdentityContextKey)
	if !ok {
		return nil
	}
	identity, _ := v.(*services.Identity)
	return identity
}
