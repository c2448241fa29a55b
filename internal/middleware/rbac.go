package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gate-violation-api/internal/models"
	appErrors "github.com/noah-isme/gate-violation-api/pkg/errors"
	"github.com/noah-isme/gate-violation-api/pkg/response"
)

// RequireRoles allows the request through only for the listed staff roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := CurrentClaims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentClaims returns the staff claims stored by JWT, or nil on an unauthenticated request.
func CurrentClaims(c *gin.Context) *models.JWTClaims {
	claims, _ := c.Get(ContextUserKey)
	typed, _ := claims.(*models.JWTClaims)
	return typed
}
