package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/complaint-desk/internal/access"
	"github.com/noah-isme/complaint-desk/internal/models"
	appErrors "github.com/noah-isme/complaint-desk/pkg/errors"
	"github.com/noah-isme/complaint-desk/pkg/response"
)

// ContextUserKey is the gin context key storing session claims.
const ContextUserKey = "currentUser"

// TokenValidator resolves a bearer token into session claims.
type TokenValidator interface {
	ValidateToken(token string) (*models.SessionClaims, error)
}

// JWT requires a valid session token on the request.
func JWT(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing or malformed authorization header"))
			c.Abort()
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// RequireCapability lets the request through only when the session holds every capability.
func RequireCapability(policy access.Policy, caps ...access.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		account := claims.Account()
		for _, capability := range caps {
			if !policy.Allows(account, capability) {
				response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "missing capability "+string(capability)))
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

// Claims returns the session claims stored by JWT.
func Claims(c *gin.Context) (*models.SessionClaims, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*models.SessionClaims)
	return claims, ok && claims != nil
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
