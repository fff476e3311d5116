package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/internal/service"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
	"github.com/noah-isme/lms-api/pkg/response"
)

// ContextUserKey is the gin context key storing the resolved caller identity.
const ContextUserKey = "currentUser"

// Identity returns the caller identity stored on the context, if any.
func Identity(c *gin.Context) *models.CallerIdentity {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	identity, ok := value.(*models.CallerIdentity)
	if !ok {
		return nil
	}
	return identity
}

// JWT protects routes by requiring a valid bearer token and resolves the
// caller identity from its claims.
func JWT(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, &models.CallerIdentity{
			UserID:     claims.UserID,
			Username:   claims.Username,
			Role:       claims.Role,
			SourceAddr: c.ClientIP(),
		})
		c.Next()
	}
}
