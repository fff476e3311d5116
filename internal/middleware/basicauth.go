package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/internal/service"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
	"github.com/noah-isme/lms-api/pkg/response"
)

// BasicAuth protects routes with HTTP basic credentials checked against the
// credential store on every request.
func BasicAuth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, password, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", `Basic realm="lms-api"`)
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		user, err := authService.Verify(c.Request.Context(), username, password)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, &models.CallerIdentity{
			UserID:     user.ID,
			Username:   user.Username,
			Role:       user.Role,
			SourceAddr: c.ClientIP(),
		})
		c.Next()
	}
}
