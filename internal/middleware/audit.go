package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/service"
)

// Audit records an audit entry after a successful request on read routes. The
// write happens on the request path, after the handler; failures are warned
// and do not affect the already-served response.
func Audit(audit *service.AuditService, logger *zap.Logger, action string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		identity := Identity(c)
		if identity == nil {
			return
		}

		details := fmt.Sprintf("%s %s", c.Request.Method, c.FullPath())
		if _, err := audit.Record(c.Request.Context(), identity.UserID, action, details, identity.SourceAddr); err != nil {
			logger.Warn("failed to record audit log",
				zap.String("action", action),
				zap.Error(err),
			)
		}
	}
}
