package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/service"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
	"github.com/noah-isme/lms-api/pkg/ratelimit"
	"github.com/noah-isme/lms-api/pkg/response"
)

// RateLimit enforces a fixed-window quota per client address for one route.
// It runs before authorization. A limiter backend failure fails open with a
// warning: dropping traffic on a Redis outage would turn a throttling aid
// into an outage of its own.
func RateLimit(limiter *ratelimit.Limiter, metrics *service.MetricsService, logger *zap.Logger, route string, perWindow int) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if limiter == nil || perWindow <= 0 {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:%s:%s", route, c.ClientIP())
		allowed, err := limiter.Allow(c.Request.Context(), key, perWindow)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.String("route", route), zap.Error(err))
			c.Next()
			return
		}

		if !allowed {
			if metrics != nil {
				metrics.ObserveRateLimitRejection(route)
			}
			response.Error(c, appErrors.ErrRateLimited)
			c.Abort()
			return
		}

		c.Next()
	}
}
