package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-api/internal/service"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
	"github.com/noah-isme/lms-api/pkg/response"
)

// AuthzOptions tunes the permission gate.
type AuthzOptions struct {
	// ExposeDeniedPermission names the missing permission in 403 bodies.
	// Off by default so denials leak nothing about route requirements.
	ExposeDeniedPermission bool
	Metrics                *service.MetricsService
}

// RequirePermission gates a route on the caller's role holding the given
// permission. The registry is consulted on every request; denial short-circuits
// before any handler work.
func RequirePermission(authz *service.AuthzService, permission string, opts AuthzOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := Identity(c)
		if identity == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		allowed, err := authz.Authorize(c.Request.Context(), identity.Role, permission)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		if opts.Metrics != nil {
			opts.Metrics.ObserveAuthzDecision(allowed)
		}

		if !allowed {
			denied := appErrors.ErrForbidden
			if opts.ExposeDeniedPermission {
				denied = appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("permission denied: missing %q", permission))
			}
			response.Error(c, denied)
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireRoles gates a route on the caller holding one of the listed roles.
// Used for the administrative surface where the original gated on role names
// directly.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *gin.Context) {
		identity := Identity(c)
		if identity == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowed[identity.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}
