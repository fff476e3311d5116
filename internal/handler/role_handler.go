package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/internal/service"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
	"github.com/noah-isme/lms-api/pkg/response"
)

// GrantPermissionRequest names the permission to grant to a role.
type GrantPermissionRequest struct {
	Permission string `json:"permission" binding:"required"`
}

// RoleHandler exposes the role-permission registry to administrators.
type RoleHandler struct {
	authz  *service.AuthzService
	audit  *service.AuditService
	logger *zap.Logger
}

// NewRoleHandler constructs a role handler.
func NewRoleHandler(authz *service.AuthzService, audit *service.AuditService, logger *zap.Logger) *RoleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoleHandler{authz: authz, audit: audit, logger: logger}
}

// List godoc
// @Summary List roles
// @Tags Roles
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /roles [get]
func (h *RoleHandler) List(c *gin.Context) {
	roles, err := h.authz.Roles(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roles)
}

// Permissions godoc
// @Summary List permissions granted to a role
// @Tags Roles
// @Produce json
// @Param name path string true "Role name"
// @Success 200 {object} response.Envelope
// @Router /roles/{name}/permissions [get]
func (h *RoleHandler) Permissions(c *gin.Context) {
	perms, err := h.authz.PermissionsOf(c.Request.Context(), c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, perms)
}

// Grant godoc
// @Summary Grant a permission to a role
// @Tags Roles
// @Accept json
// @Produce json
// @Param name path string true "Role name"
// @Param payload body GrantPermissionRequest true "Permission to grant"
// @Success 204
// @Router /roles/{name}/permissions [post]
func (h *RoleHandler) Grant(c *gin.Context) {
	var req GrantPermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	role := c.Param("name")
	if err := h.authz.Grant(c.Request.Context(), role, req.Permission); err != nil {
		response.Error(c, err)
		return
	}

	h.record(c, models.AuditActionPermissionGrant, fmt.Sprintf("permission %q granted to role %q", req.Permission, role))
	response.NoContent(c)
}

// Revoke godoc
// @Summary Revoke a permission from a role
// @Tags Roles
// @Produce json
// @Param name path string true "Role name"
// @Param permission path string true "Permission name"
// @Success 204
// @Router /roles/{name}/permissions/{permission} [delete]
func (h *RoleHandler) Revoke(c *gin.Context) {
	role := c.Param("name")
	permission := c.Param("permission")
	if err := h.authz.Revoke(c.Request.Context(), role, permission); err != nil {
		response.Error(c, err)
		return
	}

	h.record(c, models.AuditActionPermissionRevoke, fmt.Sprintf("permission %q revoked from role %q", permission, role))
	response.NoContent(c)
}

func (h *RoleHandler) record(c *gin.Context, action, details string) {
	identity := identityFromContext(c)
	if h.audit == nil || identity == nil {
		return
	}
	if _, err := h.audit.Record(c.Request.Context(), identity.UserID, action, details, identity.SourceAddr); err != nil {
		h.logger.Warn("failed to record registry audit log", zap.String("action", action), zap.Error(err))
	}
}
