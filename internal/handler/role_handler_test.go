package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/internal/service"
)

func roleRouter(registry *memRegistry, audits *memAudits) *gin.Engine {
	users := newMemUsers(&models.User{ID: "admin-id", Username: "admin", Role: models.RoleAdmin})
	authzSvc := service.NewAuthzService(registry, zap.NewNop())
	auditSvc := service.NewAuditService(audits, users, nil, zap.NewNop())
	h := NewRoleHandler(authzSvc, auditSvc, zap.NewNop())

	r := gin.New()
	r.Use(asUser(adminIdentity()))
	r.GET("/roles", h.List)
	r.GET("/roles/:name/permissions", h.Permissions)
	r.POST("/roles/:name/permissions", h.Grant)
	r.DELETE("/roles/:name/permissions/:permission", h.Revoke)
	return r
}

func defaultRegistry() *memRegistry {
	return newMemRegistry(map[string][]string{
		models.RoleAdmin:      models.AllPermissions,
		models.RoleInstructor: {models.PermViewCourses, models.PermViewCourse},
		models.RoleStudent:    {models.PermViewCourses},
	})
}

func TestRoleList(t *testing.T) {
	r := roleRouter(defaultRegistry(), &memAudits{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/roles", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []models.Role `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data, 3)
}

func TestRolePermissions(t *testing.T) {
	r := roleRouter(defaultRegistry(), &memAudits{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/roles/instructor/permissions", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.ElementsMatch(t, []string{models.PermViewCourses, models.PermViewCourse}, body.Data)
}

func TestRoleGrant(t *testing.T) {
	registry := defaultRegistry()
	audits := &memAudits{}
	r := roleRouter(registry, audits)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/roles/instructor/permissions", strings.NewReader(`{"permission":"create_course"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, registry.grants[models.RoleInstructor][models.PermCreateCourse])
	require.Len(t, audits.entries, 1)
	assert.Equal(t, models.AuditActionPermissionGrant, audits.entries[0].Action)
}

func TestRoleGrantUnknownRole(t *testing.T) {
	r := roleRouter(defaultRegistry(), &memAudits{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/roles/ghost/permissions", strings.NewReader(`{"permission":"view_courses"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "role not found")
}

func TestRoleGrantUnknownPermission(t *testing.T) {
	r := roleRouter(defaultRegistry(), &memAudits{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/roles/student/permissions", strings.NewReader(`{"permission":"launch_rockets"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "permission not found")
}

func TestRoleGrantMissingPayload(t *testing.T) {
	r := roleRouter(defaultRegistry(), &memAudits{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/roles/student/permissions", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoleRevoke(t *testing.T) {
	registry := defaultRegistry()
	audits := &memAudits{}
	r := roleRouter(registry, audits)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/roles/instructor/permissions/view_course", nil))

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.False(t, registry.grants[models.RoleInstructor][models.PermViewCourse])
	require.Len(t, audits.entries, 1)
	assert.Equal(t, models.AuditActionPermissionRevoke, audits.entries[0].Action)
}
