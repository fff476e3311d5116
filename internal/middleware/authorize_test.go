package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// grantTable satisfies the authz service's registry dependency with a fixed
// role to permission-set mapping.
type grantTable map[string][]string

func (g grantTable) ListRoles(ctx context.Context) ([]models.Role, error) {
	roles := []models.Role{}
	for name := range g {
		roles = append(roles, models.Role{ID: name, Name: name})
	}
	return roles, nil
}

func (g grantTable) FindRoleByName(ctx context.Context, name string) (*models.Role, error) {
	if _, ok := g[name]; !ok {
		return nil, sql.ErrNoRows
	}
	return &models.Role{ID: name, Name: name}, nil
}

func (g grantTable) FindPermissionByName(ctx context.Context, name string) (*models.Permission, error) {
	return &models.Permission{ID: name, Name: name}, nil
}

func (g grantTable) PermissionsOf(ctx context.Context, roleName string) ([]string, error) {
	perms := g[roleName]
	if perms == nil {
		perms = []string{}
	}
	return perms, nil
}

func (g grantTable) Grant(ctx context.Context, roleID, permissionID string) error  { return nil }
func (g grantTable) Revoke(ctx context.Context, roleID, permissionID string) error { return nil }

func (g grantTable) EnsureRole(ctx context.Context, name string) (*models.Role, error) {
	return &models.Role{ID: name, Name: name}, nil
}

func (g grantTable) EnsurePermission(ctx context.Context, name string) (*models.Permission, error) {
	return &models.Permission{ID: name, Name: name}, nil
}

func identityInjector(identity *models.CallerIdentity) gin.HandlerFunc {
	return func(c *gin.Context) {
		if identity != nil {
			c.Set(ContextUserKey, identity)
		}
		c.Next()
	}
}

func permissionRouter(identity *models.CallerIdentity, permission string, opts AuthzOptions) *gin.Engine {
	authz := service.NewAuthzService(grantTable{
		models.RoleInstructor: {models.PermViewCourses, models.PermViewCourse},
		models.RoleStudent:    {models.PermViewCourses},
	}, zap.NewNop())

	r := gin.New()
	r.GET("/protected", identityInjector(identity), RequirePermission(authz, permission, opts), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRequirePermissionAllows(t *testing.T) {
	r := permissionRouter(&models.CallerIdentity{UserID: "u1", Role: models.RoleInstructor}, models.PermViewCourse, AuthzOptions{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequirePermissionDenies(t *testing.T) {
	r := permissionRouter(&models.CallerIdentity{UserID: "u2", Role: models.RoleStudent}, models.PermViewCourse, AuthzOptions{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "permission denied")
	assert.NotContains(t, w.Body.String(), models.PermViewCourse)
}

func TestRequirePermissionExposesDeniedPermissionWhenConfigured(t *testing.T) {
	r := permissionRouter(&models.CallerIdentity{UserID: "u2", Role: models.RoleStudent}, models.PermViewCourse, AuthzOptions{ExposeDeniedPermission: true})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), models.PermViewCourse)
}

func TestRequirePermissionUnknownRoleDenied(t *testing.T) {
	r := permissionRouter(&models.CallerIdentity{UserID: "u3", Role: "ghost"}, models.PermViewCourses, AuthzOptions{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequirePermissionWithoutIdentity(t *testing.T) {
	r := permissionRouter(nil, models.PermViewCourses, AuthzOptions{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRoles(t *testing.T) {
	newRouter := func(identity *models.CallerIdentity) *gin.Engine {
		r := gin.New()
		r.GET("/admin", identityInjector(identity), RequireRoles(models.RoleAdmin), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		return r
	}

	w := httptest.NewRecorder()
	newRouter(&models.CallerIdentity{Role: models.RoleAdmin}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	newRouter(&models.CallerIdentity{Role: models.RoleInstructor}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	newRouter(nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
