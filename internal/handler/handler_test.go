package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/lms-api/internal/middleware"
	"github.com/noah-isme/lms-api/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// In-memory fakes for the service-layer storage dependencies. Each mirrors
// the behavior of its sqlx counterpart closely enough for handler tests:
// sql.ErrNoRows on misses, generated ids on insert.

type memUsers struct {
	byUsername map[string]*models.User
}

func newMemUsers(users ...*models.User) *memUsers {
	m := &memUsers{byUsername: make(map[string]*models.User)}
	for _, u := range users {
		m.byUsername[u.Username] = u
	}
	return m
}

func (m *memUsers) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	user, ok := m.byUsername[username]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *memUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	for _, user := range m.byUsername {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memUsers) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, ok := m.byUsername[username]
	return ok, nil
}

func (m *memUsers) Create(ctx context.Context, user *models.User) error {
	user.ID = uuid.NewString()
	m.byUsername[user.Username] = user
	return nil
}

type memCourses struct {
	byID map[string]*models.Course
}

func newMemCourses(courses ...*models.Course) *memCourses {
	m := &memCourses{byID: make(map[string]*models.Course)}
	for _, c := range courses {
		m.byID[c.ID] = c
	}
	return m
}

func (m *memCourses) List(ctx context.Context) ([]models.Course, error) {
	courses := make([]models.Course, 0, len(m.byID))
	for _, c := range m.byID {
		courses = append(courses, *c)
	}
	return courses, nil
}

func (m *memCourses) FindByID(ctx context.Context, id string) (*models.Course, error) {
	course, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *course
	return &clone, nil
}

func (m *memCourses) Create(ctx context.Context, course *models.Course) error {
	course.ID = uuid.NewString()
	clone := *course
	m.byID[course.ID] = &clone
	return nil
}

func (m *memCourses) Update(ctx context.Context, course *models.Course) error {
	clone := *course
	m.byID[course.ID] = &clone
	return nil
}

func (m *memCourses) Delete(ctx context.Context, id string) error {
	delete(m.byID, id)
	return nil
}

type memAudits struct {
	entries []models.AuditLog
}

func (m *memAudits) Create(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memAudits) FindByID(ctx context.Context, id string) (*models.AuditLog, error) {
	for i := range m.entries {
		if m.entries[i].ID == id {
			return &m.entries[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memAudits) List(ctx context.Context) ([]models.AuditLog, error) {
	return m.entries, nil
}

func (m *memAudits) ListByUser(ctx context.Context, userID string) ([]models.AuditLog, error) {
	filtered := []models.AuditLog{}
	for _, e := range m.entries {
		if e.UserID == userID {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

type memRegistry struct {
	grants map[string]map[string]bool
}

func newMemRegistry(grants map[string][]string) *memRegistry {
	m := &memRegistry{grants: make(map[string]map[string]bool)}
	for role, perms := range grants {
		m.grants[role] = make(map[string]bool)
		for _, p := range perms {
			m.grants[role][p] = true
		}
	}
	return m
}

func (m *memRegistry) ListRoles(ctx context.Context) ([]models.Role, error) {
	roles := []models.Role{}
	for name := range m.grants {
		roles = append(roles, models.Role{ID: name, Name: name})
	}
	return roles, nil
}

func (m *memRegistry) FindRoleByName(ctx context.Context, name string) (*models.Role, error) {
	if _, ok := m.grants[name]; !ok {
		return nil, sql.ErrNoRows
	}
	return &models.Role{ID: name, Name: name}, nil
}

func (m *memRegistry) FindPermissionByName(ctx context.Context, name string) (*models.Permission, error) {
	for _, perm := range models.AllPermissions {
		if perm == name {
			return &models.Permission{ID: name, Name: name}, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memRegistry) PermissionsOf(ctx context.Context, roleName string) ([]string, error) {
	names := []string{}
	for p := range m.grants[roleName] {
		names = append(names, p)
	}
	return names, nil
}

func (m *memRegistry) Grant(ctx context.Context, roleID, permissionID string) error {
	m.grants[roleID][permissionID] = true
	return nil
}

func (m *memRegistry) Revoke(ctx context.Context, roleID, permissionID string) error {
	delete(m.grants[roleID], permissionID)
	return nil
}

func (m *memRegistry) EnsureRole(ctx context.Context, name string) (*models.Role, error) {
	if _, ok := m.grants[name]; !ok {
		m.grants[name] = make(map[string]bool)
	}
	return &models.Role{ID: name, Name: name}, nil
}

func (m *memRegistry) EnsurePermission(ctx context.Context, name string) (*models.Permission, error) {
	return &models.Permission{ID: name, Name: name}, nil
}

// asUser attaches a caller identity the way the authentication middlewares do.
func asUser(identity *models.CallerIdentity) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, identity)
		c.Next()
	}
}

func adminIdentity() *models.CallerIdentity {
	return &models.CallerIdentity{UserID: "admin-id", Username: "admin", Role: models.RoleAdmin, SourceAddr: "10.0.0.1"}
}

func sampleCourse() *models.Course {
	desc := "Introduction to data science"
	limit := 100
	now := time.Now().UTC()
	return &models.Course{
		ID:              "c1",
		Title:           "Data Science 101",
		Description:     &desc,
		Instructor:      "Dr. Smith",
		Duration:        40,
		EnrollmentLimit: &limit,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
