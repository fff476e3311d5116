package models

// Role is a named bundle of permissions assigned to users by name.
type Role struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Permission is an atomic named capability checked against a role's grants.
type Permission struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// RolePermission is the join row between roles and permissions. The composite
// primary key keeps a (role, permission) pair unique.
type RolePermission struct {
	RoleID       string `db:"role_id" json:"role_id"`
	PermissionID string `db:"permission_id" json:"permission_id"`
}

// Default role names seeded at bootstrap.
const (
	RoleAdmin      = "admin"
	RoleInstructor = "instructor"
	RoleStudent    = "student"
)

// Permission names gating the course routes.
const (
	PermViewCourses  = "view_courses"
	PermViewCourse   = "view_course"
	PermCreateCourse = "create_course"
	PermUpdateCourse = "update_course"
	PermDeleteCourse = "delete_course"
)

// AllPermissions lists every known permission name.
var AllPermissions = []string{
	PermViewCourses,
	PermViewCourse,
	PermCreateCourse,
	PermUpdateCourse,
	PermDeleteCourse,
}

// DefaultGrants is the bootstrap role→permission mapping: admins hold every
// permission, instructors read courses, students only list them.
var DefaultGrants = map[string][]string{
	RoleAdmin:      AllPermissions,
	RoleInstructor: {PermViewCourses, PermViewCourse},
	RoleStudent:    {PermViewCourses},
}
