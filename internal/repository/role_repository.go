package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-api/internal/models"
)

// RoleRepository persists roles, permissions and their many-to-many grants.
type RoleRepository struct {
	db *sqlx.DB
}

// NewRoleRepository creates a new repository instance.
func NewRoleRepository(db *sqlx.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// ListRoles returns every role.
func (r *RoleRepository) ListRoles(ctx context.Context) ([]models.Role, error) {
	const query = `SELECT id, name FROM roles ORDER BY name ASC`
	var roles []models.Role
	if err := r.db.SelectContext(ctx, &roles, query); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// FindRoleByName returns a role by its unique name.
func (r *RoleRepository) FindRoleByName(ctx context.Context, name string) (*models.Role, error) {
	const query = `SELECT id, name FROM roles WHERE name = $1 LIMIT 1`
	var role models.Role
	if err := r.db.GetContext(ctx, &role, query, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find role by name: %w", err)
	}
	return &role, nil
}

// FindPermissionByName returns a permission by its unique name.
func (r *RoleRepository) FindPermissionByName(ctx context.Context, name string) (*models.Permission, error) {
	const query = `SELECT id, name FROM permissions WHERE name = $1 LIMIT 1`
	var perm models.Permission
	if err := r.db.GetContext(ctx, &perm, query, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find permission by name: %w", err)
	}
	return &perm, nil
}

// PermissionsOf returns the permission names granted to a role. An unknown
// role yields an empty set, never an error.
func (r *RoleRepository) PermissionsOf(ctx context.Context, roleName string) ([]string, error) {
	const query = `SELECT p.name FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		JOIN roles ro ON ro.id = rp.role_id
		WHERE ro.name = $1
		ORDER BY p.name ASC`
	names := []string{}
	if err := r.db.SelectContext(ctx, &names, query, roleName); err != nil {
		return nil, fmt.Errorf("permissions of role: %w", err)
	}
	return names, nil
}

// Grant links a permission to a role. Granting twice has no additional
// effect; the composite primary key absorbs the duplicate.
func (r *RoleRepository) Grant(ctx context.Context, roleID, permissionID string) error {
	const query = `INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2) ON CONFLICT (role_id, permission_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, roleID, permissionID); err != nil {
		return fmt.Errorf("grant permission: %w", err)
	}
	return nil
}

// Revoke unlinks a permission from a role. Revoking an ungranted permission
// is a no-op.
func (r *RoleRepository) Revoke(ctx context.Context, roleID, permissionID string) error {
	const query = `DELETE FROM role_permissions WHERE role_id = $1 AND permission_id = $2`
	if _, err := r.db.ExecContext(ctx, query, roleID, permissionID); err != nil {
		return fmt.Errorf("revoke permission: %w", err)
	}
	return nil
}

// EnsureRole inserts a role by name when missing and returns the stored row.
// Safe to call on every startup.
func (r *RoleRepository) EnsureRole(ctx context.Context, name string) (*models.Role, error) {
	const insert = `INSERT INTO roles (id, name) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, insert, uuid.NewString(), name); err != nil {
		return nil, fmt.Errorf("ensure role: %w", err)
	}
	return r.FindRoleByName(ctx, name)
}

// EnsurePermission inserts a permission by name when missing and returns the
// stored row.
func (r *RoleRepository) EnsurePermission(ctx context.Context, name string) (*models.Permission, error) {
	const insert = `INSERT INTO permissions (id, name) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, insert, uuid.NewString(), name); err != nil {
		return nil, fmt.Errorf("ensure permission: %w", err)
	}
	return r.FindPermissionByName(ctx, name)
}
