package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/models"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
)

type roleRepository interface {
	ListRoles(ctx context.Context) ([]models.Role, error)
	FindRoleByName(ctx context.Context, name string) (*models.Role, error)
	FindPermissionByName(ctx context.Context, name string) (*models.Permission, error)
	PermissionsOf(ctx context.Context, roleName string) ([]string, error)
	Grant(ctx context.Context, roleID, permissionID string) error
	Revoke(ctx context.Context, roleID, permissionID string) error
	EnsureRole(ctx context.Context, name string) (*models.Role, error)
	EnsurePermission(ctx context.Context, name string) (*models.Permission, error)
}

// AuthzService is the role-permission registry plus the authorizer. Decisions
// are stateless and re-read from the registry on every call: permission sets
// can change between requests and staleness would be a correctness bug.
type AuthzService struct {
	repo   roleRepository
	logger *zap.Logger
}

// NewAuthzService creates a new authorization service.
func NewAuthzService(repo roleRepository, logger *zap.Logger) *AuthzService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthzService{repo: repo, logger: logger}
}

// Roles lists every registered role.
func (s *AuthzService) Roles(ctx context.Context) ([]models.Role, error) {
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list roles")
	}
	return roles, nil
}

// PermissionsOf returns the permission names granted to a role. "No
// permissions" is a valid state, so an unknown role yields an empty set.
func (s *AuthzService) PermissionsOf(ctx context.Context, roleName string) ([]string, error) {
	perms, err := s.repo.PermissionsOf(ctx, roleName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load role permissions")
	}
	return perms, nil
}

// Authorize reports whether the caller role holds the required permission.
// Flat membership check; no role hierarchy and no implicit admin bypass.
func (s *AuthzService) Authorize(ctx context.Context, callerRole, requiredPermission string) (bool, error) {
	perms, err := s.PermissionsOf(ctx, callerRole)
	if err != nil {
		return false, err
	}
	for _, p := range perms {
		if p == requiredPermission {
			return true, nil
		}
	}
	return false, nil
}

// Grant links an existing permission to an existing role, idempotently.
func (s *AuthzService) Grant(ctx context.Context, roleName, permissionName string) error {
	role, perm, err := s.resolvePair(ctx, roleName, permissionName)
	if err != nil {
		return err
	}
	if err := s.repo.Grant(ctx, role.ID, perm.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to grant permission")
	}
	return nil
}

// Revoke unlinks a permission from a role. Revoking an ungranted permission
// is a no-op, not an error.
func (s *AuthzService) Revoke(ctx context.Context, roleName, permissionName string) error {
	role, perm, err := s.resolvePair(ctx, roleName, permissionName)
	if err != nil {
		return err
	}
	if err := s.repo.Revoke(ctx, role.ID, perm.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke permission")
	}
	return nil
}

// Seed installs the default roles, permissions and grants. Safe to run on
// every startup: all inserts are upserts keyed on unique names.
func (s *AuthzService) Seed(ctx context.Context) error {
	for _, name := range models.AllPermissions {
		if _, err := s.repo.EnsurePermission(ctx, name); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed permission")
		}
	}

	for roleName, grants := range models.DefaultGrants {
		role, err := s.repo.EnsureRole(ctx, roleName)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed role")
		}
		for _, permName := range grants {
			perm, err := s.repo.FindPermissionByName(ctx, permName)
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve seeded permission")
			}
			if err := s.repo.Grant(ctx, role.ID, perm.ID); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed grant")
			}
		}
		s.logger.Info("seeded role", zap.String("role", roleName), zap.Int("permissions", len(grants)))
	}
	return nil
}

func (s *AuthzService) resolvePair(ctx context.Context, roleName, permissionName string) (*models.Role, *models.Permission, error) {
	role, err := s.repo.FindRoleByName(ctx, roleName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "role not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load role")
	}

	perm, err := s.repo.FindPermissionByName(ctx, permissionName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "permission not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load permission")
	}

	return role, perm, nil
}
