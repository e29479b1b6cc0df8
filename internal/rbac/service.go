package rbac

import (
	"context"
	"fmt"
	"strings"

	"github.com/meridian-sis/meridian-sis/internal/platform/httpx"
)

// Service orchestrates RBAC operations.
type Service struct {
	repo *Repository
}

// NewService constructs a Service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// ListRoles returns all roles ordered by code.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole fetches a role by ID.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// CreateRole inserts a new role. Codes are uppercased to match the grant
// snapshot convention.
func (s *Service) CreateRole(ctx context.Context, code, name, description string) (Role, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	name = strings.TrimSpace(name)
	if code == "" || name == "" {
		return Role{}, fmt.Errorf("%w: role code and name required", httpx.ErrValidation)
	}
	return s.repo.CreateRole(ctx, code, name, strings.TrimSpace(description))
}

// UpdateRole updates an existing role's display fields. The code is
// immutable once issued: grant snapshots and gate specs reference it.
func (s *Service) UpdateRole(ctx context.Context, id int64, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name required", httpx.ErrValidation)
	}
	return s.repo.UpdateRole(ctx, id, name, strings.TrimSpace(description))
}

// DeleteRole removes a role by ID.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	return s.repo.DeleteRole(ctx, id)
}

// ListPermissions returns all permissions ordered by code.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// EnsurePermission upserts a permission by code.
func (s *Service) EnsurePermission(ctx context.Context, code, description string) (Permission, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return Permission{}, fmt.Errorf("%w: permission code required", httpx.ErrValidation)
	}
	return s.repo.EnsurePermission(ctx, code, strings.TrimSpace(description))
}

// SetRolePermissions replaces the permissions attached to a role with the
// given set.
func (s *Service) SetRolePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	existing, err := s.repo.ListRolePermissionIDs(ctx, roleID)
	if err != nil {
		return err
	}
	current := make(map[int64]struct{}, len(existing))
	for _, id := range existing {
		current[id] = struct{}{}
	}
	keep := make(map[int64]struct{}, len(permissionIDs))
	for _, id := range permissionIDs {
		keep[id] = struct{}{}
		if _, ok := current[id]; !ok {
			if err := s.repo.AttachPermission(ctx, roleID, id); err != nil {
				return err
			}
		}
	}
	for id := range current {
		if _, ok := keep[id]; !ok {
			if err := s.repo.DetachPermission(ctx, roleID, id); err != nil {
				return err
			}
		}
	}
	return nil
}

// AssignRole assigns a role to the given user.
func (s *Service) AssignRole(ctx context.Context, userID, roleID int64) error {
	return s.repo.AssignRole(ctx, userID, roleID)
}

// RemoveRole removes a role from a user.
func (s *Service) RemoveRole(ctx context.Context, userID, roleID int64) error {
	return s.repo.RemoveRole(ctx, userID, roleID)
}

// EffectivePermissions returns deduplicated permission codes for a user.
func (s *Service) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	return s.repo.EffectivePermissions(ctx, userID)
}

// EffectiveRoles returns the roles held by a user.
func (s *Service) EffectiveRoles(ctx context.Context, userID int64) ([]Role, error) {
	return s.repo.EffectiveRoles(ctx, userID)
}
