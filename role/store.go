package role

import (
	"context"

	"github.com/xraph/gatehouse/id"
)

// Store persists roles.
type Store interface {
	// CreateRole inserts a new role.
	CreateRole(ctx context.Context, r *Role) error

	// GetRole returns a role by ID.
	GetRole(ctx context.Context, roleID id.RoleID) (*Role, error)

	// GetRoleByName returns a role by its unique name.
	GetRoleByName(ctx context.Context, name string) (*Role, error)

	// UpdateRole updates an existing role.
	UpdateRole(ctx context.Context, r *Role) error

	// DeleteRole removes a role. Grants and policy attachments
	// referencing the role are removed with it.
	DeleteRole(ctx context.Context, roleID id.RoleID) error

	// ListRoles returns roles matching the filter.
	ListRoles(ctx context.Context, filter ListFilter) ([]*Role, error)
}
