package role

import (
	"context"

	"github.com/google/uuid"
)

// RoleRepository defines the persistence operations behind the role service.
// Multi-step operations (create with assignments, permission diffs, member
// updates) are atomic: implementations commit all rows or none.
type RoleRepository interface {
	// CreateRoleWithAssignments inserts the role row plus its permission
	// assignments and membership bindings in one transaction. Returns
	// ErrRoleAlreadyExists when the (tenant, audience, name) uniqueness
	// constraint is violated.
	CreateRoleWithAssignments(ctx context.Context, params CreateRoleParams) (Role, error)

	// GetRoleByID fetches a role row by identifier, regardless of tenant.
	// Callers enforce tenant isolation on the returned record.
	GetRoleByID(ctx context.Context, id uuid.UUID) (Role, error)

	// GetRoleByName fetches a role by its uniqueness scope and name.
	GetRoleByName(ctx context.Context, scope RoleScope, name string) (Role, error)

	// RoleExists reports whether a role name is taken within a scope.
	RoleExists(ctx context.Context, scope RoleScope, name string) (bool, error)

	// ListRoles returns all roles of a tenant ordered by name ascending,
	// audience ID as tiebreak.
	ListRoles(ctx context.Context, tenantDomain string) ([]Role, error)

	// DeleteRole removes a role and, by cascade, its permission and
	// membership rows. Returns the deleted record so callers can derive
	// name-based cache invalidation keys, or ErrRoleNotFound.
	DeleteRole(ctx context.Context, id uuid.UUID, tenantDomain string) (Role, error)

	// GetRolePermissions returns the role's permission set ordered by name.
	GetRolePermissions(ctx context.Context, roleID uuid.UUID) ([]Permission, error)

	// UpdateRolePermissions applies a precomputed permission diff. The
	// role's row is locked for the duration so concurrent diffs against the
	// same role serialize.
	UpdateRolePermissions(ctx context.Context, roleID uuid.UUID, added, removed []Permission) error

	// GetRoleUserIDs returns the user identifiers bound to a role.
	GetRoleUserIDs(ctx context.Context, roleID uuid.UUID) ([]string, error)

	// GetRoleGroupIDs returns the group identifiers bound to a role.
	GetRoleGroupIDs(ctx context.Context, roleID uuid.UUID) ([]string, error)

	// UpdateRoleMembers applies a membership set-difference update
	// atomically.
	UpdateRoleMembers(ctx context.Context, roleID uuid.UUID, update MemberUpdate) error
}
