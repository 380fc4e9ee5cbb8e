package roledb

import (
	"context"

	"github.com/google/uuid"
)

type Querier interface {
	CountRoles(ctx context.Context, tenantID string) (int64, error)
	CreateRole(ctx context.Context, arg CreateRoleParams) (Role, error)
	CreateRoleGroup(ctx context.Context, arg CreateRoleGroupParams) error
	CreateRolePermission(ctx context.Context, arg CreateRolePermissionParams) error
	CreateRoleUser(ctx context.Context, arg CreateRoleUserParams) error
	DeleteRole(ctx context.Context, arg DeleteRoleParams) (Role, error)
	DeleteRoleGroup(ctx context.Context, arg DeleteRoleGroupParams) error
	DeleteRolePermission(ctx context.Context, arg DeleteRolePermissionParams) error
	DeleteRoleUser(ctx context.Context, arg DeleteRoleUserParams) error
	GetRole(ctx context.Context, id uuid.UUID) (Role, error)
	GetRoleByName(ctx context.Context, arg GetRoleByNameParams) (Role, error)
	GetRoleGroupIDs(ctx context.Context, roleID uuid.UUID) ([]string, error)
	GetRolePermissions(ctx context.Context, roleID uuid.UUID) ([]RolePermission, error)
	GetRoleUserIDs(ctx context.Context, roleID uuid.UUID) ([]string, error)
	ListRoles(ctx context.Context, tenantID string) ([]Role, error)
	LockRole(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	RoleExists(ctx context.Context, arg RoleExistsParams) (bool, error)
}

var _ Querier = (*Queries)(nil)
