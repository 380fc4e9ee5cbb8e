package roledb

import (
	"context"

	"github.com/google/uuid"
)

const countRoles = `-- name: CountRoles :one
SELECT count(*) FROM role
WHERE tenant_id = $1
`

func (q *Queries) CountRoles(ctx context.Context, tenantID string) (int64, error) {
	row := q.db.QueryRow(ctx, countRoles, tenantID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createRole = `-- name: CreateRole :one
INSERT INTO role (name, audience_type, audience_id, tenant_id)
VALUES ($1, $2, $3, $4)
RETURNING id, name, audience_type, audience_id, tenant_id, created_at, last_modified_at
`

type CreateRoleParams struct {
	Name         string
	AudienceType string
	AudienceID   string
	TenantID     string
}

func (q *Queries) CreateRole(ctx context.Context, arg CreateRoleParams) (Role, error) {
	row := q.db.QueryRow(ctx, createRole,
		arg.Name,
		arg.AudienceType,
		arg.AudienceID,
		arg.TenantID,
	)
	var i Role
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.AudienceType,
		&i.AudienceID,
		&i.TenantID,
		&i.CreatedAt,
		&i.LastModifiedAt,
	)
	return i, err
}

const createRoleGroup = `-- name: CreateRoleGroup :exec
INSERT INTO role_group (role_id, group_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
`

type CreateRoleGroupParams struct {
	RoleID  uuid.UUID
	GroupID string
}

func (q *Queries) CreateRoleGroup(ctx context.Context, arg CreateRoleGroupParams) error {
	_, err := q.db.Exec(ctx, createRoleGroup, arg.RoleID, arg.GroupID)
	return err
}

const createRolePermission = `-- name: CreateRolePermission :exec
INSERT INTO role_permission (role_id, name, display_name)
VALUES ($1, $2, $3)
ON CONFLICT DO NOTHING
`

type CreateRolePermissionParams struct {
	RoleID      uuid.UUID
	Name        string
	DisplayName string
}

func (q *Queries) CreateRolePermission(ctx context.Context, arg CreateRolePermissionParams) error {
	_, err := q.db.Exec(ctx, createRolePermission, arg.RoleID, arg.Name, arg.DisplayName)
	return err
}

const createRoleUser = `-- name: CreateRoleUser :exec
INSERT INTO role_user (role_id, user_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
`

type CreateRoleUserParams struct {
	RoleID uuid.UUID
	UserID string
}

func (q *Queries) CreateRoleUser(ctx context.Context, arg CreateRoleUserParams) error {
	_, err := q.db.Exec(ctx, createRoleUser, arg.RoleID, arg.UserID)
	return err
}

const deleteRole = `-- name: DeleteRole :one
DELETE FROM role
WHERE id = $1 AND tenant_id = $2
RETURNING id, name, audience_type, audience_id, tenant_id, created_at, last_modified_at
`

type DeleteRoleParams struct {
	ID       uuid.UUID
	TenantID string
}

func (q *Queries) DeleteRole(ctx context.Context, arg DeleteRoleParams) (Role, error) {
	row := q.db.QueryRow(ctx, deleteRole, arg.ID, arg.TenantID)
	var i Role
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.AudienceType,
		&i.AudienceID,
		&i.TenantID,
		&i.CreatedAt,
		&i.LastModifiedAt,
	)
	return i, err
}

const deleteRoleGroup = `-- name: DeleteRoleGroup :exec
DELETE FROM role_group
WHERE role_id = $1 AND group_id = $2
`

type DeleteRoleGroupParams struct {
	RoleID  uuid.UUID
	GroupID string
}

func (q *Queries) DeleteRoleGroup(ctx context.Context, arg DeleteRoleGroupParams) error {
	_, err := q.db.Exec(ctx, deleteRoleGroup, arg.RoleID, arg.GroupID)
	return err
}

const deleteRolePermission = `-- name: DeleteRolePermission :exec
DELETE FROM role_permission
WHERE role_id = $1 AND name = $2
`

type DeleteRolePermissionParams struct {
	RoleID uuid.UUID
	Name   string
}

func (q *Queries) DeleteRolePermission(ctx context.Context, arg DeleteRolePermissionParams) error {
	_, err := q.db.Exec(ctx, deleteRolePermission, arg.RoleID, arg.Name)
	return err
}

const deleteRoleUser = `-- name: DeleteRoleUser :exec
DELETE FROM role_user
WHERE role_id = $1 AND user_id = $2
`

type DeleteRoleUserParams struct {
	RoleID uuid.UUID
	UserID string
}

func (q *Queries) DeleteRoleUser(ctx context.Context, arg DeleteRoleUserParams) error {
	_, err := q.db.Exec(ctx, deleteRoleUser, arg.RoleID, arg.UserID)
	return err
}

const getRole = `-- name: GetRole :one
SELECT id, name, audience_type, audience_id, tenant_id, created_at, last_modified_at
FROM role
WHERE id = $1
`

func (q *Queries) GetRole(ctx context.Context, id uuid.UUID) (Role, error) {
	row := q.db.QueryRow(ctx, getRole, id)
	var i Role
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.AudienceType,
		&i.AudienceID,
		&i.TenantID,
		&i.CreatedAt,
		&i.LastModifiedAt,
	)
	return i, err
}

const getRoleByName = `-- name: GetRoleByName :one
SELECT id, name, audience_type, audience_id, tenant_id, created_at, last_modified_at
FROM role
WHERE tenant_id = $1 AND audience_type = $2 AND audience_id = $3 AND name = $4
`

type GetRoleByNameParams struct {
	TenantID     string
	AudienceType string
	AudienceID   string
	Name         string
}

func (q *Queries) GetRoleByName(ctx context.Context, arg GetRoleByNameParams) (Role, error) {
	row := q.db.QueryRow(ctx, getRoleByName,
		arg.TenantID,
		arg.AudienceType,
		arg.AudienceID,
		arg.Name,
	)
	var i Role
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.AudienceType,
		&i.AudienceID,
		&i.TenantID,
		&i.CreatedAt,
		&i.LastModifiedAt,
	)
	return i, err
}

const getRoleGroupIDs = `-- name: GetRoleGroupIDs :many
SELECT group_id FROM role_group
WHERE role_id = $1
ORDER BY group_id
`

func (q *Queries) GetRoleGroupIDs(ctx context.Context, roleID uuid.UUID) ([]string, error) {
	rows, err := q.db.Query(ctx, getRoleGroupIDs, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var groupID string
		if err := rows.Scan(&groupID); err != nil {
			return nil, err
		}
		items = append(items, groupID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getRolePermissions = `-- name: GetRolePermissions :many
SELECT role_id, name, display_name FROM role_permission
WHERE role_id = $1
ORDER BY name
`

func (q *Queries) GetRolePermissions(ctx context.Context, roleID uuid.UUID) ([]RolePermission, error) {
	rows, err := q.db.Query(ctx, getRolePermissions, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RolePermission
	for rows.Next() {
		var i RolePermission
		if err := rows.Scan(&i.RoleID, &i.Name, &i.DisplayName); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getRoleUserIDs = `-- name: GetRoleUserIDs :many
SELECT user_id FROM role_user
WHERE role_id = $1
ORDER BY user_id
`

func (q *Queries) GetRoleUserIDs(ctx context.Context, roleID uuid.UUID) ([]string, error) {
	rows, err := q.db.Query(ctx, getRoleUserIDs, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		items = append(items, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listRoles = `-- name: ListRoles :many
SELECT id, name, audience_type, audience_id, tenant_id, created_at, last_modified_at
FROM role
WHERE tenant_id = $1
ORDER BY name, audience_id
`

func (q *Queries) ListRoles(ctx context.Context, tenantID string) ([]Role, error) {
	rows, err := q.db.Query(ctx, listRoles, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Role
	for rows.Next() {
		var i Role
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.AudienceType,
			&i.AudienceID,
			&i.TenantID,
			&i.CreatedAt,
			&i.LastModifiedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const lockRole = `-- name: LockRole :one
SELECT id FROM role
WHERE id = $1
FOR UPDATE
`

func (q *Queries) LockRole(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, lockRole, id)
	var lockedID uuid.UUID
	err := row.Scan(&lockedID)
	return lockedID, err
}

const roleExists = `-- name: RoleExists :one
SELECT EXISTS (
    SELECT 1 FROM role
    WHERE tenant_id = $1 AND audience_type = $2 AND audience_id = $3 AND name = $4
)
`

type RoleExistsParams struct {
	TenantID     string
	AudienceType string
	AudienceID   string
	Name         string
}

func (q *Queries) RoleExists(ctx context.Context, arg RoleExistsParams) (bool, error) {
	row := q.db.QueryRow(ctx, roleExists,
		arg.TenantID,
		arg.AudienceType,
		arg.AudienceID,
		arg.Name,
	)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}
