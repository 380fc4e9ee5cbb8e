package role

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-rbac/pkg/role/roledb"
)

// PostgresRoleRepository implements RoleRepository using roledb.Queries.
// Multi-statement operations run in a single pgx transaction so a failure at
// any step rolls back the whole write.
type PostgresRoleRepository struct {
	pool    *pgxpool.Pool
	queries *roledb.Queries
}

// NewPostgresRoleRepository creates a new PostgreSQL-based role repository
func NewPostgresRoleRepository(pool *pgxpool.Pool) *PostgresRoleRepository {
	return &PostgresRoleRepository{
		pool:    pool,
		queries: roledb.New(pool),
	}
}

func (r *PostgresRoleRepository) CreateRoleWithAssignments(ctx context.Context, params CreateRoleParams) (Role, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Role{}, storageErr(err)
	}
	defer tx.Rollback(ctx)

	qtx := r.queries.WithTx(tx)
	row, err := qtx.CreateRole(ctx, roledb.CreateRoleParams{
		Name:         params.Name,
		AudienceType: string(params.AudienceType),
		AudienceID:   params.AudienceID,
		TenantID:     params.TenantDomain,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return Role{}, ErrRoleAlreadyExists{
				Name:         params.Name,
				AudienceType: params.AudienceType,
				AudienceID:   params.AudienceID,
				TenantDomain: params.TenantDomain,
			}
		}
		return Role{}, storageErr(err)
	}

	for _, perm := range params.Permissions {
		err = qtx.CreateRolePermission(ctx, roledb.CreateRolePermissionParams{
			RoleID:      row.ID,
			Name:        perm.Name,
			DisplayName: perm.DisplayName,
		})
		if err != nil {
			return Role{}, storageErr(err)
		}
	}
	for _, userID := range params.UserIDs {
		err = qtx.CreateRoleUser(ctx, roledb.CreateRoleUserParams{RoleID: row.ID, UserID: userID})
		if err != nil {
			return Role{}, storageErr(err)
		}
	}
	for _, groupID := range params.GroupIDs {
		err = qtx.CreateRoleGroup(ctx, roledb.CreateRoleGroupParams{RoleID: row.ID, GroupID: groupID})
		if err != nil {
			return Role{}, storageErr(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Role{}, storageErr(err)
	}
	return toRole(row), nil
}

func (r *PostgresRoleRepository) GetRoleByID(ctx context.Context, id uuid.UUID) (Role, error) {
	row, err := r.queries.GetRole(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, ErrRoleNotFound
		}
		return Role{}, storageErr(err)
	}
	return toRole(row), nil
}

func (r *PostgresRoleRepository) GetRoleByName(ctx context.Context, scope RoleScope, name string) (Role, error) {
	row, err := r.queries.GetRoleByName(ctx, roledb.GetRoleByNameParams{
		TenantID:     scope.TenantDomain,
		AudienceType: string(scope.AudienceType),
		AudienceID:   scope.AudienceID,
		Name:         name,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, ErrRoleNotFound
		}
		return Role{}, storageErr(err)
	}
	return toRole(row), nil
}

func (r *PostgresRoleRepository) RoleExists(ctx context.Context, scope RoleScope, name string) (bool, error) {
	exists, err := r.queries.RoleExists(ctx, roledb.RoleExistsParams{
		TenantID:     scope.TenantDomain,
		AudienceType: string(scope.AudienceType),
		AudienceID:   scope.AudienceID,
		Name:         name,
	})
	if err != nil {
		return false, storageErr(err)
	}
	return exists, nil
}

func (r *PostgresRoleRepository) ListRoles(ctx context.Context, tenantDomain string) ([]Role, error) {
	rows, err := r.queries.ListRoles(ctx, tenantDomain)
	if err != nil {
		return nil, storageErr(err)
	}
	roles := make([]Role, 0, len(rows))
	for _, row := range rows {
		roles = append(roles, toRole(row))
	}
	return roles, nil
}

func (r *PostgresRoleRepository) DeleteRole(ctx context.Context, id uuid.UUID, tenantDomain string) (Role, error) {
	row, err := r.queries.DeleteRole(ctx, roledb.DeleteRoleParams{ID: id, TenantID: tenantDomain})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, ErrRoleNotFound
		}
		return Role{}, storageErr(err)
	}
	return toRole(row), nil
}

func (r *PostgresRoleRepository) GetRolePermissions(ctx context.Context, roleID uuid.UUID) ([]Permission, error) {
	rows, err := r.queries.GetRolePermissions(ctx, roleID)
	if err != nil {
		return nil, storageErr(err)
	}
	permissions := make([]Permission, 0, len(rows))
	for _, row := range rows {
		permissions = append(permissions, Permission{Name: row.Name, DisplayName: row.DisplayName})
	}
	return permissions, nil
}

func (r *PostgresRoleRepository) UpdateRolePermissions(ctx context.Context, roleID uuid.UUID, added, removed []Permission) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return storageErr(err)
	}
	defer tx.Rollback(ctx)

	qtx := r.queries.WithTx(tx)

	// Row lock serializes concurrent diffs against the same role.
	if _, err := qtx.LockRole(ctx, roleID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrRoleNotFound
		}
		return storageErr(err)
	}

	for _, perm := range removed {
		err = qtx.DeleteRolePermission(ctx, roledb.DeleteRolePermissionParams{RoleID: roleID, Name: perm.Name})
		if err != nil {
			return storageErr(err)
		}
	}
	for _, perm := range added {
		err = qtx.CreateRolePermission(ctx, roledb.CreateRolePermissionParams{
			RoleID:      roleID,
			Name:        perm.Name,
			DisplayName: perm.DisplayName,
		})
		if err != nil {
			return storageErr(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return storageErr(err)
	}
	return nil
}

func (r *PostgresRoleRepository) GetRoleUserIDs(ctx context.Context, roleID uuid.UUID) ([]string, error) {
	ids, err := r.queries.GetRoleUserIDs(ctx, roleID)
	if err != nil {
		return nil, storageErr(err)
	}
	return ids, nil
}

func (r *PostgresRoleRepository) GetRoleGroupIDs(ctx context.Context, roleID uuid.UUID) ([]string, error) {
	ids, err := r.queries.GetRoleGroupIDs(ctx, roleID)
	if err != nil {
		return nil, storageErr(err)
	}
	return ids, nil
}

func (r *PostgresRoleRepository) UpdateRoleMembers(ctx context.Context, roleID uuid.UUID, update MemberUpdate) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return storageErr(err)
	}
	defer tx.Rollback(ctx)

	qtx := r.queries.WithTx(tx)

	if _, err := qtx.LockRole(ctx, roleID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrRoleNotFound
		}
		return storageErr(err)
	}

	for _, userID := range update.RemoveUserIDs {
		err = qtx.DeleteRoleUser(ctx, roledb.DeleteRoleUserParams{RoleID: roleID, UserID: userID})
		if err != nil {
			return storageErr(err)
		}
	}
	for _, userID := range update.AddUserIDs {
		err = qtx.CreateRoleUser(ctx, roledb.CreateRoleUserParams{RoleID: roleID, UserID: userID})
		if err != nil {
			return storageErr(err)
		}
	}
	for _, groupID := range update.RemoveGroupIDs {
		err = qtx.DeleteRoleGroup(ctx, roledb.DeleteRoleGroupParams{RoleID: roleID, GroupID: groupID})
		if err != nil {
			return storageErr(err)
		}
	}
	for _, groupID := range update.AddGroupIDs {
		err = qtx.CreateRoleGroup(ctx, roledb.CreateRoleGroupParams{RoleID: roleID, GroupID: groupID})
		if err != nil {
			return storageErr(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return storageErr(err)
	}
	return nil
}

func toRole(row roledb.Role) Role {
	return Role{
		ID:             row.ID,
		Name:           row.Name,
		AudienceType:   AudienceType(row.AudienceType),
		AudienceID:     row.AudienceID,
		TenantDomain:   row.TenantID,
		CreatedAt:      row.CreatedAt,
		LastModifiedAt: row.LastModifiedAt,
	}
}

// uniqueViolationCode is the PostgreSQL error code for unique_violation.
const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// storageErr classifies backing-store failures as retryable for the caller.
// Context cancellation and deadline errors pass through unchanged so callers
// can tell their own timeout from a store outage.
func storageErr(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return ErrStorageUnavailable{Err: err}
}
