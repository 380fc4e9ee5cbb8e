package role

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRoleRepository implements RoleRepository using in-memory storage.
// It mirrors the PostgreSQL repository's semantics, including the uniqueness
// constraint and cascading deletes, for tests and single-node use.
type InMemoryRoleRepository struct {
	mu          sync.RWMutex
	roles       map[uuid.UUID]Role
	permissions map[uuid.UUID]map[string]Permission // roleID -> name -> Permission
	users       map[uuid.UUID]map[string]struct{}   // roleID -> userID set
	groups      map[uuid.UUID]map[string]struct{}   // roleID -> groupID set
}

// NewInMemoryRoleRepository creates a new in-memory role repository
func NewInMemoryRoleRepository() *InMemoryRoleRepository {
	return &InMemoryRoleRepository{
		roles:       make(map[uuid.UUID]Role),
		permissions: make(map[uuid.UUID]map[string]Permission),
		users:       make(map[uuid.UUID]map[string]struct{}),
		groups:      make(map[uuid.UUID]map[string]struct{}),
	}
}

func (r *InMemoryRoleRepository) CreateRoleWithAssignments(ctx context.Context, params CreateRoleParams) (Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.roles {
		if existing.TenantDomain == params.TenantDomain &&
			existing.AudienceType == params.AudienceType &&
			existing.AudienceID == params.AudienceID &&
			existing.Name == params.Name {
			return Role{}, ErrRoleAlreadyExists{
				Name:         params.Name,
				AudienceType: params.AudienceType,
				AudienceID:   params.AudienceID,
				TenantDomain: params.TenantDomain,
			}
		}
	}

	now := time.Now()
	created := Role{
		ID:             uuid.New(),
		Name:           params.Name,
		AudienceType:   params.AudienceType,
		AudienceID:     params.AudienceID,
		TenantDomain:   params.TenantDomain,
		CreatedAt:      now,
		LastModifiedAt: now,
	}
	r.roles[created.ID] = created

	perms := make(map[string]Permission, len(params.Permissions))
	for _, perm := range params.Permissions {
		if _, ok := perms[perm.Name]; !ok {
			perms[perm.Name] = perm
		}
	}
	r.permissions[created.ID] = perms

	users := make(map[string]struct{}, len(params.UserIDs))
	for _, id := range params.UserIDs {
		users[id] = struct{}{}
	}
	r.users[created.ID] = users

	groups := make(map[string]struct{}, len(params.GroupIDs))
	for _, id := range params.GroupIDs {
		groups[id] = struct{}{}
	}
	r.groups[created.ID] = groups

	return created, nil
}

func (r *InMemoryRoleRepository) GetRoleByID(ctx context.Context, id uuid.UUID) (Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	role, ok := r.roles[id]
	if !ok {
		return Role{}, ErrRoleNotFound
	}
	return role, nil
}

func (r *InMemoryRoleRepository) GetRoleByName(ctx context.Context, scope RoleScope, name string) (Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, role := range r.roles {
		if role.TenantDomain == scope.TenantDomain &&
			role.AudienceType == scope.AudienceType &&
			role.AudienceID == scope.AudienceID &&
			role.Name == name {
			return role, nil
		}
	}
	return Role{}, ErrRoleNotFound
}

func (r *InMemoryRoleRepository) RoleExists(ctx context.Context, scope RoleScope, name string) (bool, error) {
	_, err := r.GetRoleByName(ctx, scope, name)
	if err == nil {
		return true, nil
	}
	if err == ErrRoleNotFound {
		return false, nil
	}
	return false, err
}

func (r *InMemoryRoleRepository) ListRoles(ctx context.Context, tenantDomain string) ([]Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roles := make([]Role, 0)
	for _, role := range r.roles {
		if role.TenantDomain == tenantDomain {
			roles = append(roles, role)
		}
	}
	sort.Slice(roles, func(i, j int) bool {
		if roles[i].Name != roles[j].Name {
			return roles[i].Name < roles[j].Name
		}
		return roles[i].AudienceID < roles[j].AudienceID
	})
	return roles, nil
}

func (r *InMemoryRoleRepository) DeleteRole(ctx context.Context, id uuid.UUID, tenantDomain string) (Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	role, ok := r.roles[id]
	if !ok || role.TenantDomain != tenantDomain {
		return Role{}, ErrRoleNotFound
	}

	delete(r.roles, id)
	delete(r.permissions, id)
	delete(r.users, id)
	delete(r.groups, id)
	return role, nil
}

func (r *InMemoryRoleRepository) GetRolePermissions(ctx context.Context, roleID uuid.UUID) ([]Permission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	perms := make([]Permission, 0, len(r.permissions[roleID]))
	for _, perm := range r.permissions[roleID] {
		perms = append(perms, perm)
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i].Name < perms[j].Name })
	return perms, nil
}

func (r *InMemoryRoleRepository) UpdateRolePermissions(ctx context.Context, roleID uuid.UUID, added, removed []Permission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.roles[roleID]; !ok {
		return ErrRoleNotFound
	}

	perms := r.permissions[roleID]
	if perms == nil {
		perms = make(map[string]Permission)
		r.permissions[roleID] = perms
	}
	for _, perm := range removed {
		delete(perms, perm.Name)
	}
	for _, perm := range added {
		perms[perm.Name] = perm
	}
	return nil
}

func (r *InMemoryRoleRepository) GetRoleUserIDs(ctx context.Context, roleID uuid.UUID) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.users[roleID]), nil
}

func (r *InMemoryRoleRepository) GetRoleGroupIDs(ctx context.Context, roleID uuid.UUID) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.groups[roleID]), nil
}

func (r *InMemoryRoleRepository) UpdateRoleMembers(ctx context.Context, roleID uuid.UUID, update MemberUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.roles[roleID]; !ok {
		return ErrRoleNotFound
	}

	users := r.users[roleID]
	if users == nil {
		users = make(map[string]struct{})
		r.users[roleID] = users
	}
	groups := r.groups[roleID]
	if groups == nil {
		groups = make(map[string]struct{})
		r.groups[roleID] = groups
	}

	for _, id := range update.RemoveUserIDs {
		delete(users, id)
	}
	for _, id := range update.AddUserIDs {
		users[id] = struct{}{}
	}
	for _, id := range update.RemoveGroupIDs {
		delete(groups, id)
	}
	for _, id := range update.AddGroupIDs {
		groups[id] = struct{}{}
	}
	return nil
}

// Rename changes a role's name in place, bypassing service invariants. Test
// hook for observing cache staleness.
func (r *InMemoryRoleRepository) Rename(id uuid.UUID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if role, ok := r.roles[id]; ok {
		role.Name = name
		role.LastModifiedAt = time.Now()
		r.roles[id] = role
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
