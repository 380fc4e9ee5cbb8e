package role

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tendant/simple-rbac/pkg/config"
	"github.com/tendant/simple-rbac/pkg/directory"
	"github.com/tendant/simple-rbac/pkg/rolecache"
	"github.com/tendant/simple-rbac/pkg/utils"
)

// AudienceLookup resolves the display name of a role's owning organization
// or application. Used only for read-time denormalization; display names are
// never persisted or cached with the role.
type AudienceLookup interface {
	GetAudienceDisplayName(ctx context.Context, audienceType AudienceType, audienceID, tenantDomain string) (string, error)
}

// StaticAudienceLookup implements AudienceLookup from a fixed map keyed by
// audience ID. Useful for tests and single-tenant deployments.
type StaticAudienceLookup struct {
	Names map[string]string
}

func (l StaticAudienceLookup) GetAudienceDisplayName(ctx context.Context, audienceType AudienceType, audienceID, tenantDomain string) (string, error) {
	if name, ok := l.Names[audienceID]; ok {
		return name, nil
	}
	return "", fmt.Errorf("unknown audience %s/%s", audienceType, audienceID)
}

// RoleService coordinates the role, permission and membership stores with
// the directory resolver and keeps the read cache coherent. Every mutating
// operation invalidates the affected cache keys after the store commit; the
// cache is never updated in place.
type RoleService struct {
	repo      RoleRepository
	resolver  directory.Resolver
	audiences AudienceLookup
	cache     *rolecache.Cache[Role]
	listCfg   config.RoleListConfig
}

// NewRoleService creates a role service with its own cache instance.
func NewRoleService(repo RoleRepository, resolver directory.Resolver, audiences AudienceLookup, listCfg config.RoleListConfig) *RoleService {
	return &RoleService{
		repo:      repo,
		resolver:  resolver,
		audiences: audiences,
		cache:     rolecache.New[Role](),
		listCfg:   listCfg,
	}
}

// AddRole creates a role with its permission assignments and membership
// bindings in one atomic write. The storage layer's uniqueness constraint is
// the authoritative duplicate check, so concurrent adds racing on the same
// name yield exactly one success.
func (s *RoleService) AddRole(ctx context.Context, name string, userIDs, groupIDs []string, permissions []Permission, audienceType AudienceType, audienceID, tenantDomain string) (RoleBasicInfo, error) {
	if name == "" {
		return RoleBasicInfo{}, ErrEmptyRoleName
	}
	if tenantDomain == "" {
		return RoleBasicInfo{}, ErrEmptyTenantDomain
	}
	if audienceID == "" {
		return RoleBasicInfo{}, ErrEmptyAudienceID
	}
	// Persist the canonical audience type so uniqueness and name lookups
	// are case-insensitive on input.
	audienceType, err := ParseAudienceType(string(audienceType))
	if err != nil {
		return RoleBasicInfo{}, fmt.Errorf("failed to add role: %w", err)
	}

	created, err := s.repo.CreateRoleWithAssignments(ctx, CreateRoleParams{
		Name:         name,
		UserIDs:      utils.Uniq(userIDs),
		GroupIDs:     utils.Uniq(groupIDs),
		Permissions:  uniqPermissions(permissions),
		AudienceType: audienceType,
		AudienceID:   audienceID,
		TenantDomain: tenantDomain,
	})
	if err != nil {
		return RoleBasicInfo{}, err
	}

	// Drop any stale negative entry for the new name.
	s.invalidate(created)

	return s.toBasicInfo(ctx, created), nil
}

// GetRoleBasicInfoByID returns the read projection of a role. The core
// record is served read-through from the cache; the audience display name is
// resolved fresh on every call so audience renames are never stale.
func (s *RoleService) GetRoleBasicInfoByID(ctx context.Context, id uuid.UUID, tenantDomain string) (RoleBasicInfo, error) {
	if tenantDomain == "" {
		return RoleBasicInfo{}, ErrEmptyTenantDomain
	}

	idKey := rolecache.IDKey{TenantDomain: tenantDomain, RoleID: id.String()}
	if cached, ok := s.cache.GetByID(idKey); ok {
		return s.toBasicInfo(ctx, cached), nil
	}

	fetched, err := s.repo.GetRoleByID(ctx, id)
	if err != nil {
		return RoleBasicInfo{}, err
	}
	if fetched.TenantDomain != tenantDomain {
		// Tenant isolation: do not reveal the record's existence.
		return RoleBasicInfo{}, ErrRoleNotFound
	}

	s.cache.Put(idKey, nameKeyOf(fetched), fetched)
	return s.toBasicInfo(ctx, fetched), nil
}

// IsExistingRoleName reports whether a role name is taken within the given
// audience and tenant scope. The result is race-safe relative to concurrent
// AddRole calls: a false answer may be outdated by the time the caller acts
// on it, but the insert constraint still rejects the duplicate.
func (s *RoleService) IsExistingRoleName(ctx context.Context, name string, audienceType AudienceType, audienceID, tenantDomain string) (bool, error) {
	if name == "" {
		return false, ErrEmptyRoleName
	}
	if tenantDomain == "" {
		return false, ErrEmptyTenantDomain
	}
	audienceType, err := ParseAudienceType(string(audienceType))
	if err != nil {
		return false, fmt.Errorf("failed to check role name: %w", err)
	}

	nameKey := rolecache.NameKey{
		TenantDomain: tenantDomain,
		AudienceType: string(audienceType),
		AudienceID:   audienceID,
		Name:         name,
	}
	if _, ok, negative := s.cache.GetByName(nameKey); ok {
		return !negative, nil
	}

	scope := RoleScope{TenantDomain: tenantDomain, AudienceType: audienceType, AudienceID: audienceID}
	exists, err := s.repo.RoleExists(ctx, scope, name)
	if err != nil {
		return false, err
	}
	if !exists {
		s.cache.PutNegativeByName(nameKey)
	}
	return exists, nil
}

// GetRoles returns one page of the tenant's roles. The everyone pseudo-role
// exclusion and the filter are applied before pagination so page boundaries
// are computed on the post-filter set.
func (s *RoleService) GetRoles(ctx context.Context, params ListRolesParams) ([]RoleBasicInfo, error) {
	if params.TenantDomain == "" {
		return nil, ErrEmptyTenantDomain
	}
	if params.Offset < 0 {
		return nil, ErrInvalidPage{Reason: "offset cannot be negative"}
	}
	sortOrder, err := normalizeSortOrder(params.SortOrder)
	if err != nil {
		return nil, err
	}
	filter, err := parseFilter(params.Filter)
	if err != nil {
		return nil, err
	}
	limit := clampLimit(params.Limit, s.listCfg)

	roles, err := s.repo.ListRoles(ctx, params.TenantDomain)
	if err != nil {
		return nil, err
	}

	filtered := make([]Role, 0, len(roles))
	for _, r := range roles {
		everyone, err := s.resolver.IsEveryoneRole(r.Name, params.TenantDomain)
		if err != nil {
			return nil, fmt.Errorf("failed to check everyone role for %q: %w", r.Name, err)
		}
		if everyone {
			continue
		}
		if !filter.matches(r, directory.StripDomain(r.Name)) {
			continue
		}
		filtered = append(filtered, r)
	}

	sortRoles(filtered, sortOrder)

	result := make([]RoleBasicInfo, 0, limit)
	for _, r := range page(filtered, limit, params.Offset) {
		r.Name = directory.StripDomain(r.Name)
		result = append(result, s.toBasicInfo(ctx, r))
	}
	return result, nil
}

// DeleteRole removes a role and cascades to its permission and membership
// records, then invalidates both cache keys of the deleted role.
func (s *RoleService) DeleteRole(ctx context.Context, id uuid.UUID, tenantDomain string) error {
	if _, err := s.roleInTenant(ctx, id, tenantDomain, true); err != nil {
		return err
	}

	deleted, err := s.repo.DeleteRole(ctx, id, tenantDomain)
	if err != nil {
		return err
	}

	slog.Info("Deleted role", "roleId", id, "name", deleted.Name, "tenant", tenantDomain)
	s.invalidate(deleted)
	return nil
}

// GetPermissionListOfRole returns the permission set of a role.
func (s *RoleService) GetPermissionListOfRole(ctx context.Context, roleID uuid.UUID, tenantDomain string) ([]Permission, error) {
	if _, err := s.roleInTenant(ctx, roleID, tenantDomain, false); err != nil {
		return nil, err
	}
	return s.repo.GetRolePermissions(ctx, roleID)
}

// UpdatePermissionListOfRole replaces a role's permission set using diff
// semantics: permissions only in newPermissions are inserted, permissions
// only in existingPermissions are removed, and names present in both are
// left untouched, keeping their stored display name. An empty diff returns
// without touching the store or the cache.
func (s *RoleService) UpdatePermissionListOfRole(ctx context.Context, roleID uuid.UUID, newPermissions, existingPermissions []Permission, tenantDomain string) error {
	current, err := s.roleInTenant(ctx, roleID, tenantDomain, true)
	if err != nil {
		return err
	}

	added, removed := diffPermissions(newPermissions, existingPermissions)
	if len(added) == 0 && len(removed) == 0 {
		return nil
	}

	if err := s.repo.UpdateRolePermissions(ctx, roleID, added, removed); err != nil {
		return err
	}

	slog.Info("Updated role permissions", "roleId", roleID, "added", len(added), "removed", len(removed))
	s.invalidate(current)
	return nil
}

// GetUserNamesByIDs resolves user identifiers to display names. Identifiers
// the directory can no longer resolve are omitted so membership listings
// degrade gracefully after external deletions.
func (s *RoleService) GetUserNamesByIDs(ctx context.Context, ids []string, tenantDomain string) ([]string, error) {
	names, err := s.resolver.ResolveUserNames(ctx, ids, tenantDomain)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user names: %w", err)
	}
	stripped := make([]string, 0, len(names))
	for _, name := range names {
		stripped = append(stripped, directory.StripDomain(name))
	}
	return stripped, nil
}

// GetGroupNamesByIDs resolves group identifiers to display names keyed by
// identifier. Unresolvable identifiers are omitted.
func (s *RoleService) GetGroupNamesByIDs(ctx context.Context, ids []string, tenantDomain string) (map[string]string, error) {
	names, err := s.resolver.ResolveGroupNames(ctx, ids, tenantDomain)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve group names: %w", err)
	}
	stripped := make(map[string]string, len(names))
	for id, name := range names {
		stripped[id] = directory.StripDomain(name)
	}
	return stripped, nil
}

// GetGroupIDsByNames resolves group names to identifiers for writes. Unlike
// the read direction, an unresolvable name fails the whole call: writes must
// never silently bind to nothing.
func (s *RoleService) GetGroupIDsByNames(ctx context.Context, names []string, tenantDomain string) (map[string]string, error) {
	names = utils.Uniq(names)
	ids, err := s.resolver.ResolveGroupIDs(ctx, names, tenantDomain)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve group ids: %w", err)
	}
	for _, name := range names {
		if _, ok := ids[name]; !ok {
			return nil, ErrUnresolvableIdentity{Kind: "group", Name: name, TenantDomain: tenantDomain}
		}
	}
	return ids, nil
}

// GetUserListOfRole returns the resolvable user names bound to a role.
func (s *RoleService) GetUserListOfRole(ctx context.Context, roleID uuid.UUID, tenantDomain string) ([]string, error) {
	if _, err := s.roleInTenant(ctx, roleID, tenantDomain, false); err != nil {
		return nil, err
	}
	ids, err := s.repo.GetRoleUserIDs(ctx, roleID)
	if err != nil {
		return nil, err
	}
	return s.GetUserNamesByIDs(ctx, ids, tenantDomain)
}

// GetGroupListOfRole returns the resolvable group names bound to a role.
func (s *RoleService) GetGroupListOfRole(ctx context.Context, roleID uuid.UUID, tenantDomain string) ([]string, error) {
	if _, err := s.roleInTenant(ctx, roleID, tenantDomain, false); err != nil {
		return nil, err
	}
	ids, err := s.repo.GetRoleGroupIDs(ctx, roleID)
	if err != nil {
		return nil, err
	}
	names, err := s.GetGroupNamesByIDs(ctx, ids, tenantDomain)
	if err != nil {
		return nil, err
	}
	result := make([]string, 0, len(names))
	for _, name := range names {
		result = append(result, name)
	}
	return result, nil
}

// UpdateUserListOfRole adds and removes user bindings by user name. All
// names must resolve; partial updates are never committed.
func (s *RoleService) UpdateUserListOfRole(ctx context.Context, roleID uuid.UUID, newUserNames, deletedUserNames []string, tenantDomain string) error {
	current, err := s.roleInTenant(ctx, roleID, tenantDomain, true)
	if err != nil {
		return err
	}

	addIDs, err := s.resolveUserNamesStrict(ctx, newUserNames, tenantDomain)
	if err != nil {
		return err
	}
	removeIDs, err := s.resolveUserNamesStrict(ctx, deletedUserNames, tenantDomain)
	if err != nil {
		return err
	}

	update := MemberUpdate{AddUserIDs: addIDs, RemoveUserIDs: removeIDs}
	if update.IsEmpty() {
		return nil
	}
	if err := s.repo.UpdateRoleMembers(ctx, roleID, update); err != nil {
		return err
	}

	s.invalidate(current)
	return nil
}

// UpdateGroupListOfRole adds and removes group bindings by group name. All
// names must resolve; partial updates are never committed.
func (s *RoleService) UpdateGroupListOfRole(ctx context.Context, roleID uuid.UUID, newGroupNames, deletedGroupNames []string, tenantDomain string) error {
	current, err := s.roleInTenant(ctx, roleID, tenantDomain, true)
	if err != nil {
		return err
	}

	addIDs, err := s.GetGroupIDsByNames(ctx, newGroupNames, tenantDomain)
	if err != nil {
		return err
	}
	removeIDs, err := s.GetGroupIDsByNames(ctx, deletedGroupNames, tenantDomain)
	if err != nil {
		return err
	}

	update := MemberUpdate{AddGroupIDs: mapValues(addIDs), RemoveGroupIDs: mapValues(removeIDs)}
	if update.IsEmpty() {
		return nil
	}
	if err := s.repo.UpdateRoleMembers(ctx, roleID, update); err != nil {
		return err
	}

	s.invalidate(current)
	return nil
}

// roleInTenant fetches a role and enforces tenant isolation. Reads surface
// ErrRoleNotFound for cross-tenant ids; mutations surface ErrTenantMismatch
// since the caller explicitly targeted a foreign record.
func (s *RoleService) roleInTenant(ctx context.Context, roleID uuid.UUID, tenantDomain string, mutation bool) (Role, error) {
	if tenantDomain == "" {
		return Role{}, ErrEmptyTenantDomain
	}
	fetched, err := s.repo.GetRoleByID(ctx, roleID)
	if err != nil {
		return Role{}, err
	}
	if fetched.TenantDomain != tenantDomain {
		if mutation {
			return Role{}, ErrTenantMismatch{RoleID: roleID, TenantDomain: tenantDomain}
		}
		return Role{}, ErrRoleNotFound
	}
	return fetched, nil
}

func (s *RoleService) resolveUserNamesStrict(ctx context.Context, names []string, tenantDomain string) ([]string, error) {
	names = utils.Uniq(names)
	if len(names) == 0 {
		return nil, nil
	}
	ids, err := s.resolver.ResolveUserIDs(ctx, names, tenantDomain)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user ids: %w", err)
	}
	if len(ids) != len(names) {
		return nil, ErrUnresolvableIdentity{Kind: "user", TenantDomain: tenantDomain}
	}
	return ids, nil
}

// invalidate drops both cache keys of a role. Runs after the store commit
// so a racing reader cannot repopulate the cache with pre-mutation data.
func (s *RoleService) invalidate(r Role) {
	s.cache.InvalidateByID(rolecache.IDKey{TenantDomain: r.TenantDomain, RoleID: r.ID.String()})
	s.cache.InvalidateByName(nameKeyOf(r))
}

func (s *RoleService) toBasicInfo(ctx context.Context, r Role) RoleBasicInfo {
	info := RoleBasicInfo{
		ID:           r.ID,
		Name:         r.Name,
		AudienceType: r.AudienceType,
		AudienceID:   r.AudienceID,
	}
	audienceName, err := s.audiences.GetAudienceDisplayName(ctx, r.AudienceType, r.AudienceID, r.TenantDomain)
	if err != nil {
		// The audience may have been removed externally; serve the role
		// without its display name rather than failing the read.
		slog.Warn("Failed to resolve audience name", "roleId", r.ID, "audienceId", r.AudienceID, "err", err)
		return info
	}
	info.AudienceName = audienceName
	return info
}

func nameKeyOf(r Role) rolecache.NameKey {
	return rolecache.NameKey{
		TenantDomain: r.TenantDomain,
		AudienceType: string(r.AudienceType),
		AudienceID:   r.AudienceID,
		Name:         r.Name,
	}
}

// diffPermissions computes the symmetric difference of two permission sets
// by name. Display names of unchanged permissions are not rewritten.
func diffPermissions(newPermissions, existingPermissions []Permission) (added, removed []Permission) {
	existingByName := make(map[string]Permission, len(existingPermissions))
	for _, perm := range existingPermissions {
		existingByName[perm.Name] = perm
	}
	newByName := make(map[string]Permission, len(newPermissions))
	for _, perm := range newPermissions {
		newByName[perm.Name] = perm
	}

	for _, perm := range newPermissions {
		if _, ok := existingByName[perm.Name]; !ok {
			if _, dup := firstByName(added, perm.Name); !dup {
				added = append(added, perm)
			}
		}
	}
	for _, perm := range existingPermissions {
		if _, ok := newByName[perm.Name]; !ok {
			if _, dup := firstByName(removed, perm.Name); !dup {
				removed = append(removed, perm)
			}
		}
	}
	return added, removed
}

func firstByName(perms []Permission, name string) (Permission, bool) {
	for _, perm := range perms {
		if perm.Name == name {
			return perm, true
		}
	}
	return Permission{}, false
}

func uniqPermissions(perms []Permission) []Permission {
	seen := make(map[string]struct{}, len(perms))
	result := make([]Permission, 0, len(perms))
	for _, perm := range perms {
		if perm.Name == "" {
			continue
		}
		if _, ok := seen[perm.Name]; ok {
			continue
		}
		seen[perm.Name] = struct{}{}
		result = append(result, perm)
	}
	return result
}

func mapValues(m map[string]string) []string {
	values := make([]string, 0, len(m))
	for _, v := range m {
		values = append(values, v)
	}
	return values
}
