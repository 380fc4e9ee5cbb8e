package role

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-rbac/pkg/config"
	"github.com/tendant/simple-rbac/pkg/directory"
)

const testTenant = "wso2.com"

func newTestResolver() *directory.InMemResolver {
	resolver := directory.NewInMemResolver()
	resolver.AddUser(testTenant, "user1", "userID1")
	resolver.AddUser(testTenant, "user2", "userID2")
	resolver.AddGroup(testTenant, "group1", "groupID1")
	resolver.AddGroup(testTenant, "group2", "groupID2")
	resolver.SetEveryoneRole(testTenant, "everyone")
	return resolver
}

func newTestService(t *testing.T) (*RoleService, *InMemoryRoleRepository, *directory.InMemResolver) {
	t.Helper()

	repo := NewInMemoryRoleRepository()
	resolver := newTestResolver()
	audiences := StaticAudienceLookup{Names: map[string]string{
		"test-app-id": "TEST_APP_NAME",
		"test-org-id": "test-org",
	}}
	listCfg := config.RoleListConfig{DefaultItemsPerPage: 100, MaximumItemsPerPage: 100}
	return NewRoleService(repo, resolver, audiences, listCfg), repo, resolver
}

func addTestRole(t *testing.T, service *RoleService, name string, audienceType AudienceType, audienceID string) RoleBasicInfo {
	t.Helper()

	info, err := service.AddRole(context.Background(), name,
		[]string{"userID1", "userID2"}, []string{"groupID1", "groupID2"},
		[]Permission{{Name: "read", DisplayName: "read"}, {Name: "write", DisplayName: "write"}},
		audienceType, audienceID, testTenant)
	require.NoError(t, err)
	return info
}

func TestAddOrgRole(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	addTestRole(t, service, "role1", OrganizationAudience, "test-org-id")

	exists, err := service.IsExistingRoleName(ctx, "role1", OrganizationAudience, "test-org-id", testTenant)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAddAppRole(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	addTestRole(t, service, "role1", ApplicationAudience, "test-app-id")

	exists, err := service.IsExistingRoleName(ctx, "role1", ApplicationAudience, "test-app-id", testTenant)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAddRoleValidation(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	tests := []struct {
		name         string
		roleName     string
		audienceType AudienceType
		audienceID   string
		tenant       string
		wantErr      error
	}{
		{name: "empty role name", roleName: "", audienceType: ApplicationAudience, audienceID: "a", tenant: testTenant, wantErr: ErrEmptyRoleName},
		{name: "empty tenant", roleName: "r", audienceType: ApplicationAudience, audienceID: "a", tenant: "", wantErr: ErrEmptyTenantDomain},
		{name: "empty audience id", roleName: "r", audienceType: ApplicationAudience, audienceID: "", tenant: testTenant, wantErr: ErrEmptyAudienceID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.AddRole(ctx, tt.roleName, nil, nil, nil, tt.audienceType, tt.audienceID, tt.tenant)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := service.AddRole(ctx, "r", nil, nil, nil, "TEAM", "a", testTenant)
	assert.Error(t, err)
}

func TestAddRoleNormalizesAudienceTypeCase(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	// Lowercase input is stored canonically, so the role is visible under
	// the canonical audience type and its uniqueness scope is shared.
	info, err := service.AddRole(ctx, "role1", nil, nil, nil,
		AudienceType("application"), "test-app-id", testTenant)
	require.NoError(t, err)
	assert.Equal(t, ApplicationAudience, info.AudienceType)

	exists, err := service.IsExistingRoleName(ctx, "role1", ApplicationAudience, "test-app-id", testTenant)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = service.IsExistingRoleName(ctx, "role1", AudienceType("Application"), "test-app-id", testTenant)
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = service.AddRole(ctx, "role1", nil, nil, nil,
		ApplicationAudience, "test-app-id", testTenant)
	var dup ErrRoleAlreadyExists
	require.ErrorAs(t, err, &dup)

	fetched, err := service.GetRoleBasicInfoByID(ctx, info.ID, testTenant)
	require.NoError(t, err)
	assert.Equal(t, ApplicationAudience, fetched.AudienceType)
}

func TestAddRoleDuplicateName(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	addTestRole(t, service, "role1", ApplicationAudience, "test-app-id")

	_, err := service.AddRole(ctx, "role1", nil, nil, nil, ApplicationAudience, "test-app-id", testTenant)
	var dup ErrRoleAlreadyExists
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "role1", dup.Name)

	// Same name under a different audience is a different scope.
	_, err = service.AddRole(ctx, "role1", nil, nil, nil, OrganizationAudience, "test-org-id", testTenant)
	assert.NoError(t, err)
}

func TestAddRoleConcurrentSameName(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = service.AddRole(ctx, "contested", nil, nil, nil,
				ApplicationAudience, "test-app-id", testTenant)
		}(i)
	}
	wg.Wait()

	var successes, duplicates int
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		var dup ErrRoleAlreadyExists
		if errors.As(err, &dup) {
			duplicates++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, callers-1, duplicates)
}

func TestGetRoleBasicInfoById(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	created := addTestRole(t, service, "role1", ApplicationAudience, "test-app-id")

	info, err := service.GetRoleBasicInfoByID(ctx, created.ID, testTenant)
	require.NoError(t, err)
	assert.Equal(t, "role1", info.Name)
	assert.Equal(t, ApplicationAudience, info.AudienceType)
	assert.Equal(t, "test-app-id", info.AudienceID)
	assert.Equal(t, "TEST_APP_NAME", info.AudienceName)
}

func TestGetRoleBasicInfoByIdNotFound(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	_, err := service.GetRoleBasicInfoByID(ctx, uuid.New(), testTenant)
	assert.ErrorIs(t, err, ErrRoleNotFound)
}

func TestGetRoleBasicInfoByIdTenantIsolation(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	created := addTestRole(t, service, "role1", ApplicationAudience, "test-app-id")

	// A different tenant must not learn the role exists.
	_, err := service.GetRoleBasicInfoByID(ctx, created.ID, "other.com")
	assert.ErrorIs(t, err, ErrRoleNotFound)
}

func TestGetRoleBasicInfoByIdServedFromCache(t *testing.T) {
	ctx := context.Background()
	service, repo, _ := newTestService(t)

	created := addTestRole(t, service, "role1", ApplicationAudience, "test-app-id")

	// Populate the cache.
	_, err := service.GetRoleBasicInfoByID(ctx, created.ID, testTenant)
	require.NoError(t, err)

	// Mutate behind the service's back; the cached record still serves.
	repo.Rename(created.ID, "renamed")
	info, err := service.GetRoleBasicInfoByID(ctx, created.ID, testTenant)
	require.NoError(t, err)
	assert.Equal(t, "role1", info.Name)

	// A mutation through the service invalidates, and the next read sees
	// the store's state.
	err = service.UpdatePermissionListOfRole(ctx, created.ID,
		[]Permission{{Name: "read"}, {Name: "write"}, {Name: "view", DisplayName: "view"}},
		[]Permission{{Name: "read"}, {Name: "write"}}, testTenant)
	require.NoError(t, err)

	info, err = service.GetRoleBasicInfoByID(ctx, created.ID, testTenant)
	require.NoError(t, err)
	assert.Equal(t, "renamed", info.Name)
}

func TestIsExistingRoleNameNegativeCache(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	exists, err := service.IsExistingRoleName(ctx, "role1", ApplicationAudience, "test-app-id", testTenant)
	require.NoError(t, err)
	assert.False(t, exists)

	// Adding the role must drop the stale negative entry.
	addTestRole(t, service, "role1", ApplicationAudience, "test-app-id")

	exists, err = service.IsExistingRoleName(ctx, "role1", ApplicationAudience, "test-app-id", testTenant)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestGetPermissionListOfRole(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	created := addTestRole(t, service, "role1", ApplicationAudience, "test-app-id")

	perms, err := service.GetPermissionListOfRole(ctx, created.ID, testTenant)
	require.NoError(t, err)
	assert.Equal(t, []Permission{
		{Name: "read", DisplayName: "read"},
		{Name: "write", DisplayName: "write"},
	}, perms)
}

func TestUpdatePermissionListOfRole(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	created := addTestRole(t, service, "role1", ApplicationAudience, "test-app-id")
	existing := []Permission{{Name: "read", DisplayName: "read"}, {Name: "write", DisplayName: "write"}}
	updated := []Permission{{Name: "view", DisplayName: "view"}, {Name: "update", DisplayName: "update"}}

	err := service.UpdatePermissionListOfRole(ctx, created.ID, updated, existing, testTenant)
	require.NoError(t, err)

	perms, err := service.GetPermissionListOfRole(ctx, created.ID, testTenant)
	require.NoError(t, err)
	assert.Equal(t, []Permission{
		{Name: "update", DisplayName: "update"},
		{Name: "view", DisplayName: "view"},
	}, perms)
}

func TestUpdatePermissionListOfRoleIdempotent(t *testing.T) {
	ctx := context.Background()
	service, repo, _ := newTestService(t)

	created := addTestRole(t, service, "role1", ApplicationAudience, "test-app-id")
	existing := []Permission{{Name: "read", DisplayName: "read"}, {Name: "write", DisplayName: "write"}}
	updated := []Permission{{Name: "view", DisplayName: "view"}, {Name: "update", DisplayName: "update"}}

	require.NoError(t, service.UpdatePermissionListOfRole(ctx, created.ID, updated, existing, testTenant))
	after, err := repo.GetRolePermissions(ctx, created.ID)
	require.NoError(t, err)

	// Re-applying the same target set against the new state is a no-op.
	require.NoError(t, service.UpdatePermissionListOfRole(ctx, created.ID, updated, after, testTenant))

	perms, err := service.GetPermissionListOfRole(ctx, created.ID, testTenant)
	require.NoError(t, err)
	assert.Equal(t, after, perms)
}

func TestUpdatePermissionListOfRoleKeepsUnchangedDisplayName(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	created := addTestRole(t, service, "role1", ApplicationAudience, "test-app-id")
	existing := []Permission{{Name: "read", DisplayName: "read"}, {Name: "write", DisplayName: "write"}}
	// "read" stays, with a different display name in the request.
	updated := []Permission{{Name: "read", DisplayName: "READ ALL"}, {Name: "view", DisplayName: "view"}}

	require.NoError(t, service.UpdatePermissionListOfRole(ctx, created.ID, updated, existing, testTenant))

	perms, err := service.GetPermissionListOfRole(ctx, created.ID, testTenant)
	require.NoError(t, err)
	assert.Equal(t, []Permission{
		{Name: "read", DisplayName: "read"},
		{Name: "view", DisplayName: "view"},
	}, perms)
}

func TestUpdatePermissionListOfRoleTenantMismatch(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	created := addTestRole(t, service, "role1", ApplicationAudience, "test-app-id")

	err := service.UpdatePermissionListOfRole(ctx, created.ID,
		[]Permission{{Name: "view"}}, nil, "other.com")
	var mismatch ErrTenantMismatch
	assert.ErrorAs(t, err, &mismatch)
}

func TestDeleteRole(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	created := addTestRole(t, service, "role1", ApplicationAudience, "test-app-id")

	// Populate the cache before deleting.
	_, err := service.GetRoleBasicInfoByID(ctx, created.ID, testTenant)
	require.NoError(t, err)

	require.NoError(t, service.DeleteRole(ctx, created.ID, testTenant))

	_, err = service.GetRoleBasicInfoByID(ctx, created.ID, testTenant)
	assert.ErrorIs(t, err, ErrRoleNotFound)

	roles, err := service.GetRoles(ctx, ListRolesParams{TenantDomain: testTenant})
	require.NoError(t, err)
	assert.Empty(t, roles)

	exists, err := service.IsExistingRoleName(ctx, "role1", ApplicationAudience, "test-app-id", testTenant)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDeleteRoleNotFound(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	err := service.DeleteRole(ctx, uuid.New(), testTenant)
	assert.ErrorIs(t, err, ErrRoleNotFound)
}

func TestDeleteRoleTenantMismatch(t *testing.T) {
	ctx := context.Background()
	service, repo, _ := newTestService(t)

	created := addTestRole(t, service, "role1", ApplicationAudience, "test-app-id")

	err := service.DeleteRole(ctx, created.ID, "other.com")
	var mismatch ErrTenantMismatch
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, created.ID, mismatch.RoleID)

	// The role is untouched.
	_, err = repo.GetRoleByID(ctx, created.ID)
	assert.NoError(t, err)
}

func TestDeleteRoleCascades(t *testing.T) {
	ctx := context.Background()
	service, repo, _ := newTestService(t)

	created := addTestRole(t, service, "role1", ApplicationAudience, "test-app-id")
	require.NoError(t, service.DeleteRole(ctx, created.ID, testTenant))

	perms, err := repo.GetRolePermissions(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, perms)

	userIDs, err := repo.GetRoleUserIDs(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, userIDs)
}

func TestMembershipReads(t *testing.T) {
	ctx := context.Background()
	service, _, resolver := newTestService(t)

	created := addTestRole(t, service, "role1", ApplicationAudience, "test-app-id")

	users, err := service.GetUserListOfRole(ctx, created.ID, testTenant)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"user1", "user2"}, users)

	groups, err := service.GetGroupListOfRole(ctx, created.ID, testTenant)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"group1", "group2"}, groups)

	// Externally deleted users are omitted, not an error.
	resolver.RemoveUser(testTenant, "userID2")
	users, err = service.GetUserListOfRole(ctx, created.ID, testTenant)
	require.NoError(t, err)
	assert.Equal(t, []string{"user1"}, users)
}

func TestGetGroupIDsByNames(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	ids, err := service.GetGroupIDsByNames(ctx, []string{"group1", "group2"}, testTenant)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"group1": "groupID1", "group2": "groupID2"}, ids)

	_, err = service.GetGroupIDsByNames(ctx, []string{"group1", "ghost"}, testTenant)
	var unresolvable ErrUnresolvableIdentity
	require.ErrorAs(t, err, &unresolvable)
	assert.Equal(t, "ghost", unresolvable.Name)
}

func TestUpdateUserListOfRole(t *testing.T) {
	ctx := context.Background()
	service, repo, _ := newTestService(t)

	info, err := service.AddRole(ctx, "role1", []string{"userID1"}, nil, nil,
		ApplicationAudience, "test-app-id", testTenant)
	require.NoError(t, err)

	require.NoError(t, service.UpdateUserListOfRole(ctx, info.ID,
		[]string{"user2"}, []string{"user1"}, testTenant))

	ids, err := repo.GetRoleUserIDs(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"userID2"}, ids)

	// Unresolvable names fail the whole update.
	err = service.UpdateUserListOfRole(ctx, info.ID, []string{"ghost"}, nil, testTenant)
	var unresolvable ErrUnresolvableIdentity
	assert.ErrorAs(t, err, &unresolvable)
}

func TestUpdateGroupListOfRole(t *testing.T) {
	ctx := context.Background()
	service, repo, _ := newTestService(t)

	info, err := service.AddRole(ctx, "role1", nil, []string{"groupID1"}, nil,
		ApplicationAudience, "test-app-id", testTenant)
	require.NoError(t, err)

	require.NoError(t, service.UpdateGroupListOfRole(ctx, info.ID,
		[]string{"group2"}, []string{"group1"}, testTenant))

	ids, err := repo.GetRoleGroupIDs(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"groupID2"}, ids)
}

func TestRoleScenario(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	info, err := service.AddRole(ctx, "role1", nil, nil,
		[]Permission{{Name: "read", DisplayName: "read"}, {Name: "write", DisplayName: "write"}},
		ApplicationAudience, "test-app-id", testTenant)
	require.NoError(t, err)

	exists, err := service.IsExistingRoleName(ctx, "role1", ApplicationAudience, "test-app-id", testTenant)
	require.NoError(t, err)
	assert.True(t, exists)

	err = service.UpdatePermissionListOfRole(ctx, info.ID,
		[]Permission{{Name: "view", DisplayName: "view"}, {Name: "update", DisplayName: "update"}},
		[]Permission{{Name: "read", DisplayName: "read"}, {Name: "write", DisplayName: "write"}},
		testTenant)
	require.NoError(t, err)

	perms, err := service.GetPermissionListOfRole(ctx, info.ID, testTenant)
	require.NoError(t, err)
	names := make([]string, 0, len(perms))
	for _, perm := range perms {
		names = append(names, perm.Name)
	}
	assert.ElementsMatch(t, []string{"view", "update"}, names)
}

func TestAddRolePermissionRoundTrip(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	// Insertion order must not matter.
	perms := []Permission{
		{Name: "write", DisplayName: "write"},
		{Name: "read", DisplayName: "read"},
		{Name: "write", DisplayName: "write duplicate"},
	}
	info, err := service.AddRole(ctx, "role1", []string{"userID1"}, []string{"groupID1"},
		perms, OrganizationAudience, "test-org-id", testTenant)
	require.NoError(t, err)

	got, err := service.GetPermissionListOfRole(ctx, info.ID, testTenant)
	require.NoError(t, err)
	names := make([]string, 0, len(got))
	for _, perm := range got {
		names = append(names, perm.Name)
	}
	assert.ElementsMatch(t, []string{"read", "write"}, names)
}

func TestAudienceLookupFailureDegrades(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRoleRepository()
	service := NewRoleService(repo, newTestResolver(),
		StaticAudienceLookup{Names: map[string]string{}},
		config.RoleListConfig{DefaultItemsPerPage: 100, MaximumItemsPerPage: 100})

	info, err := service.AddRole(ctx, "role1", nil, nil, nil,
		ApplicationAudience, "unknown-app", testTenant)
	require.NoError(t, err)
	assert.Empty(t, info.AudienceName)

	fetched, err := service.GetRoleBasicInfoByID(ctx, info.ID, testTenant)
	require.NoError(t, err)
	assert.Equal(t, "role1", fetched.Name)
	assert.Empty(t, fetched.AudienceName)
}

func TestGetRolesExcludesOtherTenants(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	addTestRole(t, service, "role1", ApplicationAudience, "test-app-id")

	roles, err := service.GetRoles(ctx, ListRolesParams{TenantDomain: "other.com"})
	require.NoError(t, err)
	assert.Empty(t, roles)
}

func TestStorageUnavailableWrapping(t *testing.T) {
	err := ErrStorageUnavailable{Err: fmt.Errorf("connection refused")}
	assert.Contains(t, err.Error(), "storage unavailable")
	assert.EqualError(t, errors.Unwrap(err), "connection refused")
}
