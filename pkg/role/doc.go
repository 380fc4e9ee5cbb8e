// Package role implements tenant-aware role and permission management for
// simple-rbac.
//
// A role belongs to exactly one tenant and is scoped to an audience, either
// an ORGANIZATION or an APPLICATION. Role names are unique within their
// (tenant, audience) scope; the uniqueness constraint lives in the storage
// layer, so concurrent creations of the same name resolve to one winner.
//
// # Overview
//
// The role package provides:
//   - Role lifecycle (create with permissions and members, read, list, delete)
//   - Diff-based permission set updates
//   - User and group membership management via a directory resolver
//   - Paginated, filtered, deterministic role listings
//   - An invalidation-aware read cache kept coherent by every mutation
//
// # Basic Usage
//
//	import "github.com/tendant/simple-rbac/pkg/role"
//
//	repo := role.NewPostgresRoleRepository(pool)
//	service := role.NewRoleService(repo, resolver, audiences, listCfg)
//
//	info, err := service.AddRole(ctx, "auditor",
//		[]string{"userID1"}, []string{"groupID1"},
//		[]role.Permission{{Name: "read", DisplayName: "Read"}},
//		role.ApplicationAudience, "test-app-id", "wso2.com")
//
//	perms, err := service.GetPermissionListOfRole(ctx, info.ID, "wso2.com")
//
// # Permission Updates
//
// Permission updates are expressed as the difference between the known
// existing set and the desired new set. Names present in both are left
// untouched, so an unchanged permission keeps its stored display name and a
// repeated update computes an empty diff:
//
//	err := service.UpdatePermissionListOfRole(ctx, info.ID,
//		[]role.Permission{{Name: "view"}, {Name: "update"}},
//		perms, "wso2.com")
//
// # Listings
//
// GetRoles pages over the tenant's roles ordered by name with audience ID
// as tiebreak. The reserved everyone pseudo-role and the optional filter
// (for example "name co admin") are applied before page boundaries are
// computed.
//
// # Related Packages
//
//   - pkg/directory - user/group name and identifier resolution
//   - pkg/rolecache - the dual-keyed invalidation cache
//   - pkg/role/roledb - PostgreSQL query layer
package role
