package directory

import (
	"context"
	"strings"
)

// PrimaryDomain is the default user store domain assumed when a user or
// group name carries no explicit domain qualifier.
const PrimaryDomain = "PRIMARY"

// DomainSeparator joins a user store domain and a name, e.g. "PRIMARY/alice".
const DomainSeparator = "/"

// Resolver translates between human-readable user/group names and their
// stable identifiers, scoped to a tenant domain. It is an external identity
// store boundary; implementations typically wrap an LDAP or SCIM directory.
type Resolver interface {
	// ResolveUserIDs maps user names to user IDs. Names that cannot be
	// resolved are omitted from the result.
	ResolveUserIDs(ctx context.Context, names []string, tenantDomain string) ([]string, error)

	// ResolveGroupIDs maps group names to group IDs, keyed by the name as
	// given. Names that cannot be resolved are omitted.
	ResolveGroupIDs(ctx context.Context, names []string, tenantDomain string) (map[string]string, error)

	// ResolveUserNames maps user IDs to user names. IDs that cannot be
	// resolved are omitted from the result.
	ResolveUserNames(ctx context.Context, ids []string, tenantDomain string) ([]string, error)

	// ResolveGroupNames maps group IDs to group names, keyed by ID. IDs that
	// cannot be resolved are omitted.
	ResolveGroupNames(ctx context.Context, ids []string, tenantDomain string) (map[string]string, error)

	// IsEveryoneRole reports whether the given role name is the reserved
	// pseudo-role that represents all users of the tenant.
	IsEveryoneRole(name string, tenantDomain string) (bool, error)
}

// ExtractDomain returns the user store domain portion of a qualified name.
// A name without a qualifier belongs to the primary domain.
func ExtractDomain(name string) string {
	if i := strings.Index(name, DomainSeparator); i > 0 {
		return strings.ToUpper(name[:i])
	}
	return PrimaryDomain
}

// StripDomain removes the user store domain qualifier from a name.
func StripDomain(name string) string {
	if i := strings.Index(name, DomainSeparator); i >= 0 {
		return name[i+len(DomainSeparator):]
	}
	return name
}

// QualifyName prefixes name with the given domain. An empty domain defaults
// to the primary domain. Already-qualified names are re-qualified so that
// lookups stay domain-insensitive regardless of caller input.
func QualifyName(domain, name string) string {
	if domain == "" {
		domain = PrimaryDomain
	}
	return strings.ToUpper(domain) + DomainSeparator + StripDomain(name)
}
