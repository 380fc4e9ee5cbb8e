package role

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AudienceType identifies the kind of entity a role is scoped to.
type AudienceType string

const (
	// OrganizationAudience scopes a role to an organization.
	OrganizationAudience AudienceType = "ORGANIZATION"
	// ApplicationAudience scopes a role to an application.
	ApplicationAudience AudienceType = "APPLICATION"
)

// ParseAudienceType converts a string to an AudienceType, case-insensitively.
func ParseAudienceType(s string) (AudienceType, error) {
	switch strings.ToUpper(s) {
	case string(OrganizationAudience):
		return OrganizationAudience, nil
	case string(ApplicationAudience):
		return ApplicationAudience, nil
	default:
		return "", fmt.Errorf("unknown audience type: %q", s)
	}
}

// Role is a persisted role record. ID, audience and tenant are immutable
// after creation.
type Role struct {
	ID             uuid.UUID
	Name           string
	AudienceType   AudienceType
	AudienceID     string
	TenantDomain   string
	CreatedAt      time.Time
	LastModifiedAt time.Time
}

// Permission is one entry of a role's permission set. Name is the identity
// used for diff computation; DisplayName is payload written on insert only.
type Permission struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// RoleBasicInfo is the read projection served by listing and detail
// operations. AudienceName is resolved at read time and never persisted or
// cached, so audience renames are always reflected.
type RoleBasicInfo struct {
	ID           uuid.UUID    `json:"id"`
	Name         string       `json:"name"`
	AudienceType AudienceType `json:"audience_type"`
	AudienceID   string       `json:"audience_id"`
	AudienceName string       `json:"audience_name,omitempty"`
}

// RoleScope is the uniqueness scope of a role name: one audience within one
// tenant.
type RoleScope struct {
	TenantDomain string
	AudienceType AudienceType
	AudienceID   string
}

// CreateRoleParams carries everything persisted atomically by AddRole.
type CreateRoleParams struct {
	Name         string
	UserIDs      []string
	GroupIDs     []string
	Permissions  []Permission
	AudienceType AudienceType
	AudienceID   string
	TenantDomain string
}

// MemberUpdate is a set-difference update of a role's membership bindings.
type MemberUpdate struct {
	AddUserIDs     []string
	RemoveUserIDs  []string
	AddGroupIDs    []string
	RemoveGroupIDs []string
}

// IsEmpty reports whether the update carries no changes.
func (m MemberUpdate) IsEmpty() bool {
	return len(m.AddUserIDs) == 0 && len(m.RemoveUserIDs) == 0 &&
		len(m.AddGroupIDs) == 0 && len(m.RemoveGroupIDs) == 0
}
