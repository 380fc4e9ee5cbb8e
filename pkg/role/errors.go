package role

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrRoleNotFound is returned when a role does not exist in the caller's
	// tenant. Cross-tenant reads surface this error rather than revealing
	// the record's existence.
	ErrRoleNotFound = errors.New("role not found")

	// ErrEmptyRoleName is returned when a role name is empty
	ErrEmptyRoleName = errors.New("role name cannot be empty")

	// ErrEmptyTenantDomain is returned when an operation is missing its tenant scope
	ErrEmptyTenantDomain = errors.New("tenant domain cannot be empty")

	// ErrEmptyAudienceID is returned when a role is created without an audience
	ErrEmptyAudienceID = errors.New("audience id cannot be empty")
)

// ErrRoleAlreadyExists is returned when a role name already exists within
// its (tenant, audience) scope. It is the surfaced form of the storage
// layer's uniqueness constraint violation, which makes it authoritative
// under concurrent creation.
type ErrRoleAlreadyExists struct {
	Name         string
	AudienceType AudienceType
	AudienceID   string
	TenantDomain string
}

func (e ErrRoleAlreadyExists) Error() string {
	return fmt.Sprintf("role %q already exists for audience %s/%s in tenant %s",
		e.Name, e.AudienceType, e.AudienceID, e.TenantDomain)
}

// ErrUnresolvableIdentity is returned when a write references a user or
// group name the directory cannot resolve. Writes never bind silently to
// nothing; reads degrade gracefully instead.
type ErrUnresolvableIdentity struct {
	Kind         string // "user" or "group"
	Name         string // empty when the directory cannot say which name failed
	TenantDomain string
}

func (e ErrUnresolvableIdentity) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("one or more %s names could not be resolved in tenant %s", e.Kind, e.TenantDomain)
	}
	return fmt.Sprintf("%s %q could not be resolved in tenant %s", e.Kind, e.Name, e.TenantDomain)
}

// ErrTenantMismatch is returned when a mutation targets a role owned by a
// different tenant.
type ErrTenantMismatch struct {
	RoleID       uuid.UUID
	TenantDomain string
}

func (e ErrTenantMismatch) Error() string {
	return fmt.Sprintf("role %s does not belong to tenant %s", e.RoleID, e.TenantDomain)
}

// ErrInvalidPage is returned for malformed limit/offset/filter/sort input.
type ErrInvalidPage struct {
	Reason string
}

func (e ErrInvalidPage) Error() string {
	return fmt.Sprintf("invalid page request: %s", e.Reason)
}

// ErrStorageUnavailable wraps a transient backing-store failure. It is the
// only error class eligible for caller-directed retry; the store never
// retries internally.
type ErrStorageUnavailable struct {
	Err error
}

func (e ErrStorageUnavailable) Error() string {
	return fmt.Sprintf("storage unavailable: %v", e.Err)
}

func (e ErrStorageUnavailable) Unwrap() error {
	return e.Err
}
