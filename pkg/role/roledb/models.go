package roledb

import (
	"time"

	"github.com/google/uuid"
)

type Role struct {
	ID             uuid.UUID
	Name           string
	AudienceType   string
	AudienceID     string
	TenantID       string
	CreatedAt      time.Time
	LastModifiedAt time.Time
}

type RolePermission struct {
	RoleID      uuid.UUID
	Name        string
	DisplayName string
}

type RoleUser struct {
	RoleID uuid.UUID
	UserID string
}

type RoleGroup struct {
	RoleID  uuid.UUID
	GroupID string
}
