package domain

import "time"

// UserRole enumerates access levels for console operators.
type UserRole string

const (
	UserRoleAdmin    UserRole = "ADMIN"
	UserRoleOperator UserRole = "OPERATOR"
	UserRoleViewer   UserRole = "VIEWER"
)

// UserStatus represents account lifecycle states.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is a console operator account used by the local identity provider.
type User struct {
	ID                     string
	Username               string
	Name                   string
	Email                  string
	PasswordHash           string
	Role                   UserRole
	Status                 UserStatus
	PasswordChangeRequired bool
	CreatedAt              time.Time
	UpdatedAt              time.Time
}
