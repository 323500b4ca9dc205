package domain

import "time"

// HostStatus represents the operational state of a managed host.
type HostStatus string

const (
	HostStatusActive      HostStatus = "ACTIVE"
	HostStatusInactive    HostStatus = "INACTIVE"
	HostStatusMaintenance HostStatus = "MAINTENANCE"
)

// IsValid reports whether s is a known host status value.
func (s HostStatus) IsValid() bool {
	switch s {
	case HostStatusActive, HostStatusInactive, HostStatusMaintenance:
		return true
	}
	return false
}

// Host is a managed server referenced by tickets.
type Host struct {
	ID             string
	Name           string
	Description    string
	Status         HostStatus
	Tags           []string
	OrganizationID *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
