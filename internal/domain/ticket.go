package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "NEW"
	TicketStatusReceived   TicketStatus = "RECEIVED"
	TicketStatusAssigned   TicketStatus = "ASSIGNED"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusPending    TicketStatus = "PENDING"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusCompleted  TicketStatus = "COMPLETED"
	TicketStatusClosed     TicketStatus = "CLOSED"
	TicketStatusReopened   TicketStatus = "REOPENED"
)

// allowedTransitions is the authoritative set of legal status edges.
// REOPENED is a distinct resting state; work resumes at IN_PROGRESS.
var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusNew:        {TicketStatusReceived},
	TicketStatusReceived:   {TicketStatusAssigned},
	TicketStatusAssigned:   {TicketStatusInProgress},
	TicketStatusInProgress: {TicketStatusPending, TicketStatusResolved},
	TicketStatusPending:    {TicketStatusInProgress},
	TicketStatusResolved:   {TicketStatusCompleted, TicketStatusReopened},
	TicketStatusCompleted:  {TicketStatusClosed, TicketStatusReopened},
	TicketStatusClosed:     {TicketStatusReopened},
	TicketStatusReopened:   {TicketStatusInProgress},
}

// CanTransitionTo reports whether the status change is on the transition table.
func (s TicketStatus) CanTransitionTo(next TicketStatus) bool {
	for _, candidate := range allowedTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// IsValid reports whether s is a known status value.
func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketStatusNew, TicketStatusReceived, TicketStatusAssigned,
		TicketStatusInProgress, TicketStatusPending, TicketStatusResolved,
		TicketStatusCompleted, TicketStatusClosed, TicketStatusReopened:
		return true
	}
	return false
}

// OpenStatuses lists the non-terminal states shown on the open-ticket views.
func OpenStatuses() []TicketStatus {
	return []TicketStatus{
		TicketStatusNew,
		TicketStatusReceived,
		TicketStatusAssigned,
		TicketStatusInProgress,
		TicketStatusPending,
		TicketStatusReopened,
	}
}

// TicketPriority enumerates incident urgency.
type TicketPriority string

const (
	TicketPriorityCritical TicketPriority = "CRITICAL"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityLow      TicketPriority = "LOW"
)

// IsValid reports whether p is a known priority value.
func (p TicketPriority) IsValid() bool {
	switch p {
	case TicketPriorityCritical, TicketPriorityHigh, TicketPriorityMedium, TicketPriorityLow:
		return true
	}
	return false
}

// TicketSource identifies where a ticket originated.
type TicketSource string

const (
	TicketSourceManual          TicketSource = "MANUAL"
	TicketSourceUptimeKuma      TicketSource = "UPTIME_KUMA"
	TicketSourcePrometheus      TicketSource = "PROMETHEUS"
	TicketSourceCustomerRequest TicketSource = "CUSTOMER_REQUEST"
)

// Ticket is the aggregate for tracked operational work.
//
// Version increments on every status write and backs the optimistic
// concurrency check in the repository.
type Ticket struct {
	ID                string
	Title             string
	Description       string
	Source            TicketSource
	SourceEventID     *string
	Status            TicketStatus
	Priority          TicketPriority
	HostID            *string
	ReporterID        *string
	AssigneeID        *string
	OrganizationID    *string
	ResolutionSummary *string
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ResolvedAt        *time.Time
}
