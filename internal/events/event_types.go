package events

import (
	"time"

	"github.com/ops-kit/opsconsole/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketCommented     EventType = "ticket_commented"
	EventLoginSucceeded      EventType = "login_succeeded"
	EventTokenRefreshed      EventType = "token_refreshed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id,omitempty"`
	ActorID   *string     `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title    string                `json:"title"`
	Source   domain.TicketSource   `json:"source"`
	Priority domain.TicketPriority `json:"priority"`
	HostID   *string               `json:"host_id,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Reason    string              `json:"reason,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssigneeID string `json:"assignee_id"`
}

// TicketCommentedPayload payload.
type TicketCommentedPayload struct {
	Preview string `json:"preview"`
}

// AuthAuditPayload records subject and outcome for login/refresh events.
type AuthAuditPayload struct {
	Subject  string `json:"subject"`
	Username string `json:"username"`
}
