package domain

import "time"

// ActivityType captures what kind of audit record was appended.
type ActivityType string

const (
	ActivityStatusChange   ActivityType = "STATUS_CHANGE"
	ActivityComment        ActivityType = "COMMENT"
	ActivityAssignment     ActivityType = "ASSIGNMENT"
	ActivityTerminalAccess ActivityType = "TERMINAL_ACCESS"
)

// Activity is an immutable audit record attached to a ticket.
// Seq is a per-store insertion sequence used to break created-at ties.
type Activity struct {
	ID        string
	TicketID  string
	Type      ActivityType
	Content   string
	ActorID   *string
	Seq       int64
	CreatedAt time.Time
}
