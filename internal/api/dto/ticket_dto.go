package dto

import (
	"time"

	"github.com/ops-kit/opsconsole/internal/domain"
	"github.com/ops-kit/opsconsole/internal/service"
)

type CreateTicketRequest struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Priority       string  `json:"priority"`
	Source         string  `json:"source"`
	SourceEventID  *string `json:"sourceEventId"`
	HostID         *string `json:"hostId"`
	OrganizationID *string `json:"organizationId"`
}

type UpdateTicketRequest struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Priority       string  `json:"priority"`
	HostID         *string `json:"hostId"`
	OrganizationID *string `json:"organizationId"`
}

type TicketResponse struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Source            string     `json:"source"`
	SourceEventID     *string    `json:"sourceEventId,omitempty"`
	Status            string     `json:"status"`
	Priority          string     `json:"priority"`
	HostID            *string    `json:"hostId,omitempty"`
	ReporterID        *string    `json:"reporterId,omitempty"`
	AssigneeID        *string    `json:"assigneeId,omitempty"`
	OrganizationID    *string    `json:"organizationId,omitempty"`
	ResolutionSummary *string    `json:"resolutionSummary,omitempty"`
	Version           int64      `json:"version"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
	ResolvedAt        *time.Time `json:"resolvedAt,omitempty"`
}

type ActivityResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticketId"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	ActorID   *string   `json:"actorId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type TicketDetailResponse struct {
	TicketResponse
	Activities []ActivityResponse `json:"activities"`
}

type TicketStatsResponse struct {
	Total      int64 `json:"total"`
	NewCount   int64 `json:"newCount"`
	InProgress int64 `json:"inProgress"`
	Pending    int64 `json:"pending"`
	Resolved   int64 `json:"resolved"`
	Completed  int64 `json:"completed"`
	Closed     int64 `json:"closed"`
	Critical   int64 `json:"critical"`
	High       int64 `json:"high"`
}

func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:                t.ID,
		Title:             t.Title,
		Description:       t.Description,
		Source:            string(t.Source),
		SourceEventID:     t.SourceEventID,
		Status:            string(t.Status),
		Priority:          string(t.Priority),
		HostID:            t.HostID,
		ReporterID:        t.ReporterID,
		AssigneeID:        t.AssigneeID,
		OrganizationID:    t.OrganizationID,
		ResolutionSummary: t.ResolutionSummary,
		Version:           t.Version,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
		ResolvedAt:        t.ResolvedAt,
	}
}

func NewTicketDetailResponse(detail *service.TicketDetail) TicketDetailResponse {
	activities := make([]ActivityResponse, 0, len(detail.Activities))
	for i := range detail.Activities {
		activities = append(activities, NewActivityResponse(&detail.Activities[i]))
	}
	return TicketDetailResponse{
		TicketResponse: NewTicketResponse(detail.Ticket),
		Activities:     activities,
	}
}

func NewActivityResponse(a *domain.Activity) ActivityResponse {
	return ActivityResponse{
		ID:        a.ID,
		TicketID:  a.TicketID,
		Type:      string(a.Type),
		Content:   a.Content,
		ActorID:   a.ActorID,
		CreatedAt: a.CreatedAt,
	}
}

func NewTicketStatsResponse(s *service.TicketStats) TicketStatsResponse {
	return TicketStatsResponse{
		Total:      s.Total,
		NewCount:   s.New,
		InProgress: s.InProgress,
		Pending:    s.Pending,
		Resolved:   s.Resolved,
		Completed:  s.Completed,
		Closed:     s.Closed,
		Critical:   s.Critical,
		High:       s.High,
	}
}

func NewTicketListResponse(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, NewTicketResponse(&tickets[i]))
	}
	return out
}
