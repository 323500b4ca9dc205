package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ops-kit/opsconsole/internal/domain"
	"github.com/ops-kit/opsconsole/internal/events"
	"github.com/ops-kit/opsconsole/internal/repository"
	apperrors "github.com/ops-kit/opsconsole/pkg/util"
)

// TicketService is the authority for the ticket lifecycle: it validates
// every status change against the transition table and appends the audit
// trail atomically with the change.
type TicketService struct {
	tickets    repository.TicketRepository
	activities repository.ActivityRepository
	hosts      repository.HostRepository
	dispatcher events.Dispatcher
}

// TicketDependencies bundles repositories for the ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	ActivityRepo repository.ActivityRepository
	HostRepo     repository.HostRepository
	Dispatcher   events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		activities: deps.ActivityRepo,
		hosts:      deps.HostRepo,
		dispatcher: deps.Dispatcher,
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title          string
	Description    string
	Source         domain.TicketSource
	SourceEventID  *string
	Priority       domain.TicketPriority
	HostID         *string
	ReporterID     *string
	OrganizationID *string
}

// TicketUpdateInput describes the mutable fields; status is never among them.
type TicketUpdateInput struct {
	Title          string
	Description    string
	Priority       domain.TicketPriority
	HostID         *string
	OrganizationID *string
}

// TicketDetail pairs a ticket with its ordered activity trail.
type TicketDetail struct {
	Ticket     *domain.Ticket
	Activities []domain.Activity
}

// TicketStats is the aggregate exposed by the stats endpoint.
type TicketStats struct {
	Total      int64
	New        int64
	InProgress int64
	Pending    int64
	Resolved   int64
	Completed  int64
	Closed     int64
	Critical   int64
	High       int64
}

// Create opens a new ticket in status NEW. A create carrying an already
// seen source event id returns the existing ticket instead of a duplicate.
func (s *TicketService) Create(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", map[string]any{"field": "title"})
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !priority.IsValid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}
	source := input.Source
	if source == "" {
		source = domain.TicketSourceManual
	}

	if input.SourceEventID != nil && *input.SourceEventID != "" {
		existing, err := s.tickets.GetBySourceEventID(ctx, *input.SourceEventID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(err)
		}
	}

	if input.HostID != nil {
		if _, err := s.hosts.GetByID(ctx, *input.HostID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("host", map[string]any{"host_id": *input.HostID})
			}
			return nil, apperrors.MapError(err)
		}
	}

	ticket := &domain.Ticket{
		Title:          title,
		Description:    strings.TrimSpace(input.Description),
		Source:         source,
		SourceEventID:  input.SourceEventID,
		Status:         domain.TicketStatusNew,
		Priority:       priority,
		HostID:         input.HostID,
		ReporterID:     input.ReporterID,
		OrganizationID: input.OrganizationID,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  input.ReporterID,
		Payload: events.TicketCreatedPayload{
			Title:    ticket.Title,
			Source:   ticket.Source,
			Priority: ticket.Priority,
			HostID:   ticket.HostID,
		},
	})
	return ticket, nil
}

// Receive acknowledges a NEW ticket.
func (s *TicketService) Receive(ctx context.Context, id string, actorID *string) (*domain.Ticket, error) {
	return s.Transition(ctx, id, domain.TicketStatusReceived, "", actorID)
}

// Assign sets the assignee. Legal from RECEIVED (moving the ticket to
// ASSIGNED) and as an idempotent re-assignment while already ASSIGNED.
func (s *TicketService) Assign(ctx context.Context, id, assigneeID string, actorID *string) (*domain.Ticket, error) {
	if strings.TrimSpace(assigneeID) == "" {
		return nil, apperrors.NewValidationError("assigneeId is required", map[string]any{"field": "assigneeId"})
	}
	ticket, err := s.getTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.Status != domain.TicketStatusReceived && ticket.Status != domain.TicketStatusAssigned {
		return nil, apperrors.NewIllegalTransition(string(ticket.Status), string(domain.TicketStatusAssigned))
	}

	ticket.AssigneeID = &assigneeID
	ticket.Status = domain.TicketStatusAssigned

	activity := &domain.Activity{
		TicketID: ticket.ID,
		Type:     domain.ActivityAssignment,
		Content:  fmt.Sprintf("assignee set to %s", assigneeID),
		ActorID:  actorID,
	}
	if err := s.applyChange(ctx, ticket, activity); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		ActorID:  actorID,
		Payload:  events.TicketAssignedPayload{AssigneeID: assigneeID},
	})
	return ticket, nil
}

// Transition moves the ticket along an edge of the transition table. The
// RESOLVED edge requires a summary and is reachable only through Resolve.
func (s *TicketService) Transition(ctx context.Context, id string, target domain.TicketStatus, reason string, actorID *string) (*domain.Ticket, error) {
	if !target.IsValid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": target})
	}
	if target == domain.TicketStatusResolved {
		return nil, apperrors.NewValidationError("resolving requires a summary; use the resolve operation", map[string]any{"field": "summary"})
	}
	if target == domain.TicketStatusAssigned {
		return nil, apperrors.NewValidationError("assignment requires an assignee; use the assign operation", map[string]any{"field": "assigneeId"})
	}

	ticket, err := s.getTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ticket.Status.CanTransitionTo(target) {
		return nil, apperrors.NewIllegalTransition(string(ticket.Status), string(target))
	}

	oldStatus := ticket.Status
	ticket.Status = target

	content := fmt.Sprintf("status changed: %s -> %s", oldStatus, target)
	if reason != "" {
		content += " (" + reason + ")"
	}
	activity := &domain.Activity{
		TicketID: ticket.ID,
		Type:     domain.ActivityStatusChange,
		Content:  content,
		ActorID:  actorID,
	}
	if err := s.applyChange(ctx, ticket, activity); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		ActorID:  actorID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: target,
			Reason:    reason,
		},
	})
	return ticket, nil
}

// Resolve closes out the work on an IN_PROGRESS ticket with a summary.
func (s *TicketService) Resolve(ctx context.Context, id, summary string, actorID *string) (*domain.Ticket, error) {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return nil, apperrors.NewValidationError("summary is required", map[string]any{"field": "summary"})
	}

	ticket, err := s.getTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ticket.Status.CanTransitionTo(domain.TicketStatusResolved) {
		return nil, apperrors.NewIllegalTransition(string(ticket.Status), string(domain.TicketStatusResolved))
	}

	oldStatus := ticket.Status
	now := time.Now()
	ticket.Status = domain.TicketStatusResolved
	ticket.ResolutionSummary = &summary
	ticket.ResolvedAt = &now

	activity := &domain.Activity{
		TicketID: ticket.ID,
		Type:     domain.ActivityStatusChange,
		Content:  "resolved: " + summary,
		ActorID:  actorID,
	}
	if err := s.applyChange(ctx, ticket, activity); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		ActorID:  actorID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: domain.TicketStatusResolved,
			Reason:    summary,
		},
	})
	return ticket, nil
}

// AddComment appends a COMMENT activity; legal in every status.
func (s *TicketService) AddComment(ctx context.Context, id, content string, actorID *string) (*TicketDetail, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("content is required", map[string]any{"field": "content"})
	}

	ticket, err := s.getTicket(ctx, id)
	if err != nil {
		return nil, err
	}

	activity := &domain.Activity{
		TicketID: ticket.ID,
		Type:     domain.ActivityComment,
		Content:  content,
		ActorID:  actorID,
	}
	if err := s.tickets.AddActivity(ctx, activity); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCommented,
		TicketID: ticket.ID,
		ActorID:  actorID,
		Payload:  events.TicketCommentedPayload{Preview: stringPreview(content, 120)},
	})
	return s.GetDetail(ctx, id)
}

// Update edits the mutable fields of a ticket; status is untouched.
func (s *TicketService) Update(ctx context.Context, id string, input TicketUpdateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", map[string]any{"field": "title"})
	}
	if input.Priority != "" && !input.Priority.IsValid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": input.Priority})
	}

	ticket, err := s.getTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.HostID != nil {
		if _, err := s.hosts.GetByID(ctx, *input.HostID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("host", map[string]any{"host_id": *input.HostID})
			}
			return nil, apperrors.MapError(err)
		}
	}

	ticket.Title = title
	ticket.Description = strings.TrimSpace(input.Description)
	if input.Priority != "" {
		ticket.Priority = input.Priority
	}
	ticket.HostID = input.HostID
	ticket.OrganizationID = input.OrganizationID

	if err := s.tickets.Update(ctx, ticket); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// GetDetail loads a ticket with its full activity trail.
func (s *TicketService) GetDetail(ctx context.Context, id string) (*TicketDetail, error) {
	ticket, err := s.getTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	activities, err := s.activities.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &TicketDetail{Ticket: ticket, Activities: activities}, nil
}

// List returns tickets matching the filter plus the unpaged total.
func (s *TicketService) List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, int64, error) {
	tickets, total, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return tickets, total, nil
}

// ListOpen returns tickets in non-terminal statuses.
func (s *TicketService) ListOpen(ctx context.Context, limit, offset int) ([]domain.Ticket, int64, error) {
	return s.List(ctx, repository.TicketFilter{
		Statuses: domain.OpenStatuses(),
		Limit:    limit,
		Offset:   offset,
	})
}

// Stats aggregates counts by status and priority over all tickets.
func (s *TicketService) Stats(ctx context.Context) (*TicketStats, error) {
	raw, err := s.tickets.Stats(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &TicketStats{
		Total:      raw.Total,
		New:        raw.ByStatus[domain.TicketStatusNew],
		InProgress: raw.ByStatus[domain.TicketStatusInProgress],
		Pending:    raw.ByStatus[domain.TicketStatusPending],
		Resolved:   raw.ByStatus[domain.TicketStatusResolved],
		Completed:  raw.ByStatus[domain.TicketStatusCompleted],
		Closed:     raw.ByStatus[domain.TicketStatusClosed],
		Critical:   raw.ByPriority[domain.TicketPriorityCritical],
		High:       raw.ByPriority[domain.TicketPriorityHigh],
	}, nil
}

func (s *TicketService) getTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) applyChange(ctx context.Context, ticket *domain.Ticket, activity *domain.Activity) error {
	err := s.tickets.ApplyChange(ctx, ticket, activity)
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrVersionConflict) {
		return apperrors.NewConflict("ticket was modified concurrently", map[string]any{"ticket_id": ticket.ID})
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticket.ID})
	}
	return apperrors.MapError(err)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
