package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ops-kit/opsconsole/internal/domain"
)

// ErrVersionConflict signals that a concurrent writer moved the ticket
// between read and write; the caller should refetch and retry.
var ErrVersionConflict = errors.New("ticket version conflict")

// TicketFilter captures ticket search parameters.
type TicketFilter struct {
	Status     *domain.TicketStatus
	Statuses   []domain.TicketStatus
	Priority   *domain.TicketPriority
	AssigneeID *string
	Keyword    *string
	Limit      int
	Offset     int
}

// TicketStats aggregates counts by status and priority.
type TicketStats struct {
	Total      int64
	ByStatus   map[domain.TicketStatus]int64
	ByPriority map[domain.TicketPriority]int64
}

// TicketRepository encapsulates ticket persistence.
//
// ApplyChange writes a mutated ticket together with its audit activity in
// one transaction, guarded by the optimistic version the ticket was read at.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	ApplyChange(ctx context.Context, ticket *domain.Ticket, activity *domain.Activity) error
	AddActivity(ctx context.Context, activity *domain.Activity) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetBySourceEventID(ctx context.Context, sourceEventID string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int64, error)
	Stats(ctx context.Context) (*TicketStats, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, title, description, source, source_event_id, status, priority,
               host_id, reporter_id, assignee_id, organization_id, resolution_summary,
               version, created_at, updated_at, resolved_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, source, source_event_id, priority, host_id,
                             reporter_id, organization_id, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, version, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Source,
		ticket.SourceEventID,
		ticket.Priority,
		ticket.HostID,
		ticket.ReporterID,
		ticket.OrganizationID,
		ticket.Status,
	).Scan(&ticket.ID, &ticket.Version, &ticket.CreatedAt, &ticket.UpdatedAt)
}

// Update writes the mutable fields only; status moves go through ApplyChange.
func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, priority=$3, host_id=$4,
            organization_id=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Priority,
		ticket.HostID,
		ticket.OrganizationID,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) ApplyChange(ctx context.Context, ticket *domain.Ticket, activity *domain.Activity) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const update = `
        UPDATE tickets SET status=$1, assignee_id=$2, resolution_summary=$3, resolved_at=$4,
            version=version+1, updated_at=NOW()
        WHERE id=$5 AND version=$6
        RETURNING version, updated_at`
	err = tx.QueryRow(ctx, update,
		ticket.Status,
		ticket.AssigneeID,
		ticket.ResolutionSummary,
		ticket.ResolvedAt,
		ticket.ID,
		ticket.Version,
	).Scan(&ticket.Version, &ticket.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if checkErr := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id=$1)`, ticket.ID).Scan(&exists); checkErr == nil && exists {
				return ErrVersionConflict
			}
			return pgx.ErrNoRows
		}
		return err
	}

	if activity != nil {
		const insert = `
            INSERT INTO activities (ticket_id, type, content, actor_id)
            VALUES ($1,$2,$3,$4)
            RETURNING id, seq, created_at`
		if err := tx.QueryRow(ctx, insert,
			activity.TicketID,
			activity.Type,
			activity.Content,
			activity.ActorID,
		).Scan(&activity.ID, &activity.Seq, &activity.CreatedAt); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *ticketRepository) AddActivity(ctx context.Context, activity *domain.Activity) error {
	const query = `
        INSERT INTO activities (ticket_id, type, content, actor_id)
        VALUES ($1,$2,$3,$4)
        RETURNING id, seq, created_at`
	return r.pool.QueryRow(ctx, query,
		activity.TicketID,
		activity.Type,
		activity.Content,
		activity.ActorID,
	).Scan(&activity.ID, &activity.Seq, &activity.CreatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetBySourceEventID(ctx context.Context, sourceEventID string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE source_event_id=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, sourceEventID)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Source,
		&ticket.SourceEventID,
		&ticket.Status,
		&ticket.Priority,
		&ticket.HostID,
		&ticket.ReporterID,
		&ticket.AssigneeID,
		&ticket.OrganizationID,
		&ticket.ResolutionSummary,
		&ticket.Version,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ResolvedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int64, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("priority=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_id=$%d", len(args)))
	}
	if filter.Keyword != nil && strings.TrimSpace(*filter.Keyword) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.Keyword)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	where := strings.Join(clauses, " AND ")

	var total int64
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM tickets WHERE %s`, where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

func (r *ticketRepository) Stats(ctx context.Context) (*TicketStats, error) {
	stats := &TicketStats{
		ByStatus:   make(map[domain.TicketStatus]int64),
		ByPriority: make(map[domain.TicketPriority]int64),
	}

	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM tickets GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status domain.TicketStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.ByStatus[status] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	prows, err := r.pool.Query(ctx, `SELECT priority, COUNT(*) FROM tickets GROUP BY priority`)
	if err != nil {
		return nil, err
	}
	defer prows.Close()
	for prows.Next() {
		var priority domain.TicketPriority
		var count int64
		if err := prows.Scan(&priority, &count); err != nil {
			return nil, err
		}
		stats.ByPriority[priority] = count
	}
	return stats, prows.Err()
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Title,
			&ticket.Description,
			&ticket.Source,
			&ticket.SourceEventID,
			&ticket.Status,
			&ticket.Priority,
			&ticket.HostID,
			&ticket.ReporterID,
			&ticket.AssigneeID,
			&ticket.OrganizationID,
			&ticket.ResolutionSummary,
			&ticket.Version,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
			&ticket.ResolvedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
