package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ops-kit/opsconsole/internal/domain"
)

// ActivityRepository reads the append-only audit trail for a ticket.
type ActivityRepository interface {
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Activity, error)
}

type activityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository instantiates repository.
func NewActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &activityRepository{pool: pool}
}

func (r *activityRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Activity, error) {
	const query = `
        SELECT id, ticket_id, type, content, actor_id, seq, created_at
        FROM activities
        WHERE ticket_id=$1
        ORDER BY created_at ASC, seq ASC`

	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Activity
	for rows.Next() {
		var activity domain.Activity
		if err := rows.Scan(
			&activity.ID,
			&activity.TicketID,
			&activity.Type,
			&activity.Content,
			&activity.ActorID,
			&activity.Seq,
			&activity.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, activity)
	}
	return result, rows.Err()
}
