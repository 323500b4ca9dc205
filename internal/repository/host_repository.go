package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ops-kit/opsconsole/internal/domain"
)

// HostFilter captures host listing parameters.
type HostFilter struct {
	Status  *domain.HostStatus
	Keyword *string
	Limit   int
	Offset  int
}

// HostStats aggregates host counts by status.
type HostStats struct {
	Total       int64
	Active      int64
	Inactive    int64
	Maintenance int64
}

// HostRepository encapsulates host persistence.
type HostRepository interface {
	Create(ctx context.Context, host *domain.Host) error
	Update(ctx context.Context, host *domain.Host) error
	GetByID(ctx context.Context, id string) (*domain.Host, error)
	ListWithFilter(ctx context.Context, filter HostFilter) ([]domain.Host, int64, error)
	Stats(ctx context.Context) (*HostStats, error)
}

type hostRepository struct {
	pool *pgxpool.Pool
}

// NewHostRepository instantiates repository.
func NewHostRepository(pool *pgxpool.Pool) HostRepository {
	return &hostRepository{pool: pool}
}

func (r *hostRepository) Create(ctx context.Context, host *domain.Host) error {
	const query = `
        INSERT INTO hosts (name, description, status, tags, organization_id)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		host.Name,
		host.Description,
		host.Status,
		host.Tags,
		host.OrganizationID,
	).Scan(&host.ID, &host.CreatedAt, &host.UpdatedAt)
}

func (r *hostRepository) Update(ctx context.Context, host *domain.Host) error {
	const query = `
        UPDATE hosts SET name=$1, description=$2, status=$3, tags=$4, organization_id=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		host.Name,
		host.Description,
		host.Status,
		host.Tags,
		host.OrganizationID,
		host.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *hostRepository) GetByID(ctx context.Context, id string) (*domain.Host, error) {
	const query = `
        SELECT id, name, description, status, tags, organization_id, created_at, updated_at
        FROM hosts WHERE id=$1`
	var host domain.Host
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&host.ID,
		&host.Name,
		&host.Description,
		&host.Status,
		&host.Tags,
		&host.OrganizationID,
		&host.CreatedAt,
		&host.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &host, nil
}

func (r *hostRepository) ListWithFilter(ctx context.Context, filter HostFilter) ([]domain.Host, int64, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Keyword != nil && strings.TrimSpace(*filter.Keyword) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.Keyword)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(name) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	where := strings.Join(clauses, " AND ")

	var total int64
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM hosts WHERE %s`, where)
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

	query := fmt.Sprintf(`
        SELECT id, name, description, status, tags, organization_id, created_at, updated_at
        FROM hosts WHERE %s ORDER BY name ASC LIMIT %d OFFSET %d`, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Host
	for rows.Next() {
		var host domain.Host
		if err := rows.Scan(
			&host.ID,
			&host.Name,
			&host.Description,
			&host.Status,
			&host.Tags,
			&host.OrganizationID,
			&host.CreatedAt,
			&host.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		result = append(result, host)
	}
	return result, total, rows.Err()
}

func (r *hostRepository) Stats(ctx context.Context) (*HostStats, error) {
	const query = `SELECT status, COUNT(*) FROM hosts GROUP BY status`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &HostStats{}
	for rows.Next() {
		var status domain.HostStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.Total += count
		switch status {
		case domain.HostStatusActive:
			stats.Active = count
		case domain.HostStatusInactive:
			stats.Inactive = count
		case domain.HostStatusMaintenance:
			stats.Maintenance = count
		}
	}
	return stats, rows.Err()
}
