package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ops-kit/opsconsole/internal/domain"
	"github.com/ops-kit/opsconsole/internal/repository"
	apperrors "github.com/ops-kit/opsconsole/pkg/util"
)

// HostService manages the managed-host inventory. Tickets reference hosts
// read-only; host mutation lives here.
type HostService struct {
	hosts repository.HostRepository
}

// NewHostService constructs the service.
func NewHostService(hosts repository.HostRepository) *HostService {
	return &HostService{hosts: hosts}
}

// HostInput describes host create/update payloads.
type HostInput struct {
	Name           string
	Description    string
	Tags           []string
	OrganizationID *string
}

// Create registers a host in status ACTIVE.
func (s *HostService) Create(ctx context.Context, input HostInput) (*domain.Host, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}
	host := &domain.Host{
		Name:           name,
		Description:    strings.TrimSpace(input.Description),
		Status:         domain.HostStatusActive,
		Tags:           input.Tags,
		OrganizationID: input.OrganizationID,
	}
	if host.Tags == nil {
		host.Tags = []string{}
	}
	if err := s.hosts.Create(ctx, host); err != nil {
		return nil, apperrors.MapError(err)
	}
	return host, nil
}

// Update edits host metadata; status changes go through ChangeStatus.
func (s *HostService) Update(ctx context.Context, id string, input HostInput) (*domain.Host, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}
	host, err := s.getHost(ctx, id)
	if err != nil {
		return nil, err
	}
	host.Name = name
	host.Description = strings.TrimSpace(input.Description)
	host.OrganizationID = input.OrganizationID
	if input.Tags != nil {
		host.Tags = input.Tags
	}
	if err := s.hosts.Update(ctx, host); err != nil {
		return nil, apperrors.MapError(err)
	}
	return host, nil
}

// ChangeStatus moves the host between ACTIVE, INACTIVE and MAINTENANCE.
func (s *HostService) ChangeStatus(ctx context.Context, id string, status domain.HostStatus) (*domain.Host, error) {
	if !status.IsValid() {
		return nil, apperrors.NewValidationError("unknown host status", map[string]any{"status": status})
	}
	host, err := s.getHost(ctx, id)
	if err != nil {
		return nil, err
	}
	host.Status = status
	if err := s.hosts.Update(ctx, host); err != nil {
		return nil, apperrors.MapError(err)
	}
	return host, nil
}

// Get fetches a single host.
func (s *HostService) Get(ctx context.Context, id string) (*domain.Host, error) {
	return s.getHost(ctx, id)
}

// List returns hosts matching the filter plus the unpaged total.
func (s *HostService) List(ctx context.Context, filter repository.HostFilter) ([]domain.Host, int64, error) {
	hosts, total, err := s.hosts.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return hosts, total, nil
}

// Stats aggregates host counts by status.
func (s *HostService) Stats(ctx context.Context) (*repository.HostStats, error) {
	stats, err := s.hosts.Stats(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return stats, nil
}

func (s *HostService) getHost(ctx context.Context, id string) (*domain.Host, error) {
	host, err := s.hosts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("host", map[string]any{"host_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return host, nil
}
