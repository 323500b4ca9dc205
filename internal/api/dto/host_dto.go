package dto

import (
	"time"

	"github.com/ops-kit/opsconsole/internal/domain"
	"github.com/ops-kit/opsconsole/internal/repository"
)

type HostRequest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Tags           []string `json:"tags"`
	OrganizationID *string  `json:"organizationId"`
}

type HostStatusRequest struct {
	Status string `json:"status"`
}

type HostResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Status         string    `json:"status"`
	Tags           []string  `json:"tags"`
	OrganizationID *string   `json:"organizationId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type HostStatsResponse struct {
	Total       int64 `json:"total"`
	Active      int64 `json:"active"`
	Inactive    int64 `json:"inactive"`
	Maintenance int64 `json:"maintenance"`
}

func NewHostResponse(h *domain.Host) HostResponse {
	tags := h.Tags
	if tags == nil {
		tags = []string{}
	}
	return HostResponse{
		ID:             h.ID,
		Name:           h.Name,
		Description:    h.Description,
		Status:         string(h.Status),
		Tags:           tags,
		OrganizationID: h.OrganizationID,
		CreatedAt:      h.CreatedAt,
		UpdatedAt:      h.UpdatedAt,
	}
}

func NewHostListResponse(hosts []domain.Host) []HostResponse {
	out := make([]HostResponse, 0, len(hosts))
	for i := range hosts {
		out = append(out, NewHostResponse(&hosts[i]))
	}
	return out
}

func NewHostStatsResponse(s *repository.HostStats) HostStatsResponse {
	return HostStatsResponse{
		Total:       s.Total,
		Active:      s.Active,
		Inactive:    s.Inactive,
		Maintenance: s.Maintenance,
	}
}
