package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ops-kit/opsconsole/internal/api/dto"
	"github.com/ops-kit/opsconsole/internal/domain"
	"github.com/ops-kit/opsconsole/internal/repository"
	"github.com/ops-kit/opsconsole/internal/service"
	apperrors "github.com/ops-kit/opsconsole/pkg/util"
)

// HostsHandler manages monitored host endpoints.
type HostsHandler struct {
	service *service.HostService
}

func NewHostsHandler(hostService *service.HostService) *HostsHandler {
	return &HostsHandler{service: hostService}
}

// Create POST /api/v1/hosts.
func (h *HostsHandler) Create(c *fiber.Ctx) error {
	var req dto.HostRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Name) == "" {
		return apperrors.NewValidationError("name required", nil)
	}
	host, err := h.service.Create(c.UserContext(), service.HostInput{
		Name:           req.Name,
		Description:    req.Description,
		Tags:           req.Tags,
		OrganizationID: req.OrganizationID,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, dto.NewHostResponse(host))
}

// List GET /api/v1/hosts.
func (h *HostsHandler) List(c *fiber.Ctx) error {
	filter := repository.HostFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		status := domain.HostStatus(statusStr)
		filter.Status = &status
	}
	if keyword := c.Query("keyword"); keyword != "" {
		filter.Keyword = &keyword
	}
	page := parseInt(c.Query("page"), 1)
	size := parseInt(c.Query("size"), 20)
	filter.Offset = (page - 1) * size
	filter.Limit = size
	hosts, total, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewPage(dto.NewHostListResponse(hosts), page, size, total))
}

// Get GET /api/v1/hosts/:id.
func (h *HostsHandler) Get(c *fiber.Ctx) error {
	host, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewHostResponse(host))
}

// Update PUT /api/v1/hosts/:id.
func (h *HostsHandler) Update(c *fiber.Ctx) error {
	var req dto.HostRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	host, err := h.service.Update(c.UserContext(), c.Params("id"), service.HostInput{
		Name:           req.Name,
		Description:    req.Description,
		Tags:           req.Tags,
		OrganizationID: req.OrganizationID,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewHostResponse(host))
}

// ChangeStatus PATCH /api/v1/hosts/:id/status.
func (h *HostsHandler) ChangeStatus(c *fiber.Ctx) error {
	var req dto.HostStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	host, err := h.service.ChangeStatus(c.UserContext(), c.Params("id"), domain.HostStatus(req.Status))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewHostResponse(host))
}

// Stats GET /api/v1/hosts/stats.
func (h *HostsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewHostStatsResponse(stats))
}
