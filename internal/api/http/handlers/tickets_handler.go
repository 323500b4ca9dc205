package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ops-kit/opsconsole/internal/api/dto"
	"github.com/ops-kit/opsconsole/internal/auth"
	"github.com/ops-kit/opsconsole/internal/domain"
	"github.com/ops-kit/opsconsole/internal/repository"
	"github.com/ops-kit/opsconsole/internal/service"
	apperrors "github.com/ops-kit/opsconsole/pkg/util"
)

// TicketsHandler manages ticket lifecycle endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// Create POST /api/v1/tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Title) == "" {
		return apperrors.NewValidationError("title required", nil)
	}
	input := service.TicketCreateInput{
		Title:          req.Title,
		Description:    req.Description,
		Source:         domain.TicketSource(req.Source),
		SourceEventID:  req.SourceEventID,
		Priority:       domain.TicketPriority(req.Priority),
		HostID:         req.HostID,
		OrganizationID: req.OrganizationID,
	}
	if principal, ok := auth.PrincipalFromContext(c); ok {
		reporter := principal.Identity.SubjectID
		input.ReporterID = &reporter
	}
	ticket, err := h.service.Create(c.UserContext(), input)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, dto.NewTicketResponse(ticket))
}

// List GET /api/v1/tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	filter, page, size := parseTicketQuery(c)
	tickets, total, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewPage(dto.NewTicketListResponse(tickets), page, size, total))
}

// ListOpen GET /api/v1/tickets/open.
func (h *TicketsHandler) ListOpen(c *fiber.Ctx) error {
	page := parseInt(c.Query("page"), 1)
	size := parseInt(c.Query("size"), 20)
	tickets, total, err := h.service.ListOpen(c.UserContext(), size, (page-1)*size)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewPage(dto.NewTicketListResponse(tickets), page, size, total))
}

// Get GET /api/v1/tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	detail, err := h.service.GetDetail(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewTicketDetailResponse(detail))
}

// Update PUT /api/v1/tickets/:id.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input := service.TicketUpdateInput{
		Title:          req.Title,
		Description:    req.Description,
		Priority:       domain.TicketPriority(req.Priority),
		HostID:         req.HostID,
		OrganizationID: req.OrganizationID,
	}
	ticket, err := h.service.Update(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewTicketResponse(ticket))
}

// Receive POST /api/v1/tickets/:id/receive.
func (h *TicketsHandler) Receive(c *fiber.Ctx) error {
	ticket, err := h.service.Receive(c.UserContext(), c.Params("id"), actorID(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewTicketResponse(ticket))
}

// Assign POST /api/v1/tickets/:id/assign?assigneeId=...
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	assigneeID := c.Query("assigneeId")
	if assigneeID == "" {
		return apperrors.NewValidationError("assigneeId required", nil)
	}
	ticket, err := h.service.Assign(c.UserContext(), c.Params("id"), assigneeID, actorID(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewTicketResponse(ticket))
}

// Transition POST /api/v1/tickets/:id/transition?status=...&reason=...
func (h *TicketsHandler) Transition(c *fiber.Ctx) error {
	status := domain.TicketStatus(c.Query("status"))
	if status == "" {
		return apperrors.NewValidationError("status required", nil)
	}
	ticket, err := h.service.Transition(c.UserContext(), c.Params("id"), status, c.Query("reason"), actorID(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewTicketResponse(ticket))
}

// Resolve POST /api/v1/tickets/:id/resolve?summary=...
func (h *TicketsHandler) Resolve(c *fiber.Ctx) error {
	ticket, err := h.service.Resolve(c.UserContext(), c.Params("id"), c.Query("summary"), actorID(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewTicketResponse(ticket))
}

// AddComment POST /api/v1/tickets/:id/comments?content=...
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	content := c.Query("content")
	if strings.TrimSpace(content) == "" {
		return apperrors.NewValidationError("content required", nil)
	}
	detail, err := h.service.AddComment(c.UserContext(), c.Params("id"), content, actorID(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewTicketDetailResponse(detail))
}

// Stats GET /api/v1/tickets/stats.
func (h *TicketsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewTicketStatsResponse(stats))
}

func parseTicketQuery(c *fiber.Ctx) (repository.TicketFilter, int, int) {
	filter := repository.TicketFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		priority := domain.TicketPriority(strings.TrimSpace(priorityStr))
		filter.Priority = &priority
	}
	if assignee := c.Query("assigneeId"); assignee != "" {
		filter.AssigneeID = &assignee
	}
	if keyword := c.Query("keyword"); keyword != "" {
		filter.Keyword = &keyword
	}
	page := parseInt(c.Query("page"), 1)
	size := parseInt(c.Query("size"), 20)
	filter.Offset = (page - 1) * size
	filter.Limit = size
	return filter, page, size
}

func actorID(c *fiber.Ctx) *string {
	if principal, ok := auth.PrincipalFromContext(c); ok {
		id := principal.Identity.SubjectID
		return &id
	}
	return nil
}
