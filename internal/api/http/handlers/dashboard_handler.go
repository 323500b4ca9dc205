package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ops-kit/opsconsole/internal/api/dto"
	"github.com/ops-kit/opsconsole/internal/service"
)

// DashboardHandler aggregates ticket and host figures for the console landing page.
type DashboardHandler struct {
	tickets *service.TicketService
	hosts   *service.HostService
}

func NewDashboardHandler(ticketService *service.TicketService, hostService *service.HostService) *DashboardHandler {
	return &DashboardHandler{tickets: ticketService, hosts: hostService}
}

// Summary GET /api/v1/dashboard/summary.
func (h *DashboardHandler) Summary(c *fiber.Ctx) error {
	ticketStats, err := h.tickets.Stats(c.UserContext())
	if err != nil {
		return err
	}
	hostStats, err := h.hosts.Stats(c.UserContext())
	if err != nil {
		return err
	}
	recent, _, err := h.tickets.ListOpen(c.UserContext(), 5, 0)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, fiber.Map{
		"tickets":       dto.NewTicketStatsResponse(ticketStats),
		"hosts":         dto.NewHostStatsResponse(hostStats),
		"recentTickets": dto.NewTicketListResponse(recent),
	})
}
