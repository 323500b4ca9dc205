package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ops-kit/opsconsole/internal/adapter"
	"github.com/ops-kit/opsconsole/internal/api/dto"
	"github.com/ops-kit/opsconsole/internal/service"
)

// WebhooksHandler ingests monitoring alerts and turns them into tickets.
type WebhooksHandler struct {
	tickets    *service.TicketService
	uptimeKuma adapter.ToolAdapter
	prometheus adapter.ToolAdapter
}

func NewWebhooksHandler(ticketService *service.TicketService) *WebhooksHandler {
	return &WebhooksHandler{
		tickets:    ticketService,
		uptimeKuma: adapter.NewUptimeKumaAdapter(),
		prometheus: adapter.NewPrometheusAdapter(),
	}
}

// UptimeKuma POST /api/v1/webhooks/uptime-kuma.
func (h *WebhooksHandler) UptimeKuma(c *fiber.Ctx) error {
	return h.ingest(c, h.uptimeKuma)
}

// Prometheus POST /api/v1/webhooks/prometheus.
func (h *WebhooksHandler) Prometheus(c *fiber.Ctx) error {
	return h.ingest(c, h.prometheus)
}

func (h *WebhooksHandler) ingest(c *fiber.Ctx, tool adapter.ToolAdapter) error {
	inputs, err := tool.Parse(c.Body())
	if err != nil {
		return err
	}
	created := make([]dto.TicketResponse, 0, len(inputs))
	for _, input := range inputs {
		ticket, err := h.tickets.Create(c.UserContext(), input)
		if err != nil {
			return err
		}
		created = append(created, dto.NewTicketResponse(ticket))
	}
	status := http.StatusOK
	if len(created) > 0 {
		status = http.StatusCreated
	}
	return respond(c, status, fiber.Map{
		"source":  tool.Name(),
		"tickets": created,
	})
}
