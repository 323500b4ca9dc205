package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ops-kit/opsconsole/internal/observability"
)

// MetricsHandler exposes in-process request counters.
type MetricsHandler struct {
	metrics *observability.Metrics
}

func NewMetricsHandler(metrics *observability.Metrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Snapshot GET /api/v1/metrics.
func (h *MetricsHandler) Snapshot(c *fiber.Ctx) error {
	requests, errs := h.metrics.Snapshot()
	return respond(c, http.StatusOK, fiber.Map{
		"requests": requests,
		"errors":   errs,
	})
}
