package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ops-kit/opsconsole/internal/api/http/handlers"
	"github.com/ops-kit/opsconsole/internal/auth"
	"github.com/ops-kit/opsconsole/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Hosts          *handlers.HostsHandler
	Dashboard      *handlers.DashboardHandler
	Webhooks       *handlers.WebhooksHandler
	Metrics        *handlers.MetricsHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/change-password", cfg.Auth.ChangePassword)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Post("/logout", cfg.Auth.Logout)

	webhooks := api.Group("/webhooks")
	webhooks.Post("/uptime-kuma", cfg.Webhooks.UptimeKuma)
	webhooks.Post("/prometheus", cfg.Webhooks.Prometheus)

	anyRole := auth.RequireRole(domain.UserRoleAdmin, domain.UserRoleOperator, domain.UserRoleViewer)
	writeRole := auth.RequireRole(domain.UserRoleAdmin, domain.UserRoleOperator)

	tickets := api.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Get("/", anyRole, cfg.Tickets.List)
	tickets.Get("/open", anyRole, cfg.Tickets.ListOpen)
	tickets.Get("/stats", anyRole, cfg.Tickets.Stats)
	tickets.Get("/:id", anyRole, cfg.Tickets.Get)
	tickets.Post("/", writeRole, cfg.Tickets.Create)
	tickets.Put("/:id", writeRole, cfg.Tickets.Update)
	tickets.Post("/:id/receive", writeRole, cfg.Tickets.Receive)
	tickets.Post("/:id/assign", writeRole, cfg.Tickets.Assign)
	tickets.Post("/:id/transition", writeRole, cfg.Tickets.Transition)
	tickets.Post("/:id/resolve", writeRole, cfg.Tickets.Resolve)
	tickets.Post("/:id/comments", writeRole, cfg.Tickets.AddComment)

	hosts := api.Group("/hosts", cfg.AuthMiddleware.Handle)
	hosts.Get("/", anyRole, cfg.Hosts.List)
	hosts.Get("/stats", anyRole, cfg.Hosts.Stats)
	hosts.Get("/:id", anyRole, cfg.Hosts.Get)
	hosts.Post("/", writeRole, cfg.Hosts.Create)
	hosts.Put("/:id", writeRole, cfg.Hosts.Update)
	hosts.Patch("/:id/status", writeRole, cfg.Hosts.ChangeStatus)

	api.Get("/dashboard/summary", cfg.AuthMiddleware.Handle, anyRole, cfg.Dashboard.Summary)
	api.Get("/metrics", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.UserRoleAdmin), cfg.Metrics.Snapshot)
}
