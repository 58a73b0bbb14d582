package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Auth           *handlers.AuthHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Submission and note appends are
// open; listing, detail and status changes are technician-only.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Auth.Login)

	app.Post("/tickets", cfg.Tickets.CreateTicket)
	app.Post("/tickets/:id/notes", cfg.AuthMiddleware.Identify, cfg.Tickets.AddNote)

	app.Get("/tickets", cfg.AuthMiddleware.Handle, cfg.Tickets.ListTickets)
	app.Get("/tickets/:id", cfg.AuthMiddleware.Handle, cfg.Tickets.GetTicket)
	app.Post("/tickets/:id/status/:status", cfg.AuthMiddleware.Handle, cfg.Tickets.UpdateStatus)
}
