package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/feedback-service/internal/api/http/handlers"
	"github.com/spec-kit/feedback-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Feedback       *handlers.FeedbackHandler
	Tickets        *handlers.TicketsHandler
	Taxonomy       *handlers.TaxonomyHandler
	Admin          *handlers.AdminHandler
	Sync           *handlers.SyncHandler
	Changes        *handlers.ChangesHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	// Public intake: no authentication.
	feedback := app.Group("/feedback")
	feedback.Get("/meta", cfg.Feedback.Meta)
	feedback.Post("", cfg.Feedback.Submit)

	app.Post("/auth/login", cfg.Admin.Login)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	admin.Post("/auth/password/change", cfg.Admin.ChangePassword)
	admin.Get("/me", cfg.Admin.Me)

	admin.Get("/tickets", cfg.Tickets.List)
	admin.Get("/tickets/meetings", cfg.Tickets.Meetings)
	admin.Get("/tickets/:id", cfg.Tickets.Get)
	admin.Patch("/tickets/:id/status", cfg.Tickets.UpdateStatus)
	admin.Patch("/tickets/:id/deadline", cfg.Tickets.SetDeadline)
	admin.Patch("/tickets/:id/urgency", cfg.Tickets.SetUrgency)
	admin.Patch("/tickets/:id/assignee", cfg.Tickets.Assign)
	admin.Patch("/tickets/:id/final-photo", cfg.Tickets.SetFinalPhoto)
	admin.Post("/tickets/:id/redirect", cfg.Tickets.Redirect)
	admin.Post("/tickets/:id/sync", cfg.Sync.Resync)
	admin.Post("/tickets/:id/tracker", cfg.Sync.CreateTask)
	admin.Get("/tickets/:id/history", cfg.Tickets.History)
	admin.Delete("/tickets/:id", cfg.Tickets.Delete)
	admin.Delete("/tickets", auth.RequireOversight(), cfg.Tickets.ClearAll)

	admin.Get("/departments", cfg.Admin.ListDepartments)
	admin.Post("/departments", auth.RequireOversight(), cfg.Admin.CreateDepartment)
	admin.Get("/departments/:id/dashboard", cfg.Tickets.Dashboard)
	admin.Get("/departments/:id/report", cfg.Tickets.Report)
	admin.Get("/departments/:id/employees", cfg.Admin.ListEmployees)
	admin.Get("/departments/:id/settings", cfg.Admin.GetSettings)
	admin.Put("/departments/:id/settings", cfg.Admin.UpdateSettings)
	admin.Get("/departments/:id/statuses", cfg.Taxonomy.ListStatuses)
	admin.Post("/departments/:id/sync/sheet", cfg.Sync.PullStatuses)
	admin.Post("/departments/:id/sync/tracker", cfg.Sync.SyncTracker)

	admin.Post("/statuses", cfg.Taxonomy.CreateStatus)
	admin.Patch("/statuses/:id", cfg.Taxonomy.UpdateStatus)
	admin.Post("/statuses/:id/toggle", cfg.Taxonomy.ToggleStatus)
	admin.Delete("/statuses/:id", cfg.Taxonomy.DeleteStatus)
	admin.Get("/statuses/:id/substatuses", cfg.Taxonomy.ListSubstatuses)
	admin.Post("/statuses/:id/substatuses", cfg.Taxonomy.CreateSubstatus)
	admin.Patch("/substatuses/:id", cfg.Taxonomy.UpdateSubstatus)
	admin.Post("/substatuses/:id/toggle", cfg.Taxonomy.ToggleSubstatus)
	admin.Delete("/substatuses/:id", cfg.Taxonomy.DeleteSubstatus)

	admin.Post("/employees", cfg.Admin.CreateEmployee)
	admin.Patch("/employees/:id", cfg.Admin.UpdateEmployee)
	admin.Post("/employees/:id/toggle", cfg.Admin.ToggleEmployee)

	admin.Post("/admins", auth.RequireOversight(), cfg.Admin.CreateAdmin)

	admin.Get("/changes/watch", cfg.Changes.Watch)
}
