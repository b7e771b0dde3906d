package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/clinic-booking/internal/api/http/handlers"
	"github.com/spec-kit/clinic-booking/internal/auth"
	"github.com/spec-kit/clinic-booking/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health       *handlers.HealthHandler
	Users        *handlers.UsersHandler
	Appointments *handlers.AppointmentsHandler
	Admin        *handlers.AdminHandler
	Contact      *handlers.ContactHandler
	Sessions     *auth.SessionMiddleware
	RateLimiter  *IPRateLimiter
	Metrics      *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))

	app.Use(cfg.Sessions.Load)
	limited := cfg.RateLimiter.Middleware()
	member := auth.RequireSession()
	admin := auth.RequireAdmin()

	app.Get("/", cfg.Appointments.Home)
	app.Get("/register", cfg.Users.RegisterForm)
	app.Post("/register", limited, cfg.Users.Register)
	app.Get("/login", cfg.Users.LoginForm)
	app.Post("/login", limited, cfg.Users.Login)
	app.Get("/logout", cfg.Users.Logout)
	app.Post("/contact", cfg.Contact.Submit)

	app.Get("/reset", cfg.Users.ResetForm)
	app.Post("/reset", limited, cfg.Users.RequestReset)
	app.Get("/reset/:token", cfg.Users.ResetTokenForm)
	app.Post("/reset/:token", limited, cfg.Users.ResetPassword)

	app.Get("/book", member, cfg.Appointments.BookForm)
	app.Post("/book", member, cfg.Appointments.Book)
	app.Get("/dashboard", member, cfg.Appointments.Dashboard)
	app.Get("/profile", member, cfg.Users.Profile)
	app.Post("/profile", member, cfg.Users.UpdateProfile)
	app.Post("/me/appointments/hide", member, cfg.Appointments.Hide)
	app.Post("/me/appointments/delete", member, cfg.Appointments.Delete)

	app.Get("/admin", admin, cfg.Admin.Dashboard)
	app.Post("/admin", admin, cfg.Admin.Act)
	app.Post("/admin/appointments/archive", admin, cfg.Admin.Archive)
	app.Post("/admin/appointments/unarchive", admin, cfg.Admin.Unarchive)
	app.Post("/admin/appointments/delete", admin, cfg.Admin.Delete)
	app.Get("/make_admin/:email", admin, cfg.Users.MakeAdmin)
}
