package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/siddhasavor/backend/internal/config"
	"github.com/siddhasavor/backend/internal/handlers"
	"github.com/siddhasavor/backend/internal/middleware"
	"github.com/siddhasavor/backend/internal/models"
)

type Handlers struct {
	Auth     *handlers.AuthHandler
	Patient  *handlers.PatientHandler
	Invite   *handlers.InviteHandler
	Admin    *handlers.AdminHandler
	Reminder *handlers.ReminderHandler
	DietPlan *handlers.DietPlanHandler
	Health   *handlers.HealthHandler
}

func Setup(app *fiber.App, cfg *config.Config, h Handlers) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP by default
	api.Use(perMinute(cfg.RateLimit, 60))

	api.Get("/health", h.Health.Check)

	// Auth: public, stricter limit of 10 req/min per IP by default
	auth := api.Group("/auth")
	auth.Use(perMinute(cfg.AuthRateLimit, 10))
	auth.Post("/doctor/register", h.Auth.RegisterDoctor)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/refresh", h.Auth.Refresh)
	auth.Post("/logout", h.Auth.Logout)
	auth.Post("/patient/register", h.Patient.Register)
	auth.Get("/invites/:token", h.Invite.Lookup)
	auth.Post("/password-reset/request", h.Auth.RequestPasswordReset)
	auth.Post("/password-reset/verify", h.Auth.VerifyPasswordReset)
	auth.Post("/password-reset/complete", h.Auth.CompletePasswordReset)

	// Doctor routes; admins see every doctor's patients
	doctor := api.Group("/doctor",
		middleware.JWTProtected(cfg),
		middleware.RoleRequired(models.RoleDoctor, models.RoleAdmin),
	)
	doctor.Post("/invites", h.Invite.Create)
	doctor.Get("/patients", h.Patient.List)
	doctor.Post("/patients/approve", h.Patient.Approve)
	doctor.Post("/patients/reject", h.Patient.Reject)
	doctor.Get("/diet-plans", h.DietPlan.List)
	doctor.Put("/diet-plans", h.DietPlan.Upsert)

	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired(cfg))
	admin.Get("/doctors", h.Admin.ListDoctors)
	admin.Get("/invites/debug", h.Invite.Debug)
	admin.Post("/password-reset-cleanup", h.Admin.CleanupPasswordResets)
	admin.Get("/password-reset-cleanup", h.Admin.CleanupPasswordResets)
	admin.Post("/reminders/dispatch", h.Reminder.Dispatch)

	if cfg.EnableTestRoutes {
		api.Post("/test/meal-reminder", h.Reminder.SendTest)
	}
}

func perMinute(limit, fallback int) fiber.Handler {
	if limit <= 0 {
		limit = fallback
	}
	return limiter.New(limiter.Config{
		Max:               limit,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})
}
