package middleware

import (
	"log/slog"

	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"github.com/siddhasavor/backend/internal/observability"
)

// Observability binds a fresh observability.Scope to the request's user
// context. It must run after requestid and the Sentry middleware.
func Observability(logger *slog.Logger) fiber.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *fiber.Ctx) error {
		l := logger
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			l = l.With("request_id", rid)
		}
		scope := observability.NewScope(l, sentryfiber.GetHubFromContext(c))
		c.SetUserContext(observability.WithScope(c.UserContext(), scope))
		return c.Next()
	}
}
