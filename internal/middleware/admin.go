package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/siddhasavor/backend/internal/access"
	"github.com/siddhasavor/backend/internal/config"
	"github.com/siddhasavor/backend/internal/dto"
	"github.com/siddhasavor/backend/internal/models"
)

// AdminRequired accepts, in order:
// 1. the configured X-Admin-Token header
// 2. a token with the admin role
// 3. a doctor token whose email is listed in ADMIN_EMAILS
func AdminRequired(cfg *config.Config) fiber.Handler {
	adminEmails := parseCSV(strings.ToLower(cfg.AdminEmails))

	return func(c *fiber.Ctx) error {
		if hasAdminToken(c, cfg) {
			return c.Next()
		}

		if _, err := access.GetSubject(c); err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.Response{
				Success: false, Error: "Unauthorized",
			})
		}

		role := access.GetRole(c)
		if role == models.RoleAdmin {
			return c.Next()
		}
		// Patient emails are unique only among patients, so the allowlist
		// applies to doctor accounts alone.
		if role == models.RoleDoctor && contains(adminEmails, strings.ToLower(access.GetEmail(c))) {
			return c.Next()
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.Response{
			Success: false, Error: "Admin access required",
		})
	}
}

func hasAdminToken(c *fiber.Ctx, cfg *config.Config) bool {
	if cfg.AdminToken == "" {
		return false
	}
	given := c.Get("X-Admin-Token")
	return given != "" && subtle.ConstantTimeCompare([]byte(given), []byte(cfg.AdminToken)) == 1
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func contains(list []string, val string) bool {
	if val == "" {
		return false
	}
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
