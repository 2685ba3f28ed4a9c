package middleware

import (
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/siddhasavor/backend/internal/access"
	"github.com/siddhasavor/backend/internal/config"
	"github.com/siddhasavor/backend/internal/dto"
)

// JWTProtected verifies the bearer token. Requests carrying a valid
// X-Admin-Token skip verification and are checked by AdminRequired instead.
func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		Filter: func(c *fiber.Ctx) bool {
			return hasAdminToken(c, cfg)
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.Response{
				Success: false,
				Error:   "Unauthorized: invalid or expired token",
			})
		},
	})
}

// RoleRequired lets the request through when the token role is one of roles.
func RoleRequired(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := access.GetRole(c)
		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.Response{
			Success: false,
			Error:   "Insufficient permissions",
		})
	}
}
