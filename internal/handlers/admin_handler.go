package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/siddhasavor/backend/internal/dto"
	"github.com/siddhasavor/backend/internal/services"
)

type AdminHandler struct {
	authService  *services.AuthService
	tokenService *services.TokenService
}

func NewAdminHandler(authService *services.AuthService, tokenService *services.TokenService) *AdminHandler {
	return &AdminHandler{authService: authService, tokenService: tokenService}
}

func (h *AdminHandler) ListDoctors(c *fiber.Ctx) error {
	doctors, err := h.authService.ListDoctors(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, doctors, "Doctors retrieved successfully")
}

// CleanupPasswordResets purges expired reset tokens and reports what is left.
func (h *AdminHandler) CleanupPasswordResets(c *fiber.Ctx) error {
	ctx := c.UserContext()

	cleaned, err := h.tokenService.CleanupExpiredTokens(ctx)
	if err != nil {
		return err
	}
	stats, err := h.tokenService.GetResetStats(ctx)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "password reset tokens cleaned", "action", "password_reset.cleanup", "cleaned", cleaned)
	return ok(c, dto.CleanupResult{CleanedTokens: cleaned, Stats: stats}, "Cleanup completed")
}
