package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/siddhasavor/backend/internal/dto"
	"github.com/siddhasavor/backend/internal/services"
	"github.com/siddhasavor/backend/internal/validation"
)

type AuthHandler struct {
	authService  *services.AuthService
	tokenService *services.TokenService
	validate     *validation.Validator
}

func NewAuthHandler(authService *services.AuthService, tokenService *services.TokenService, validate *validation.Validator) *AuthHandler {
	return &AuthHandler{authService: authService, tokenService: tokenService, validate: validate}
}

func (h *AuthHandler) RegisterDoctor(c *fiber.Ctx) error {
	var req dto.DoctorRegisterRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}

	doctor, err := h.authService.RegisterDoctor(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return created(c, doctor, "Doctor registered successfully")
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}

	resp, err := h.authService.Login(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return ok(c, resp, "")
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}

	resp, err := h.authService.Refresh(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return ok(c, resp, "")
}

// Logout always reports success. Revocation failures are only logged.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req dto.LogoutRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			slog.WarnContext(c.UserContext(), "logout body ignored", "error", err.Error())
		}
	}

	if err := h.authService.Logout(c.UserContext(), &req); err != nil {
		slog.ErrorContext(c.UserContext(), "logout failed", "action", "auth.logout", "error", err.Error())
	}
	return ok(c, nil, "Logged out successfully")
}

// RequestPasswordReset answers the same way whether or not the account exists.
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}

	if err := h.authService.RequestPasswordReset(c.UserContext(), &req); err != nil {
		slog.ErrorContext(c.UserContext(), "password reset request failed",
			"action", "password_reset.request",
			"role", req.Role,
			"error", err.Error(),
		)
	}
	return ok(c, nil, "If the account exists, a reset link has been sent")
}

func (h *AuthHandler) VerifyPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetVerifyRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}

	reset, err := h.tokenService.VerifyResetToken(c.UserContext(), req.Token, req.Code)
	if err != nil {
		// Every client-side reset failure is reported as 400 here.
		if status, sentinel := statusFor(err); status < fiber.StatusInternalServerError {
			return fiber.NewError(fiber.StatusBadRequest, sentinel.Error())
		}
		return err
	}
	return ok(c, fiber.Map{"valid": true, "email": reset.Email, "expiresAt": reset.ExpiresAt}, "")
}

func (h *AuthHandler) CompletePasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetCompleteRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}

	if err := h.tokenService.CompletePasswordReset(c.UserContext(), req.Token, req.Code, req.NewPassword); err != nil {
		return err
	}
	return ok(c, nil, "Password has been reset")
}
