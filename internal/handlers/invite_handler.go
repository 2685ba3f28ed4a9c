package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/siddhasavor/backend/internal/access"
	"github.com/siddhasavor/backend/internal/dto"
	"github.com/siddhasavor/backend/internal/services"
	"github.com/siddhasavor/backend/internal/validation"
)

type InviteHandler struct {
	tokenService *services.TokenService
	validate     *validation.Validator
}

func NewInviteHandler(tokenService *services.TokenService, validate *validation.Validator) *InviteHandler {
	return &InviteHandler{tokenService: tokenService, validate: validate}
}

func (h *InviteHandler) Create(c *fiber.Ctx) error {
	doctorUID, err := access.GetSubject(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.CreateInviteRequest
	if len(c.Body()) > 0 {
		if err := bind(c, h.validate, &req); err != nil {
			return err
		}
	}

	ttl := time.Duration(req.TTLHours * float64(time.Hour))
	invite, err := h.tokenService.CreateInvite(c.UserContext(), doctorUID, req.Role, ttl)
	if err != nil {
		return err
	}
	return created(c, invite, "Invite created")
}

// Lookup lets the registration page check a token before showing the form.
func (h *InviteHandler) Lookup(c *fiber.Ctx) error {
	invite, err := h.tokenService.ResolveInvite(c.UserContext(), c.Params("token"), "")
	if err != nil {
		return err
	}
	return ok(c, h.tokenService.Summarize(invite, time.Now().UTC()), "")
}

func (h *InviteHandler) Debug(c *fiber.Ctx) error {
	invites, err := h.tokenService.ListInvites(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, invites, "")
}
