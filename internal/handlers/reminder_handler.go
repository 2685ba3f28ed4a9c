package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/siddhasavor/backend/internal/dto"
	"github.com/siddhasavor/backend/internal/services"
	"github.com/siddhasavor/backend/internal/validation"
)

type ReminderHandler struct {
	reminderService *services.ReminderService
	validate        *validation.Validator
}

func NewReminderHandler(reminderService *services.ReminderService, validate *validation.Validator) *ReminderHandler {
	return &ReminderHandler{reminderService: reminderService, validate: validate}
}

func (h *ReminderHandler) Dispatch(c *fiber.Ctx) error {
	var req dto.DispatchRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}

	report, err := h.reminderService.Dispatch(c.UserContext(), req.MealType)
	if err != nil {
		return err
	}
	return ok(c, report, "Meal reminders dispatched")
}

func (h *ReminderHandler) SendTest(c *fiber.Ctx) error {
	var req dto.TestMealReminderRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}

	if err := h.reminderService.SendTest(c.UserContext(), req.PatientEmail, req.PatientName, req.MealType); err != nil {
		return err
	}
	return ok(c, nil, "Test meal reminder sent to "+req.PatientEmail)
}
