package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/siddhasavor/backend/internal/dto"
	"github.com/siddhasavor/backend/internal/services"
	"github.com/siddhasavor/backend/internal/validation"
)

type DietPlanHandler struct {
	dietPlanService *services.DietPlanService
	validate        *validation.Validator
}

func NewDietPlanHandler(dietPlanService *services.DietPlanService, validate *validation.Validator) *DietPlanHandler {
	return &DietPlanHandler{dietPlanService: dietPlanService, validate: validate}
}

func (h *DietPlanHandler) List(c *fiber.Ctx) error {
	plans, err := h.dietPlanService.List(c.UserContext(), c.Query("diagnosis"))
	if err != nil {
		return err
	}
	return ok(c, plans, "")
}

func (h *DietPlanHandler) Upsert(c *fiber.Ctx) error {
	var req dto.DietPlanRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}

	plan, err := h.dietPlanService.Upsert(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return ok(c, plan, "Diet plan saved")
}
