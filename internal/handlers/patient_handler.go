package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/siddhasavor/backend/internal/access"
	"github.com/siddhasavor/backend/internal/dto"
	"github.com/siddhasavor/backend/internal/services"
	"github.com/siddhasavor/backend/internal/validation"
)

type PatientHandler struct {
	patientService *services.PatientService
	validate       *validation.Validator
}

func NewPatientHandler(patientService *services.PatientService, validate *validation.Validator) *PatientHandler {
	return &PatientHandler{patientService: patientService, validate: validate}
}

func (h *PatientHandler) Register(c *fiber.Ctx) error {
	var req dto.PatientRegisterRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}

	patient, err := h.patientService.Register(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return created(c, fiber.Map{
		"id":     patient.ID,
		"status": patient.Status,
	}, "Registration received. Your doctor will review it shortly.")
}

func (h *PatientHandler) List(c *fiber.Ctx) error {
	doctorUID, err := access.DoctorScope(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}

	patients, err := h.patientService.ListForDoctor(c.UserContext(), doctorUID, c.Query("status"))
	if err != nil {
		return err
	}
	return ok(c, patients, "")
}

func (h *PatientHandler) Approve(c *fiber.Ctx) error {
	doctorUID, patientID, req, err := h.action(c)
	if err != nil {
		return err
	}

	if _, err := h.patientService.Approve(c.UserContext(), doctorUID, patientID, req.Action); err != nil {
		return err
	}
	return ok(c, nil, "Patient approved successfully")
}

func (h *PatientHandler) Reject(c *fiber.Ctx) error {
	doctorUID, patientID, req, err := h.action(c)
	if err != nil {
		return err
	}

	if err := h.patientService.Reject(c.UserContext(), doctorUID, patientID, req.Action, req.Reason); err != nil {
		return err
	}
	return ok(c, nil, "Patient rejected and removed")
}

func (h *PatientHandler) action(c *fiber.Ctx) (string, uuid.UUID, *dto.PatientActionRequest, error) {
	doctorUID, err := access.DoctorScope(c)
	if err != nil {
		return "", uuid.Nil, nil, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.PatientActionRequest
	if err := c.BodyParser(&req); err != nil {
		return "", uuid.Nil, nil, fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.PatientID == "" {
		return "", uuid.Nil, nil, services.ErrPatientIDRequired
	}
	if err := h.validate.Struct(&req); err != nil {
		return "", uuid.Nil, nil, err
	}

	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return "", uuid.Nil, nil, fiber.NewError(fiber.StatusBadRequest, "patientId must be a valid UUID")
	}
	return doctorUID, patientID, &req, nil
}
