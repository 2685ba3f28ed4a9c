package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/siddhasavor/backend/internal/dto"
	"github.com/siddhasavor/backend/internal/notify"
	"github.com/siddhasavor/backend/internal/services"
	"github.com/siddhasavor/backend/internal/validation"
)

// errorStatus maps service sentinels to HTTP statuses. The first match wins.
var errorStatus = []struct {
	err    error
	status int
}{
	{services.ErrPatientIDRequired, fiber.StatusBadRequest},
	{services.ErrInvalidAction, fiber.StatusBadRequest},
	{services.ErrReasonRequired, fiber.StatusBadRequest},
	{services.ErrInvalidDiagnosis, fiber.StatusBadRequest},
	{services.ErrInvalidMealType, fiber.StatusBadRequest},
	{services.ErrInvalidStatus, fiber.StatusBadRequest},
	{services.ErrInvalidInviteRole, fiber.StatusBadRequest},
	{services.ErrInvalidRole, fiber.StatusBadRequest},
	{services.ErrWeakPassword, fiber.StatusBadRequest},
	{services.ErrResetCodeMismatch, fiber.StatusBadRequest},
	{notify.ErrInvalidRecipient, fiber.StatusBadRequest},

	{services.ErrInvalidCredentials, fiber.StatusUnauthorized},
	{services.ErrInvalidToken, fiber.StatusUnauthorized},
	{services.ErrPatientPending, fiber.StatusForbidden},

	{services.ErrPatientNotFound, fiber.StatusNotFound},
	{services.ErrInviteInvalid, fiber.StatusNotFound},
	{services.ErrResetInvalid, fiber.StatusNotFound},
	{services.ErrDietPlanNotFound, fiber.StatusNotFound},

	{services.ErrEmailTaken, fiber.StatusConflict},

	{services.ErrInviteExpired, fiber.StatusGone},
	{services.ErrResetExpired, fiber.StatusGone},
	{services.ErrResetAlreadyUsed, fiber.StatusGone},
}

// statusFor returns the status and the client-facing sentinel for err.
func statusFor(err error) (int, error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status, e.err
		}
	}
	return fiber.StatusInternalServerError, err
}

// ErrorHandler renders every error returned by a handler as the response
// envelope. Server errors are logged and their details hidden.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var data interface{}

	var verr *validation.Error
	var ferr *fiber.Error
	switch {
	case errors.As(err, &verr):
		code = fiber.StatusBadRequest
		message = verr.Error()
		data = verr.Fields
	case errors.As(err, &ferr):
		code = ferr.Code
		message = ferr.Message
	default:
		var sentinel error
		code, sentinel = statusFor(err)
		message = sentinel.Error()
	}

	if code >= fiber.StatusInternalServerError {
		slog.ErrorContext(c.UserContext(), "request failed",
			"action", c.Method()+" "+c.Route().Path,
			"request_id", c.Locals("requestid"),
			"error", err.Error(),
		)
		message = "Internal server error"
	}

	return c.Status(code).JSON(dto.Response{
		Success: false,
		Data:    data,
		Error:   message,
	})
}

// bind parses the JSON body into req and validates it.
func bind(c *fiber.Ctx, v *validation.Validator, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return v.Struct(req)
}

func ok(c *fiber.Ctx, data interface{}, message string) error {
	return c.JSON(dto.Response{Success: true, Data: data, Message: message})
}

func created(c *fiber.Ctx, data interface{}, message string) error {
	return c.Status(fiber.StatusCreated).JSON(dto.Response{Success: true, Data: data, Message: message})
}
