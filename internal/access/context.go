package access

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/siddhasavor/backend/internal/models"
)

var ErrNoClaims = errors.New("invalid token in context")

func claims(c *fiber.Ctx) (jwt.MapClaims, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return nil, ErrNoClaims
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return mc, nil
}

// GetSubject returns the sub claim: a doctor UID or a patient ID.
func GetSubject(c *fiber.Ctx) (string, error) {
	mc, err := claims(c)
	if err != nil {
		return "", err
	}
	sub, ok := mc["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("missing sub claim")
	}
	return sub, nil
}

func GetRole(c *fiber.Ctx) string {
	mc, err := claims(c)
	if err != nil {
		return ""
	}
	role, _ := mc["role"].(string)
	return role
}

func GetEmail(c *fiber.Ctx) string {
	mc, err := claims(c)
	if err != nil {
		return ""
	}
	email, _ := mc["email"].(string)
	return email
}

// DoctorScope is the doctor UID that patient queries are limited to.
// Admins get "" which disables the filter.
func DoctorScope(c *fiber.Ctx) (string, error) {
	sub, err := GetSubject(c)
	if err != nil {
		return "", err
	}
	if GetRole(c) == models.RoleAdmin {
		return "", nil
	}
	return sub, nil
}
