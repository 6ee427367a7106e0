package handler

import (
	"errors"
	"strings"

	"retail-backoffice/internal/middleware"
	"retail-backoffice/internal/service"
	"retail-backoffice/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type ValidateTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// authFailure answers auth errors. Session errors carry a reason so the till
// can tell an idle logout from a login on another device.
func authFailure(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrSessionTimeout):
		return c.Status(401).JSON(fiber.Map{"error": err.Error(), "reason": "idle_timeout"})
	case errors.Is(err, service.ErrSessionReplaced):
		return c.Status(401).JSON(fiber.Map{"error": err.Error(), "reason": "replaced"})
	case errors.Is(err, service.ErrUserInactive):
		return c.Status(403).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrWrongPassword), errors.Is(err, service.ErrUserNotFound):
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(401).JSON(fiber.Map{"error": err.Error()})
}

// invalidField describes the first failed validation rule, or "" when req is valid.
func invalidField(req any) string {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return "Field '" + errs[0].FailedField + "' failed on tag '" + errs[0].Tag + "'"
	}
	return ""
}

// Login issues a token and ends any earlier session of the same user
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if msg := invalidField(&req); msg != "" {
		return c.Status(400).JSON(fiber.Map{"error": msg})
	}

	response, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		return authFailure(c, err)
	}
	return c.JSON(fiber.Map{"message": "Login successful", "data": response})
}

// ResetPassword changes the password and logs the user out everywhere
// POST /api/v1/auth/reset-password
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if msg := invalidField(&req); msg != "" {
		return c.Status(400).JSON(fiber.Map{"error": msg})
	}

	if err := h.authService.ResetPassword(req.Email, req.OldPassword, req.NewPassword); err != nil {
		return authFailure(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password updated successfully"})
}

// Heartbeat keeps the session alive
// POST /api/v1/auth/heartbeat
func (h *AuthHandler) Heartbeat(c *fiber.Ctx) error {
	id := middleware.ActorFrom(c).ID
	if id == uuid.Nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}

	if err := h.authService.Heartbeat(id); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to update heartbeat"})
	}
	return c.JSON(fiber.Map{"message": "Heartbeat received", "status": "online"})
}

// ValidateToken
// POST /api/v1/auth/validate-token
func (h *AuthHandler) ValidateToken(c *fiber.Ctx) error {
	var req ValidateTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	if msg := invalidField(&req); msg != "" {
		return c.Status(400).JSON(fiber.Map{"error": msg})
	}

	response, err := h.authService.ValidateToken(req.Token)
	if err != nil {
		return authFailure(c, err)
	}
	return c.JSON(fiber.Map{"message": "Success", "data": response})
}
