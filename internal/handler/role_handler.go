package handler

import (
	"retail-backoffice/internal/service"

	"github.com/gofiber/fiber/v2"
)

type RoleHandler struct {
	userService service.UserService
}

func NewRoleHandler(userService service.UserService) *RoleHandler {
	return &RoleHandler{userService: userService}
}

// GetRoles returns all available roles with their privileges
// GET /api/v1/roles
func (h *RoleHandler) GetRoles(c *fiber.Ctx) error {
	roles, err := h.userService.GetRoles()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch roles"})
	}
	return c.JSON(fiber.Map{"message": "Success", "data": roles})
}

// GetPrivileges
// GET /api/v1/privileges
func (h *RoleHandler) GetPrivileges(c *fiber.Ctx) error {
	privileges, err := h.userService.GetPrivileges()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch privileges"})
	}
	return c.JSON(fiber.Map{"message": "Success", "data": privileges})
}
