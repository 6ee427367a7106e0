package handler

import (
	"retail-backoffice/internal/middleware"
	"retail-backoffice/internal/service"

	"github.com/gofiber/fiber/v2"
)

type StoreHandler struct {
	service service.StoreService
}

func NewStoreHandler(s service.StoreService) *StoreHandler {
	return &StoreHandler{service: s}
}

// GetStore returns the profile printed on receipts
// GET /api/v1/store
func (h *StoreHandler) GetStore(c *fiber.Ctx) error {
	store, err := h.service.Get(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Success", "data": store})
}

// UpdateStore creates the profile on first call
// PATCH /api/v1/store
func (h *StoreHandler) UpdateStore(c *fiber.Ctx) error {
	var req service.StoreRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	store, created, err := h.service.Update(c.UserContext(), &req, middleware.ActorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	if created {
		return c.Status(201).JSON(fiber.Map{"message": "Store created", "data": store})
	}
	return c.JSON(fiber.Map{"message": "Store updated", "data": store})
}
