package handler

import (
	"retail-backoffice/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	service service.DashboardService
}

func NewDashboardHandler(s service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

// GetSalesPerDay returns paid sales per day for charts
// Query params: days (default 7, max 90)
func (h *DashboardHandler) GetSalesPerDay(c *fiber.Ctx) error {
	days := queryInt(c, "days", 7)

	data, err := h.service.GetSalesPerDay(c.UserContext(), days)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch sales"})
	}

	return c.JSON(fiber.Map{
		"period": days,
		"data":   data,
	})
}

// GetDashboardStats returns overview statistics
// Query params: low_stock (default 5)
func (h *DashboardHandler) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := h.service.GetDashboardStats(c.UserContext(), queryInt(c, "low_stock", service.DefaultLowStock))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch dashboard stats"})
	}

	return c.JSON(fiber.Map{"message": "Success", "data": stats})
}
