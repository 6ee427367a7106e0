package handler

import (
	"retail-backoffice/internal/middleware"
	"retail-backoffice/internal/service"

	"github.com/gofiber/fiber/v2"
)

type CashierBookHandler struct {
	service service.CashierBookService
}

func NewCashierBookHandler(s service.CashierBookService) *CashierBookHandler {
	return &CashierBookHandler{service: s}
}

// OpenCashierBook opens a book for the logged-in cashier
// POST /api/v1/cashier-books
func (h *CashierBookHandler) OpenCashierBook(c *fiber.Ctx) error {
	var req service.OpenCashierBookRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	book, err := h.service.Open(c.UserContext(), &req, middleware.ActorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Cashier book opened", "data": book.ToResponse()})
}

// CloseActiveCashierBook
// POST /api/v1/cashier-books/active/close
func (h *CashierBookHandler) CloseActiveCashierBook(c *fiber.Ctx) error {
	book, err := h.service.CloseActive(c.UserContext(), middleware.ActorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Cashier book closed", "data": book.ToResponse()})
}

// CloseCashierBook
// POST /api/v1/cashier-books/:id/close
func (h *CashierBookHandler) CloseCashierBook(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid cashier book ID"})
	}

	book, err := h.service.Close(c.UserContext(), id, middleware.ActorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Cashier book closed", "data": book.ToResponse()})
}

// GetActiveCashierBook
// GET /api/v1/cashier-books/active
func (h *CashierBookHandler) GetActiveCashierBook(c *fiber.Ctx) error {
	book, err := h.service.Active(c.UserContext(), middleware.ActorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Success", "data": book.ToResponse()})
}

// GetActiveCashierBookStats
// GET /api/v1/cashier-books/active/stats
func (h *CashierBookHandler) GetActiveCashierBookStats(c *fiber.Ctx) error {
	stats, err := h.service.ActiveStats(c.UserContext(), middleware.ActorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Success", "data": stats})
}

// GetCashierBook
// GET /api/v1/cashier-books/:id
func (h *CashierBookHandler) GetCashierBook(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid cashier book ID"})
	}

	book, err := h.service.Get(c.UserContext(), id, middleware.ActorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Success", "data": book.ToResponse()})
}

// GetCashierBookStats
// GET /api/v1/cashier-books/:id/stats
func (h *CashierBookHandler) GetCashierBookStats(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid cashier book ID"})
	}

	stats, err := h.service.Stats(c.UserContext(), id, middleware.ActorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Success", "data": stats})
}

// GetCashierBooks
// GET /api/v1/cashier-books
func (h *CashierBookHandler) GetCashierBooks(c *fiber.Ctx) error {
	req := service.ListCashierBooksRequest{
		Search:    c.Query("search"),
		CashierID: c.Query("cashier_id"),
		Statuses:  queryList(c, "status"),
		OpenedOn:  c.Query("opened_on"),
		ClosedOn:  c.Query("closed_on"),
		Limit:     queryInt(c, "limit", 50),
		Offset:    queryInt(c, "offset", 0),
	}

	books, total, err := h.service.List(c.UserContext(), &req, middleware.ActorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Success", "data": books, "total": total})
}
