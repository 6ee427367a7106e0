package handler

import (
	"time"

	"retail-backoffice/internal/middleware"
	"retail-backoffice/internal/model"
	"retail-backoffice/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type TransactionHandler struct {
	service service.TransactionService
	loc     *time.Location
}

func NewTransactionHandler(s service.TransactionService, loc *time.Location) *TransactionHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &TransactionHandler{service: s, loc: loc}
}

// CreateTransaction records a sale against an open cashier book
// POST /api/v1/transactions
func (h *TransactionHandler) CreateTransaction(c *fiber.Ctx) error {
	if id, ok := middleware.ReplayID(c); ok {
		txID, err := uuid.Parse(id)
		if err != nil {
			return fail(c, err)
		}
		tx, err := h.service.Get(c.UserContext(), txID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"message": "Transaction already recorded", "data": tx})
	}

	var req service.CreateTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	tx, err := h.service.Create(c.UserContext(), &req, middleware.ActorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	middleware.SetResultID(c, tx.ID.String())
	return c.Status(201).JSON(fiber.Map{"message": "Transaction created", "data": tx})
}

// UpdateTransaction edits lines, coupons or payment of a transaction
// PUT /api/v1/transactions/:id
func (h *TransactionHandler) UpdateTransaction(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid transaction ID"})
	}

	var req service.UpdateTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	tx, err := h.service.Update(c.UserContext(), id, &req, middleware.ActorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Transaction updated", "data": tx})
}

// GetTransaction
// GET /api/v1/transactions/:id
func (h *TransactionHandler) GetTransaction(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid transaction ID"})
	}

	tx, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Success", "data": tx})
}

// GetTransactions lists transactions. Filters: search, cashier_id,
// cashier_book_id, start_date, end_date (YYYY-MM-DD), status, payment.
// GET /api/v1/transactions
func (h *TransactionHandler) GetTransactions(c *fiber.Ctx) error {
	f := model.TransactionFilter{
		Search:   c.Query("search"),
		Statuses: queryList(c, "status"),
		Payments: queryList(c, "payment"),
		Limit:    queryInt(c, "limit", 50),
		Offset:   queryInt(c, "offset", 0),
	}

	for key, dst := range map[string]**uuid.UUID{"cashier_id": &f.CashierID, "cashier_book_id": &f.CashierBookID} {
		if v := c.Query(key); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				return c.Status(400).JSON(fiber.Map{"error": "Invalid " + key})
			}
			*dst = &id
		}
	}

	if v := c.Query("start_date"); v != "" {
		day, err := time.ParseInLocation("2006-01-02", v, h.loc)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid start_date format, use YYYY-MM-DD"})
		}
		f.StartDate = &day
	}
	if v := c.Query("end_date"); v != "" {
		day, err := time.ParseInLocation("2006-01-02", v, h.loc)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid end_date format, use YYYY-MM-DD"})
		}
		// inclusive: up to the end of that day
		end := day.AddDate(0, 0, 1).Add(-time.Nanosecond)
		f.EndDate = &end
	}

	list, total, err := h.service.List(c.UserContext(), f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Success", "data": list, "total": total})
}
