package handler

import (
	"retail-backoffice/internal/middleware"
	"retail-backoffice/internal/model"
	"retail-backoffice/internal/repository"
	"retail-backoffice/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type PurchaseOrderHandler struct {
	service service.PurchaseOrderService
}

func NewPurchaseOrderHandler(s service.PurchaseOrderService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{service: s}
}

// CreateSupplier
// POST /api/v1/suppliers
func (h *PurchaseOrderHandler) CreateSupplier(c *fiber.Ctx) error {
	var req service.SupplierRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	supplier, err := h.service.CreateSupplier(c.UserContext(), &req, middleware.ActorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Supplier created", "data": supplier})
}

// UpdateSupplier
// PUT /api/v1/suppliers/:id
func (h *PurchaseOrderHandler) UpdateSupplier(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid supplier ID"})
	}

	var req service.SupplierRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	supplier, err := h.service.UpdateSupplier(c.UserContext(), id, &req, middleware.ActorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Supplier updated", "data": supplier})
}

// GetSupplier
// GET /api/v1/suppliers/:id
func (h *PurchaseOrderHandler) GetSupplier(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid supplier ID"})
	}

	supplier, err := h.service.GetSupplier(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Success", "data": supplier})
}

// GetSuppliers
// GET /api/v1/suppliers?search=
func (h *PurchaseOrderHandler) GetSuppliers(c *fiber.Ctx) error {
	suppliers, err := h.service.ListSuppliers(c.UserContext(), c.Query("search"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Success", "data": suppliers})
}

// DeleteSupplier
// DELETE /api/v1/suppliers/:id
func (h *PurchaseOrderHandler) DeleteSupplier(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid supplier ID"})
	}

	if err := h.service.DeleteSupplier(c.UserContext(), id, middleware.ActorFrom(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Supplier deleted"})
}

// CreateSupplierPayment
// POST /api/v1/suppliers/payments
func (h *PurchaseOrderHandler) CreateSupplierPayment(c *fiber.Ctx) error {
	var req service.CreateSupplierPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	payment, err := h.service.CreateSupplierPayment(c.UserContext(), &req, middleware.ActorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Supplier payment created", "data": payment})
}

// UpdateSupplierPayment
// PUT /api/v1/suppliers/payments/:id
func (h *PurchaseOrderHandler) UpdateSupplierPayment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid supplier payment ID"})
	}

	var req service.UpdateSupplierPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	payment, err := h.service.UpdateSupplierPayment(c.UserContext(), id, &req, middleware.ActorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Supplier payment updated", "data": payment})
}

// GetSupplierPayment
// GET /api/v1/suppliers/payments/:id
func (h *PurchaseOrderHandler) GetSupplierPayment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid supplier payment ID"})
	}

	payment, err := h.service.GetSupplierPayment(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Success", "data": payment})
}

// GetSupplierPayments
// GET /api/v1/suppliers/payments?search=&supplier_id=
func (h *PurchaseOrderHandler) GetSupplierPayments(c *fiber.Ctx) error {
	f := repository.SupplierPaymentFilter{Search: c.Query("search")}
	if v := c.Query("supplier_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid supplier ID"})
		}
		f.SupplierID = &id
	}

	payments, err := h.service.ListSupplierPayments(c.UserContext(), f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Success", "data": payments})
}

// DeleteSupplierPayment
// DELETE /api/v1/suppliers/payments/:id
func (h *PurchaseOrderHandler) DeleteSupplierPayment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid supplier payment ID"})
	}

	if err := h.service.DeleteSupplierPayment(c.UserContext(), id, middleware.ActorFrom(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Supplier payment deleted"})
}

// CreatePurchaseOrder
// POST /api/v1/purchase-orders
func (h *PurchaseOrderHandler) CreatePurchaseOrder(c *fiber.Ctx) error {
	var req service.PurchaseOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	po, err := h.service.Create(c.UserContext(), &req, middleware.ActorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Purchase order created", "data": po})
}

// UpdatePurchaseOrder edits header and lines while the order is still open
// PUT /api/v1/purchase-orders/:id
func (h *PurchaseOrderHandler) UpdatePurchaseOrder(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid purchase order ID"})
	}

	var req service.PurchaseOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	po, err := h.service.Update(c.UserContext(), id, &req, middleware.ActorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Purchase order updated", "data": po})
}

// UpdatePurchaseOrderStatus
// PATCH /api/v1/purchase-orders/:id/status
func (h *PurchaseOrderHandler) UpdatePurchaseOrderStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid purchase order ID"})
	}

	var req service.PurchaseOrderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	po, err := h.service.UpdateStatus(c.UserContext(), id, &req, middleware.ActorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Purchase order status updated", "data": po})
}

// GetPurchaseOrder
// GET /api/v1/purchase-orders/:id
func (h *PurchaseOrderHandler) GetPurchaseOrder(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid purchase order ID"})
	}

	po, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Success", "data": po})
}

// GetPurchaseOrders
// GET /api/v1/purchase-orders?search=&status=&supplier_id=
func (h *PurchaseOrderHandler) GetPurchaseOrders(c *fiber.Ctx) error {
	f := repository.PurchaseOrderFilter{Search: c.Query("search")}
	for _, s := range queryList(c, "status") {
		status := model.PurchaseOrderStatus(s)
		if !status.Valid() {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid status " + s})
		}
		f.Statuses = append(f.Statuses, status)
	}
	if v := c.Query("supplier_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid supplier ID"})
		}
		f.SupplierID = &id
	}

	orders, err := h.service.List(c.UserContext(), f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Success", "data": orders})
}
