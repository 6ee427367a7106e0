package handler

import (
	"retail-backoffice/internal/middleware"
	"retail-backoffice/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CatalogueHandler struct {
	service service.CatalogueService
}

func NewCatalogueHandler(s service.CatalogueService) *CatalogueHandler {
	return &CatalogueHandler{service: s}
}

// CreateProduct
// POST /api/v1/products
func (h *CatalogueHandler) CreateProduct(c *fiber.Ctx) error {
	var req service.ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	product, err := h.service.CreateProduct(c.UserContext(), &req, middleware.ActorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Product created", "data": product})
}

// UpdateProduct
// PUT /api/v1/products/:id
func (h *CatalogueHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	var req service.ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	product, err := h.service.UpdateProduct(c.UserContext(), id, &req, middleware.ActorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product updated", "data": product})
}

// DeleteProduct removes the product and its SKUs from sale
// DELETE /api/v1/products/:id
func (h *CatalogueHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	if err := h.service.DeleteProduct(c.UserContext(), id, middleware.ActorFrom(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product deleted"})
}

// DeleteCategory
// DELETE /api/v1/categories/:id
func (h *CatalogueHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid category ID"})
	}

	if err := h.service.DeleteCategory(c.UserContext(), id, middleware.ActorFrom(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Category deleted"})
}

// GetProduct
// GET /api/v1/products/:id
func (h *CatalogueHandler) GetProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	product, err := h.service.GetProduct(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Success", "data": product})
}

// GetProducts
// GET /api/v1/products?search=&category_id=
func (h *CatalogueHandler) GetProducts(c *fiber.Ctx) error {
	var categoryID *uuid.UUID
	if v := c.Query("category_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid category ID"})
		}
		categoryID = &id
	}

	products, err := h.service.ListProducts(c.UserContext(), c.Query("search"), categoryID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Success", "data": products})
}

// CreateCategory
// POST /api/v1/categories
func (h *CatalogueHandler) CreateCategory(c *fiber.Ctx) error {
	var req service.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	category, err := h.service.CreateCategory(c.UserContext(), &req, middleware.ActorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Category created", "data": category})
}

// GetCategories
// GET /api/v1/categories
func (h *CatalogueHandler) GetCategories(c *fiber.Ctx) error {
	categories, err := h.service.ListCategories(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Success", "data": categories})
}

// CreateSKU adds a sellable variant to a product
// POST /api/v1/products/:id/skus
func (h *CatalogueHandler) CreateSKU(c *fiber.Ctx) error {
	productID, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	var req service.CreateSKURequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	sku, err := h.service.CreateSKU(c.UserContext(), productID, &req, middleware.ActorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Product SKU created", "data": sku})
}

// UpdateSKU
// PUT /api/v1/skus/:id
func (h *CatalogueHandler) UpdateSKU(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid SKU ID"})
	}

	var req service.UpdateSKURequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	sku, err := h.service.UpdateSKU(c.UserContext(), id, &req, middleware.ActorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product SKU updated", "data": sku})
}

// AdjustStock
// POST /api/v1/skus/:id/stock
func (h *CatalogueHandler) AdjustStock(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid SKU ID"})
	}

	var req service.StockAdjustmentRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	sku, err := h.service.AdjustStock(c.UserContext(), id, &req, middleware.ActorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Stock adjusted", "data": sku})
}

// CheckSKU reports whether amount units of a SKU can be sold
// GET /api/v1/skus/:code/check?amount=
func (h *CatalogueHandler) CheckSKU(c *fiber.Ctx) error {
	check, err := h.service.CheckSKU(c.UserContext(), c.Params("code"), queryInt(c, "amount", 1))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Success", "data": check})
}

// GetAvailableSKUs is the sellable catalogue
// GET /api/v1/skus/available?search=
func (h *CatalogueHandler) GetAvailableSKUs(c *fiber.Ctx) error {
	skus, err := h.service.Available(c.UserContext(), c.Query("search"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Success", "data": skus})
}
