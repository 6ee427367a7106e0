package handler

import (
	"retail-backoffice/internal/middleware"
	"retail-backoffice/internal/service"

	"github.com/gofiber/fiber/v2"
)

type CouponHandler struct {
	service service.CouponService
}

func NewCouponHandler(s service.CouponService) *CouponHandler {
	return &CouponHandler{service: s}
}

// CreateCoupon
// POST /api/v1/coupons
func (h *CouponHandler) CreateCoupon(c *fiber.Ctx) error {
	var req service.CreateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	coupon, err := h.service.Create(c.UserContext(), &req, middleware.ActorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Coupon created", "data": coupon})
}

// UpdateCoupon
// PUT /api/v1/coupons/:id
func (h *CouponHandler) UpdateCoupon(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid coupon ID"})
	}

	var req service.UpdateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	coupon, err := h.service.Update(c.UserContext(), id, &req, middleware.ActorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Coupon updated", "data": coupon})
}

// GetCoupon
// GET /api/v1/coupons/:id
func (h *CouponHandler) GetCoupon(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid coupon ID"})
	}

	coupon, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Success", "data": coupon})
}

// GetCoupons
// GET /api/v1/coupons?search=
func (h *CouponHandler) GetCoupons(c *fiber.Ctx) error {
	coupons, err := h.service.List(c.UserContext(), c.Query("search"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Success", "data": coupons})
}

// CreateCouponCode
// POST /api/v1/coupons/:id/codes
func (h *CouponHandler) CreateCouponCode(c *fiber.Ctx) error {
	couponID, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid coupon ID"})
	}

	var req service.CreateCouponCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	code, err := h.service.CreateCode(c.UserContext(), couponID, &req, middleware.ActorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Coupon code created", "data": code})
}

// GetCouponCodes
// GET /api/v1/coupons/:id/codes
func (h *CouponHandler) GetCouponCodes(c *fiber.Ctx) error {
	couponID, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid coupon ID"})
	}

	codes, err := h.service.ListCodes(c.UserContext(), couponID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Success", "data": codes})
}

// UpdateCouponCode changes stock or disables a code
// PUT /api/v1/coupon-codes/:id
func (h *CouponHandler) UpdateCouponCode(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid coupon code ID"})
	}

	var req service.UpdateCouponCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	code, err := h.service.UpdateCode(c.UserContext(), id, &req, middleware.ActorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Coupon code updated", "data": code})
}

// CheckCouponCode
// GET /api/v1/coupon-codes/:code/check?amount=
func (h *CouponHandler) CheckCouponCode(c *fiber.Ctx) error {
	check, err := h.service.CheckCode(c.UserContext(), c.Params("code"), queryInt(c, "amount", 1))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Success", "data": check})
}

// CheckCouponCodeUsage
// GET /api/v1/coupon-codes/:code/usage
func (h *CouponHandler) CheckCouponCodeUsage(c *fiber.Ctx) error {
	usage, err := h.service.CheckUsage(c.UserContext(), c.Params("code"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Success", "data": usage})
}
