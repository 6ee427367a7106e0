package handler

import (
	"errors"
	"strconv"
	"strings"

	"retail-backoffice/internal/service"
	"retail-backoffice/internal/settlement"
	"retail-backoffice/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// statusOf maps service errors onto HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, settlement.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, settlement.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, settlement.ErrInvalid),
		errors.Is(err, settlement.ErrTemporalInvalid),
		errors.Is(err, settlement.ErrDisabled):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrRoleNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrEmailExists):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

// fail writes {"error": ...}. Unexpected errors are logged and hidden.
func fail(c *fiber.Ctx, err error) error {
	status := statusOf(err)
	if status == fiber.StatusInternalServerError {
		logger.LogError(logger.Get(), "handler", c.Route().Path, c.Method(), c.OriginalURL(), err)
		return c.Status(status).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	if errors.Is(err, service.ErrForbidden) {
		return c.Status(status).JSON(fiber.Map{"error": "Forbidden: you are not allowed to perform this action"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func invalidJSON(c *fiber.Ctx) error {
	return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
}

func paramID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Params(name))
}

func queryInt(c *fiber.Ctx, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}

// queryList accepts both ?status=a,b and ?status=a&status=b.
func queryList(c *fiber.Ctx, key string) []string {
	var out []string
	for _, raw := range c.Context().QueryArgs().PeekMulti(key) {
		for _, v := range strings.Split(string(raw), ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}
