package middleware

import (
	"errors"

	"retail-backoffice/pkg/redisx"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const (
	IdempotencyHeader = "Idempotency-Key"

	replayKey = "idempotent_replay_id"
	resultKey = "idempotent_result_id"
)

// Idempotency remembers which resource a POST with an Idempotency-Key
// produced. A repeated key reaches the handler with ReplayID set so it can
// return the stored resource instead of creating another one. Keys are scoped
// per user. Redis failures let the request through unprotected.
func Idempotency(store *redisx.IdempotencyStore, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get(IdempotencyHeader)
		if key == "" || !store.Enabled() {
			return c.Next()
		}
		if len(key) > 128 {
			return c.Status(400).JSON(fiber.Map{"error": "Idempotency-Key is too long"})
		}

		scoped := ActorFrom(c).AuditID() + ":" + key
		ctx := c.UserContext()

		stored, reserved, err := store.Reserve(ctx, scoped)
		switch {
		case errors.Is(err, redisx.ErrInFlight):
			return c.Status(409).JSON(fiber.Map{"error": err.Error()})
		case err != nil:
			log.WithError(err).Warn("idempotency store unavailable")
			return c.Next()
		case !reserved:
			c.Locals(replayKey, stored)
			return c.Next()
		}

		err = c.Next()
		status := c.Response().StatusCode()
		id, _ := c.Locals(resultKey).(string)
		if err == nil && status >= 200 && status < 300 && id != "" {
			if cerr := store.Complete(ctx, scoped, id); cerr != nil {
				log.WithError(cerr).Warn("idempotency complete failed")
			}
			return nil
		}
		if rerr := store.Release(ctx, scoped); rerr != nil {
			log.WithError(rerr).Warn("idempotency release failed")
		}
		return err
	}
}

// ReplayID is the resource id stored for a repeated Idempotency-Key.
func ReplayID(c *fiber.Ctx) (string, bool) {
	id, ok := c.Locals(replayKey).(string)
	return id, ok && id != ""
}

// SetResultID records the id of the resource the request produced.
func SetResultID(c *fiber.Ctx, id string) {
	c.Locals(resultKey, id)
}
