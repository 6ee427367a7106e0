package middleware

import (
	"strings"

	"retail-backoffice/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const actorKey = "actor"

// RequireAuth validates the bearer token against the user's current session
// and sets user info in context
func RequireAuth(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}

		session, err := auth.ValidateToken(parts[1])
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": err.Error()})
		}

		actor := session.Actor()
		c.Locals(actorKey, actor)
		c.Locals("user_id", actor.ID.String())
		c.Locals("user_email", actor.Email)
		c.Locals("user_name", actor.Name)
		c.Locals("user_role", actor.Role)
		c.Locals("user_privileges", actor.Privileges)

		return c.Next()
	}
}

// ActorFrom returns the authenticated actor. Outside RequireAuth it is the
// zero Actor, whose audit id is "system".
func ActorFrom(c *fiber.Ctx) service.Actor {
	if a, ok := c.Locals(actorKey).(service.Actor); ok {
		return a
	}
	actor := service.Actor{}
	if id, ok := c.Locals("user_id").(string); ok {
		actor.ID, _ = uuid.Parse(id)
	}
	actor.Name, _ = c.Locals("user_name").(string)
	actor.Email, _ = c.Locals("user_email").(string)
	actor.Privileges, _ = c.Locals("user_privileges").([]string)
	return actor
}

// RequirePrivilege checks if the authenticated user has the required privilege
func RequirePrivilege(requiredPrivilege string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		privileges, ok := c.Locals("user_privileges").([]string)
		if !ok {
			return c.Status(403).JSON(fiber.Map{"error": "No privileges found"})
		}

		for _, p := range privileges {
			if p == requiredPrivilege {
				return c.Next()
			}
		}

		return c.Status(403).JSON(fiber.Map{
			"error": "Forbidden: requires '" + requiredPrivilege + "' privilege",
		})
	}
}

// RequireAnyPrivilege checks if the user has at least one of the specified privileges
func RequireAnyPrivilege(requiredPrivileges ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		privileges, ok := c.Locals("user_privileges").([]string)
		if !ok {
			return c.Status(403).JSON(fiber.Map{"error": "No privileges found"})
		}

		for _, userPriv := range privileges {
			for _, reqPriv := range requiredPrivileges {
				if userPriv == reqPriv {
					return c.Next()
				}
			}
		}

		return c.Status(403).JSON(fiber.Map{
			"error": "Forbidden: requires one of " + strings.Join(requiredPrivileges, ", ") + " privileges",
		})
	}
}
