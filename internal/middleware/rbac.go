package middleware

import (
	"context"

	common_models "go-bizsuite/internal/common/models"
	"go-bizsuite/pkg/access"

	"github.com/gofiber/fiber/v2"
)

// PermissionChecker answers permission questions for the current caller
type PermissionChecker interface {
	HasAnyPermission(ctx context.Context, sub common_models.Subject, keys []access.Key) bool
	HasMenuAccess(ctx context.Context, sub common_models.Subject, menu string) bool
}

// RequirePermission passes when the caller holds any of keys
func RequirePermission(checker PermissionChecker, skipAuth bool, keys ...access.Key) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if skipAuth {
			return c.Next()
		}

		sub, ok := CurrentSubject(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		if !checker.HasAnyPermission(c.UserContext(), sub, keys) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: Insufficient permissions",
			})
		}

		return c.Next()
	}
}

// RequireMenuAccess gates a whole navigation section
func RequireMenuAccess(checker PermissionChecker, skipAuth bool, menu string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if skipAuth {
			return c.Next()
		}

		sub, ok := CurrentSubject(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		if !checker.HasMenuAccess(c.UserContext(), sub, menu) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Access denied: " + menu + " menu",
			})
		}

		return c.Next()
	}
}

// RequireSuperAdmin restricts platform operations
func RequireSuperAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sub, ok := CurrentSubject(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
		if !sub.SuperAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Access denied: Super admin required",
			})
		}
		return c.Next()
	}
}
