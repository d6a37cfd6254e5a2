package middleware

import (
	common_models "go-bizsuite/internal/common/models"
	"go-bizsuite/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// DevClaims are injected when SKIP_AUTH is on
var DevClaims = utils.UserClaims{
	UserID: "dev-admin-id",
	OrgID:  "000000000000000000000001",
	Role:   "owner",
}

// AuthMiddleware validates JWT tokens and injects user claims into locals and
// the request context
func AuthMiddleware(skipAuth bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if skipAuth {
			claims := DevClaims
			setClaims(c, &claims)
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header required",
			})
		}

		// Extract token from "Bearer <token>"
		if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		claims, err := utils.ValidateToken(authHeader[7:])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}
		if claims.OrgID == "" && !claims.SuperAdmin {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Token carries no organization",
			})
		}

		setClaims(c, claims)
		return c.Next()
	}
}

func setClaims(c *fiber.Ctx, claims *utils.UserClaims) {
	c.Locals(utils.UserClaimsKey, claims)
	c.Locals("user_id", claims.UserID)
	c.SetUserContext(common_models.WithSubject(c.UserContext(), claims))
}

// CurrentSubject returns the caller stored by AuthMiddleware
func CurrentSubject(c *fiber.Ctx) (common_models.Subject, bool) {
	claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok || claims == nil {
		return common_models.Subject{}, false
	}
	return common_models.SubjectFromClaims(claims), true
}
