package system

import (
	"context"

	"go-bizsuite/internal/common/models"
	"go-bizsuite/internal/middleware"
	"go-bizsuite/pkg/access"

	"github.com/gofiber/fiber/v2"
)

// EffectiveResolver lists what the caller may do
type EffectiveResolver interface {
	EffectivePermissions(ctx context.Context, sub models.Subject, keys []access.Key) map[string]bool
}

type DebugController struct {
	Permissions EffectiveResolver
}

func NewDebugController(permissions EffectiveResolver) *DebugController {
	return &DebugController{Permissions: permissions}
}

// GetCurrentUser godoc
// @Summary      Get current user info
// @Description  The caller's token claims and resolved permissions
// @Tags         debug
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/debug/me [get]
func (c *DebugController) GetCurrentUser(ctx *fiber.Ctx) error {
	sub, ok := middleware.CurrentSubject(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User context missing"})
	}

	return ctx.JSON(fiber.Map{
		"user_id":     sub.UserID,
		"org_id":      sub.OrgID,
		"role":        sub.Role,
		"department":  sub.Department,
		"super_admin": sub.SuperAdmin,
		"permissions": c.Permissions.EffectivePermissions(ctx.UserContext(), sub, nil),
	})
}
