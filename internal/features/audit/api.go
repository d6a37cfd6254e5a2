package audit

import (
	"go-bizsuite/internal/config"
	"go-bizsuite/internal/middleware"
	"go-bizsuite/pkg/access"

	"github.com/gofiber/fiber/v2"
)

var KeyAuditView = access.NewKey("audit", access.ActionView)

type AuditApi struct {
	controller *AuditController
	config     *config.Config
	checker    middleware.PermissionChecker
}

func NewAuditApi(controller *AuditController, config *config.Config, checker middleware.PermissionChecker) *AuditApi {
	return &AuditApi{
		controller: controller,
		config:     config,
		checker:    checker,
	}
}

func (h *AuditApi) Setup(app *fiber.App) {
	audit := app.Group("/api/audit-logs", middleware.AuthMiddleware(h.config.SkipAuth))

	audit.Get("/", middleware.RequirePermission(h.checker, h.config.SkipAuth, KeyAuditView), h.controller.ListLogs)
}
