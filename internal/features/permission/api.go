package permission

import (
	"go-bizsuite/internal/config"
	"go-bizsuite/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type PermissionApi struct {
	Controller *PermissionController
	config     *config.Config
}

func NewPermissionApi(controller *PermissionController, config *config.Config) *PermissionApi {
	return &PermissionApi{
		Controller: controller,
		config:     config,
	}
}

func (a *PermissionApi) Setup(app *fiber.App) {
	api := app.Group("/api")
	RegisterRoutes(api, a.Controller, a.config)
}

// RegisterRoutes registers all permission-related routes. Authorization for
// administrative routes is decided in the service so that the read paths can
// stay fail-closed without surfacing errors.
func RegisterRoutes(api fiber.Router, ctrl *PermissionController, config *config.Config) {
	permissions := api.Group("/permissions", middleware.AuthMiddleware(config.SkipAuth))

	permissions.Post("/check", ctrl.Check)
	permissions.Post("/check/any", ctrl.CheckAny)
	permissions.Post("/check/all", ctrl.CheckAll)
	permissions.Get("/menu/:menu", ctrl.MenuAccess)
	permissions.Get("/menu/:menu/:sub", ctrl.SubMenuAccess)
	permissions.Get("/effective", ctrl.Effective)

	permissions.Get("/matrix", ctrl.GetMatrix)
	permissions.Get("/matrix/export", ctrl.ExportMatrix)
	permissions.Post("/bulk-update", ctrl.BulkUpdate)
	permissions.Put("/overrides", ctrl.SetOverride)
	permissions.Get("/settings", ctrl.GetSettings)
	permissions.Put("/settings", ctrl.UpdateSettings)
	permissions.Get("/records", ctrl.ListRecords)
}
