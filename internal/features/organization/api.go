package organization

import (
	"go-bizsuite/internal/config"
	"go-bizsuite/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type OrganizationApi struct {
	Controller *OrganizationController
	config     *config.Config
}

func NewOrganizationApi(controller *OrganizationController, config *config.Config) *OrganizationApi {
	return &OrganizationApi{
		Controller: controller,
		config:     config,
	}
}

func (a *OrganizationApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(a.config.SkipAuth)
	api := app.Group("/api")

	api.Get("/organization", auth, a.Controller.GetOrganization)
	api.Put("/organization/plan", auth, middleware.RequireSuperAdmin(), a.Controller.ChangePlan)
	api.Post("/organizations", auth, middleware.RequireSuperAdmin(), a.Controller.CreateOrganization)
}
