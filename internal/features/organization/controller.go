package organization

import (
	common_api "go-bizsuite/internal/common/api"
	"go-bizsuite/internal/common/models"
	"go-bizsuite/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type OrganizationController struct {
	Service OrganizationService
}

func NewOrganizationController(service OrganizationService) *OrganizationController {
	return &OrganizationController{Service: service}
}

type CreateOrganizationRequest struct {
	Name string      `json:"name"`
	Plan models.Plan `json:"plan"`
}

type ChangePlanRequest struct {
	OrgID string      `json:"org_id"`
	Plan  models.Plan `json:"plan"`
}

// GetOrganization godoc
// @Summary      Current organization
// @Tags         organization
// @Produce      json
// @Success      200  {object} models.Organization
// @Router       /api/organization [get]
func (ctrl *OrganizationController) GetOrganization(c *fiber.Ctx) error {
	sub, ok := middleware.CurrentSubject(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User context missing"})
	}
	org, err := ctrl.Service.GetOrganization(c.UserContext(), sub)
	if err != nil {
		return common_api.ErrorJSON(c, err)
	}
	return c.JSON(org)
}

// CreateOrganization godoc
// @Summary      Create an organization
// @Tags         organization
// @Accept       json
// @Produce      json
// @Param        request body CreateOrganizationRequest true "Organization"
// @Success      201  {object} models.Organization
// @Router       /api/organizations [post]
func (ctrl *OrganizationController) CreateOrganization(c *fiber.Ctx) error {
	sub, _ := middleware.CurrentSubject(c)
	var req CreateOrganizationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	org, err := ctrl.Service.CreateOrganization(c.UserContext(), sub, req.Name, req.Plan)
	if err != nil {
		return common_api.ErrorJSON(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(org)
}

// ChangePlan godoc
// @Summary      Change the plan of an organization
// @Description  Platform operators only. Cached permissions of the organization are dropped.
// @Tags         organization
// @Accept       json
// @Produce      json
// @Param        request body ChangePlanRequest true "Plan change"
// @Success      200  {object} models.Organization
// @Router       /api/organization/plan [put]
func (ctrl *OrganizationController) ChangePlan(c *fiber.Ctx) error {
	sub, _ := middleware.CurrentSubject(c)
	var req ChangePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.OrgID == "" {
		req.OrgID = sub.OrgID
	}
	org, err := ctrl.Service.ChangePlan(c.UserContext(), sub, req.OrgID, req.Plan)
	if err != nil {
		return common_api.ErrorJSON(c, err)
	}
	return c.JSON(org)
}
