package permission

import (
	"context"
	"strings"

	common_api "go-bizsuite/internal/common/api"
	common_models "go-bizsuite/internal/common/models"
	"go-bizsuite/internal/middleware"
	"go-bizsuite/pkg/access"

	"github.com/gofiber/fiber/v2"
)

type PermissionController struct {
	PermissionService PermissionService
}

func NewPermissionController(permissionService PermissionService) *PermissionController {
	return &PermissionController{
		PermissionService: permissionService,
	}
}

func parseKeys(raw []string) ([]access.Key, error) {
	keys := make([]access.Key, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r) == "" {
			continue
		}
		k, err := access.ParseKey(r)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "User context missing",
	})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Invalid request body",
	})
}

// Check godoc
// @Summary      Check a permission
// @Description  Resolves one key for the caller and reports which layer decided
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Param        request body CheckRequest true "Key to check"
// @Success      200  {object} CheckResult
// @Failure      400  {object} map[string]string
// @Router       /api/permissions/check [post]
func (ctrl *PermissionController) Check(c *fiber.Ctx) error {
	sub, ok := middleware.CurrentSubject(c)
	if !ok {
		return unauthorized(c)
	}
	var req CheckRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	key, err := access.ParseKey(req.Key)
	if err != nil {
		return common_api.ErrorJSON(c, err)
	}

	return c.JSON(ctrl.PermissionService.Check(c.UserContext(), sub, key))
}

// CheckAny godoc
// @Summary      Check that any key is granted
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Param        request body CheckRequest true "Keys to check"
// @Success      200  {object} map[string]bool
// @Router       /api/permissions/check/any [post]
func (ctrl *PermissionController) CheckAny(c *fiber.Ctx) error {
	return ctrl.checkMany(c, ctrl.PermissionService.HasAnyPermission)
}

// CheckAll godoc
// @Summary      Check that every key is granted
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Param        request body CheckRequest true "Keys to check"
// @Success      200  {object} map[string]bool
// @Router       /api/permissions/check/all [post]
func (ctrl *PermissionController) CheckAll(c *fiber.Ctx) error {
	return ctrl.checkMany(c, ctrl.PermissionService.HasAllPermissions)
}

func (ctrl *PermissionController) checkMany(c *fiber.Ctx, fn func(context.Context, common_models.Subject, []access.Key) bool) error {
	sub, ok := middleware.CurrentSubject(c)
	if !ok {
		return unauthorized(c)
	}
	var req CheckRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	keys, err := parseKeys(req.Keys)
	if err != nil {
		return common_api.ErrorJSON(c, err)
	}

	return c.JSON(fiber.Map{"allowed": fn(c.UserContext(), sub, keys)})
}

// MenuAccess godoc
// @Summary      Check menu access
// @Tags         permissions
// @Produce      json
// @Param        menu path string true "Menu"
// @Success      200  {object} map[string]interface{}
// @Router       /api/permissions/menu/{menu} [get]
func (ctrl *PermissionController) MenuAccess(c *fiber.Ctx) error {
	sub, ok := middleware.CurrentSubject(c)
	if !ok {
		return unauthorized(c)
	}
	menu := c.Params("menu")
	return c.JSON(fiber.Map{
		"menu":    menu,
		"allowed": ctrl.PermissionService.HasMenuAccess(c.UserContext(), sub, menu),
	})
}

// SubMenuAccess godoc
// @Summary      Check sub-menu access
// @Description  Requires access to the parent menu as well
// @Tags         permissions
// @Produce      json
// @Param        menu path string true "Menu"
// @Param        sub  path string true "Sub-menu"
// @Success      200  {object} map[string]interface{}
// @Router       /api/permissions/menu/{menu}/{sub} [get]
func (ctrl *PermissionController) SubMenuAccess(c *fiber.Ctx) error {
	sub, ok := middleware.CurrentSubject(c)
	if !ok {
		return unauthorized(c)
	}
	menu, subMenu := c.Params("menu"), c.Params("sub")
	return c.JSON(fiber.Map{
		"menu":    menu,
		"sub":     subMenu,
		"allowed": ctrl.PermissionService.HasSubMenuAccess(c.UserContext(), sub, menu, subMenu),
	})
}

// Effective godoc
// @Summary      Effective permissions of the caller
// @Tags         permissions
// @Produce      json
// @Param        keys query string false "Comma separated keys; all known keys when empty"
// @Success      200  {object} map[string]bool
// @Router       /api/permissions/effective [get]
func (ctrl *PermissionController) Effective(c *fiber.Ctx) error {
	sub, ok := middleware.CurrentSubject(c)
	if !ok {
		return unauthorized(c)
	}
	var raw []string
	if q := c.Query("keys"); q != "" {
		raw = strings.Split(q, ",")
	}
	keys, err := parseKeys(raw)
	if err != nil {
		return common_api.ErrorJSON(c, err)
	}

	return c.JSON(ctrl.PermissionService.EffectivePermissions(c.UserContext(), sub, keys))
}

// GetMatrix godoc
// @Summary      Role x permission matrix
// @Tags         permissions
// @Produce      json
// @Success      200  {object} Matrix
// @Failure      403  {object} map[string]string
// @Router       /api/permissions/matrix [get]
func (ctrl *PermissionController) GetMatrix(c *fiber.Ctx) error {
	sub, ok := middleware.CurrentSubject(c)
	if !ok {
		return unauthorized(c)
	}
	m, err := ctrl.PermissionService.Matrix(c.UserContext(), sub)
	if err != nil {
		return common_api.ErrorJSON(c, err)
	}
	return c.JSON(m)
}

// ExportMatrix godoc
// @Summary      Download the matrix as XLSX
// @Tags         permissions
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200  {file} file
// @Router       /api/permissions/matrix/export [get]
func (ctrl *PermissionController) ExportMatrix(c *fiber.Ctx) error {
	sub, ok := middleware.CurrentSubject(c)
	if !ok {
		return unauthorized(c)
	}
	data, filename, err := ctrl.PermissionService.ExportMatrix(c.UserContext(), sub)
	if err != nil {
		return common_api.ErrorJSON(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(data)
}

// BulkUpdate godoc
// @Summary      Toggle many permission records
// @Description  Applies items in order and reports per-item success or failure
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Param        request body BulkUpdateRequest true "Items"
// @Success      200  {object} BulkUpdateResult
// @Failure      403  {object} map[string]string
// @Router       /api/permissions/bulk-update [post]
func (ctrl *PermissionController) BulkUpdate(c *fiber.Ctx) error {
	sub, ok := middleware.CurrentSubject(c)
	if !ok {
		return unauthorized(c)
	}
	var req BulkUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if len(req.Items) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No items to update",
		})
	}

	result, err := ctrl.PermissionService.BulkUpdate(c.UserContext(), sub, req.Items)
	if err != nil {
		return common_api.ErrorJSON(c, err)
	}
	return c.JSON(result)
}

// SetOverride godoc
// @Summary      Set an organization override
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Param        request body OverrideRequest true "Override"
// @Success      200  {object} PermissionRecord
// @Failure      409  {object} map[string]string "Hierarchy violation"
// @Router       /api/permissions/overrides [put]
func (ctrl *PermissionController) SetOverride(c *fiber.Ctx) error {
	sub, ok := middleware.CurrentSubject(c)
	if !ok {
		return unauthorized(c)
	}
	var req OverrideRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	rec, err := ctrl.PermissionService.SetOverride(c.UserContext(), sub, req)
	if err != nil {
		return common_api.ErrorJSON(c, err)
	}
	return c.JSON(rec)
}

// GetSettings godoc
// @Summary      Resolution settings of the organization
// @Tags         permissions
// @Produce      json
// @Success      200  {object} ResolutionSettings
// @Router       /api/permissions/settings [get]
func (ctrl *PermissionController) GetSettings(c *fiber.Ctx) error {
	sub, ok := middleware.CurrentSubject(c)
	if !ok {
		return unauthorized(c)
	}
	settings, err := ctrl.PermissionService.GetSettings(c.UserContext(), sub)
	if err != nil {
		return common_api.ErrorJSON(c, err)
	}
	return c.JSON(settings)
}

// UpdateSettings godoc
// @Summary      Update resolution settings
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Param        request body access.Settings true "Settings"
// @Success      200  {object} ResolutionSettings
// @Router       /api/permissions/settings [put]
func (ctrl *PermissionController) UpdateSettings(c *fiber.Ctx) error {
	sub, ok := middleware.CurrentSubject(c)
	if !ok {
		return unauthorized(c)
	}
	var req access.Settings
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	settings, err := ctrl.PermissionService.UpdateSettings(c.UserContext(), sub, req)
	if err != nil {
		return common_api.ErrorJSON(c, err)
	}
	return c.JSON(settings)
}

// ListRecords godoc
// @Summary      List stored layer records
// @Tags         permissions
// @Produce      json
// @Param        tier   query string false "global, plan or organization"
// @Param        role   query string false "Role"
// @Param        module query string false "Module"
// @Param        plan   query string false "Plan (super admins only)"
// @Param        org_id query string false "Organization (super admins only)"
// @Success      200  {array} PermissionRecord
// @Router       /api/permissions/records [get]
func (ctrl *PermissionController) ListRecords(c *fiber.Ctx) error {
	sub, ok := middleware.CurrentSubject(c)
	if !ok {
		return unauthorized(c)
	}
	filter := RecordFilter{
		Tier:   Tier(c.Query("tier")),
		OrgID:  c.Query("org_id"),
		Plan:   c.Query("plan"),
		Module: c.Query("module"),
	}
	if r := c.Query("role"); r != "" {
		role, err := access.ParseRole(r)
		if err != nil {
			return common_api.ErrorJSON(c, err)
		}
		filter.Role = role
	}

	records, err := ctrl.PermissionService.ListRecords(c.UserContext(), sub, filter)
	if err != nil {
		return common_api.ErrorJSON(c, err)
	}
	if records == nil {
		records = []PermissionRecord{}
	}
	return c.JSON(records)
}
