package audit

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

type AuditController struct {
	Service AuditService
}

func NewAuditController(service AuditService) *AuditController {
	return &AuditController{Service: service}
}

// ListLogs godoc
// @Summary      List audit logs
// @Description  Paged audit trail of the caller's organization, newest first
// @Tags         audit
// @Produce      json
// @Param        page      query int    false "Page"
// @Param        limit     query int    false "Page size"
// @Param        module    query string false "Module filter"
// @Param        action    query string false "Action filter"
// @Param        record_id query string false "Record filter"
// @Success      200  {array} models.AuditLog
// @Router       /api/audit-logs [get]
func (ctrl *AuditController) ListLogs(c *fiber.Ctx) error {
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "20"), 10, 64)

	filters := make(map[string]interface{})
	for _, field := range []string{"module", "action", "record_id", "actor_id"} {
		if v := c.Query(field); v != "" {
			filters[field] = v
		}
	}

	logs, err := ctrl.Service.ListLogs(c.UserContext(), filters, page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(logs)
}
