package cron_feature

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

type CronController struct {
	Service CronService
}

func NewCronController(service CronService) *CronController {
	return &CronController{
		Service: service,
	}
}

// ListJobs godoc
// @Summary List scheduled jobs
// @Description Registered background jobs with their last and next run
// @Tags cron
// @Produce json
// @Success 200 {array} JobStatus
// @Router /api/cron/jobs [get]
func (c *CronController) ListJobs(ctx *fiber.Ctx) error {
	return ctx.JSON(c.Service.Jobs())
}

// RunJob godoc
// @Summary Run a job now
// @Tags cron
// @Produce json
// @Param name path string true "Job name"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/cron/jobs/{name}/run [post]
func (c *CronController) RunJob(ctx *fiber.Ctx) error {
	name := ctx.Params("name")
	if !c.hasJob(name) {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Job not found"})
	}

	ctxt, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := c.Service.RunNow(ctxt, name); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"message": "Job executed"})
}

// GetJobLogs godoc
// @Summary Get job execution logs
// @Tags cron
// @Produce json
// @Param name path string true "Job name"
// @Success 200 {array} CronJobLog
// @Router /api/cron/jobs/{name}/logs [get]
func (c *CronController) GetJobLogs(ctx *fiber.Ctx) error {
	ctxt, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logs, err := c.Service.GetJobLogs(ctxt, ctx.Params("name"), ctx.QueryInt("limit", 50))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(logs)
}

func (c *CronController) hasJob(name string) bool {
	for _, j := range c.Service.Jobs() {
		if j.Name == name {
			return true
		}
	}
	return false
}
