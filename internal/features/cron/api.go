package cron_feature

import (
	"go-bizsuite/internal/config"
	"go-bizsuite/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type CronApi struct {
	cronController *CronController
	config         *config.Config
}

func NewCronApi(cronController *CronController, config *config.Config) *CronApi {
	return &CronApi{
		cronController: cronController,
		config:         config,
	}
}

func (h *CronApi) Setup(app *fiber.App) {
	jobs := app.Group("/api/cron/jobs", middleware.AuthMiddleware(h.config.SkipAuth), middleware.RequireSuperAdmin())

	jobs.Get("/", h.cronController.ListJobs)
	jobs.Post("/:name/run", h.cronController.RunJob)
	jobs.Get("/:name/logs", h.cronController.GetJobLogs)
}
