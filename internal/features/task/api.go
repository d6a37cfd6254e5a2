package task

import (
	"go-bizsuite/internal/config"
	"go-bizsuite/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type TaskApi struct {
	Controller *TaskController
	config     *config.Config
}

func NewTaskApi(controller *TaskController, config *config.Config) *TaskApi {
	return &TaskApi{
		Controller: controller,
		config:     config,
	}
}

func (a *TaskApi) Setup(app *fiber.App) {
	tasks := app.Group("/api/tasks", middleware.AuthMiddleware(a.config.SkipAuth))

	tasks.Post("/", a.Controller.CreateTask)
	tasks.Get("/", a.Controller.ListTasks)
	tasks.Get("/:id", a.Controller.GetTask)
	tasks.Put("/:id", a.Controller.UpdateTask)
	tasks.Patch("/:id/status", a.Controller.UpdateStatus)
}
