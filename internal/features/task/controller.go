package task

import (
	common_api "go-bizsuite/internal/common/api"
	"go-bizsuite/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type TaskController struct {
	Service TaskService
}

func NewTaskController(service TaskService) *TaskController {
	return &TaskController{Service: service}
}

type StatusRequest struct {
	Status Status `json:"status"`
}

// CreateTask godoc
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        request body CreateTaskInput true "Task"
// @Success      201  {object} Task
// @Failure      403  {object} map[string]string
// @Router       /api/tasks [post]
func (ctrl *TaskController) CreateTask(c *fiber.Ctx) error {
	sub, _ := middleware.CurrentSubject(c)
	var input CreateTaskInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	t, err := ctrl.Service.CreateTask(c.UserContext(), sub, input)
	if err != nil {
		return common_api.ErrorJSON(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

// ListTasks godoc
// @Summary      List visible tasks
// @Tags         tasks
// @Produce      json
// @Param        status      query string false "Status"
// @Param        assigned_to query string false "Assignee"
// @Param        limit       query int    false "Limit"
// @Param        offset      query int    false "Offset"
// @Success      200  {array} Task
// @Router       /api/tasks [get]
func (ctrl *TaskController) ListTasks(c *fiber.Ctx) error {
	sub, _ := middleware.CurrentSubject(c)
	filter := ListFilter{
		Status:     Status(c.Query("status")),
		AssignedTo: c.Query("assigned_to"),
		Limit:      int64(c.QueryInt("limit", DefaultListLimit)),
		Offset:     int64(c.QueryInt("offset", 0)),
	}
	tasks, err := ctrl.Service.ListTasks(c.UserContext(), sub, filter)
	if err != nil {
		return common_api.ErrorJSON(c, err)
	}
	return c.JSON(tasks)
}

// GetTask godoc
// @Summary      Get a task
// @Tags         tasks
// @Produce      json
// @Param        id path string true "Task ID"
// @Success      200  {object} Task
// @Failure      404  {object} map[string]string
// @Router       /api/tasks/{id} [get]
func (ctrl *TaskController) GetTask(c *fiber.Ctx) error {
	sub, _ := middleware.CurrentSubject(c)
	t, err := ctrl.Service.GetTask(c.UserContext(), sub, c.Params("id"))
	if err != nil {
		return common_api.ErrorJSON(c, err)
	}
	return c.JSON(t)
}

// UpdateTask godoc
// @Summary      Update a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id      path string          true "Task ID"
// @Param        request body UpdateTaskInput true "Changed fields"
// @Success      200  {object} Task
// @Router       /api/tasks/{id} [put]
func (ctrl *TaskController) UpdateTask(c *fiber.Ctx) error {
	sub, _ := middleware.CurrentSubject(c)
	var input UpdateTaskInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	t, err := ctrl.Service.UpdateTask(c.UserContext(), sub, c.Params("id"), input)
	if err != nil {
		return common_api.ErrorJSON(c, err)
	}
	return c.JSON(t)
}

// UpdateStatus godoc
// @Summary      Move a task to another status
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id      path string        true "Task ID"
// @Param        request body StatusRequest true "Status"
// @Success      200  {object} Task
// @Router       /api/tasks/{id}/status [patch]
func (ctrl *TaskController) UpdateStatus(c *fiber.Ctx) error {
	sub, _ := middleware.CurrentSubject(c)
	var req StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	t, err := ctrl.Service.UpdateStatus(c.UserContext(), sub, c.Params("id"), req.Status)
	if err != nil {
		return common_api.ErrorJSON(c, err)
	}
	return c.JSON(t)
}
