package task

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-bizsuite/internal/common/models"
	"go-bizsuite/internal/features/audit"
	"go-bizsuite/pkg/access"

	"go.uber.org/zap"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
	auditModule      = "tasks"
)

var (
	KeyTasksCreate = access.NewKey("tasks", "create")
	KeyTasksEdit   = access.NewKey("tasks", "edit")
)

// PermissionChecker resolves the caller's permissions
type PermissionChecker interface {
	HasPermission(ctx context.Context, sub models.Subject, key access.Key) bool
	HasAnyPermission(ctx context.Context, sub models.Subject, keys []access.Key) bool
}

type TaskService interface {
	CreateTask(ctx context.Context, actor models.Subject, input CreateTaskInput) (*Task, error)
	ListTasks(ctx context.Context, actor models.Subject, filter ListFilter) ([]Task, error)
	GetTask(ctx context.Context, actor models.Subject, id string) (*Task, error)
	UpdateTask(ctx context.Context, actor models.Subject, id string, input UpdateTaskInput) (*Task, error)
	UpdateStatus(ctx context.Context, actor models.Subject, id string, status Status) (*Task, error)
}

type TaskServiceImpl struct {
	Repo         TaskRepository
	Permissions  PermissionChecker
	AuditService audit.AuditService
	Logger       *zap.Logger
	now          func() time.Time
}

func NewTaskService(repo TaskRepository, permissions PermissionChecker, auditService audit.AuditService, logger *zap.Logger) TaskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskServiceImpl{
		Repo:         repo,
		Permissions:  permissions,
		AuditService: auditService,
		Logger:       logger,
		now:          time.Now,
	}
}

func (s *TaskServiceImpl) viewer(ctx context.Context, actor models.Subject) access.Viewer {
	return access.Viewer{
		ID:            actor.UserID,
		Department:    actor.Department,
		HasGlobalView: s.Permissions.HasAnyPermission(ctx, actor, []access.Key{access.KeyTasksView, access.KeyTasksManage}),
	}
}

func (s *TaskServiceImpl) canEdit(ctx context.Context, actor models.Subject, t *Task) bool {
	if t.AssignedTo != "" && t.AssignedTo == actor.UserID {
		return true
	}
	return s.Permissions.HasAnyPermission(ctx, actor, []access.Key{KeyTasksEdit, access.KeyTasksManage})
}

func validateVisibility(v access.Visibility, department string) error {
	switch v {
	case access.VisibilityPublic, access.VisibilityPrivate:
		return nil
	case access.VisibilityDepartment:
		if strings.TrimSpace(department) == "" {
			return fmt.Errorf("department visibility needs a department: %w", models.ErrInvalidInput)
		}
		return nil
	}
	return fmt.Errorf("visibility %q: %w", v, models.ErrInvalidInput)
}

func (s *TaskServiceImpl) CreateTask(ctx context.Context, actor models.Subject, input CreateTaskInput) (*Task, error) {
	if actor.OrgID == "" || !s.Permissions.HasPermission(ctx, actor, KeyTasksCreate) {
		return nil, fmt.Errorf("create task: %w", models.ErrUnauthorized)
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("title required: %w", models.ErrInvalidInput)
	}
	if input.Visibility == "" {
		input.Visibility = access.VisibilityPublic
	}
	if err := validateVisibility(input.Visibility, input.Department); err != nil {
		return nil, err
	}

	now := s.now()
	t := &Task{
		OrgID:       actor.OrgID,
		Title:       title,
		Description: input.Description,
		Status:      StatusTodo,
		Visibility:  input.Visibility,
		Department:  strings.TrimSpace(input.Department),
		CreatedBy:   actor.UserID,
		AssignedTo:  input.AssignedTo,
		DueDate:     input.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Repo.Create(ctx, t); err != nil {
		return nil, err
	}

	s.audit(ctx, models.AuditActionCreate, t.ID.Hex(), map[string]models.Change{
		"title":      {New: t.Title},
		"visibility": {New: t.Visibility},
	})
	return t, nil
}

// ListTasks returns the tasks the caller may see, newest first
func (s *TaskServiceImpl) ListTasks(ctx context.Context, actor models.Subject, filter ListFilter) ([]Task, error) {
	if actor.OrgID == "" {
		return []Task{}, nil
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	if filter.Limit > MaxListLimit {
		filter.Limit = MaxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	v := s.viewer(ctx, actor)
	prefilter, ok := VisibilityFilter(v)
	if !ok {
		return []Task{}, nil
	}
	tasks, err := s.Repo.List(ctx, actor.OrgID, filter, prefilter)
	if err != nil {
		return nil, err
	}
	return access.FilterVisible(tasks, Task.Ref, v), nil
}

// visible loads a task and hides it when the caller may not see it
func (s *TaskServiceImpl) visible(ctx context.Context, actor models.Subject, id string) (*Task, error) {
	t, err := s.Repo.FindByID(ctx, actor.OrgID, id)
	if err != nil {
		return nil, err
	}
	if !access.IsVisible(t.Ref(), s.viewer(ctx, actor)) {
		return nil, fmt.Errorf("task %s: %w", id, models.ErrNotFound)
	}
	return t, nil
}

func (s *TaskServiceImpl) GetTask(ctx context.Context, actor models.Subject, id string) (*Task, error) {
	return s.visible(ctx, actor, id)
}

func (s *TaskServiceImpl) UpdateTask(ctx context.Context, actor models.Subject, id string, input UpdateTaskInput) (*Task, error) {
	t, err := s.visible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !s.canEdit(ctx, actor, t) {
		return nil, fmt.Errorf("update task %s: %w", id, models.ErrUnauthorized)
	}

	changes := make(map[string]models.Change)
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, fmt.Errorf("title required: %w", models.ErrInvalidInput)
		}
		changes["title"] = models.Change{Old: t.Title, New: title}
		t.Title = title
	}
	if input.Description != nil {
		changes["description"] = models.Change{Old: t.Description, New: *input.Description}
		t.Description = *input.Description
	}
	if input.Visibility != nil {
		changes["visibility"] = models.Change{Old: t.Visibility, New: *input.Visibility}
		t.Visibility = *input.Visibility
	}
	if input.Department != nil {
		dept := strings.TrimSpace(*input.Department)
		changes["department"] = models.Change{Old: t.Department, New: dept}
		t.Department = dept
	}
	if input.AssignedTo != nil {
		changes["assigned_to"] = models.Change{Old: t.AssignedTo, New: *input.AssignedTo}
		t.AssignedTo = *input.AssignedTo
	}
	if input.DueDate != nil {
		changes["due_date"] = models.Change{Old: t.DueDate, New: *input.DueDate}
		t.DueDate = input.DueDate
	}
	if input.Visibility != nil || input.Department != nil {
		if t.Visibility == "" {
			t.Visibility = access.VisibilityPublic
		}
		if err := validateVisibility(t.Visibility, t.Department); err != nil {
			return nil, err
		}
	}
	if len(changes) == 0 {
		return t, nil
	}

	t.UpdatedAt = s.now()
	if err := s.Repo.Update(ctx, t); err != nil {
		return nil, err
	}
	s.audit(ctx, models.AuditActionUpdate, t.ID.Hex(), changes)
	return t, nil
}

func (s *TaskServiceImpl) UpdateStatus(ctx context.Context, actor models.Subject, id string, status Status) (*Task, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("status %q: %w", status, models.ErrInvalidInput)
	}
	t, err := s.visible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !s.canEdit(ctx, actor, t) {
		return nil, fmt.Errorf("update task %s: %w", id, models.ErrUnauthorized)
	}
	if t.Status == status {
		return t, nil
	}

	old := t.Status
	t.Status = status
	t.UpdatedAt = s.now()
	if err := s.Repo.Update(ctx, t); err != nil {
		return nil, err
	}
	s.audit(ctx, models.AuditActionUpdate, t.ID.Hex(), map[string]models.Change{
		"status": {Old: old, New: status},
	})
	s.Logger.Debug("task status changed",
		zap.String("org_id", actor.OrgID), zap.String("task_id", id), zap.String("status", string(status)))
	return t, nil
}

func (s *TaskServiceImpl) audit(ctx context.Context, action models.AuditAction, recordID string, changes map[string]models.Change) {
	if s.AuditService == nil {
		return
	}
	if err := s.AuditService.LogChange(ctx, action, auditModule, recordID, changes); err != nil {
		s.Logger.Warn("audit write failed", zap.String("record_id", recordID), zap.Error(err))
	}
}
