package organization

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-bizsuite/internal/common/models"
	"go-bizsuite/internal/features/audit"
	"go-bizsuite/pkg/utils"

	"go.uber.org/zap"
)

// Invalidator drops cached permission layers of an organization
type Invalidator interface {
	InvalidateOrg(ctx context.Context, orgID string)
}

// EventPublisher fans change events out to connected clients
type EventPublisher interface {
	Publish(event models.Event)
}

type OrganizationService interface {
	GetOrganization(ctx context.Context, actor models.Subject) (*models.Organization, error)
	CreateOrganization(ctx context.Context, actor models.Subject, name string, plan models.Plan) (*models.Organization, error)
	ChangePlan(ctx context.Context, actor models.Subject, orgID string, plan models.Plan) (*models.Organization, error)
}

type OrganizationServiceImpl struct {
	Repo         OrganizationRepository
	Permissions  Invalidator
	AuditService audit.AuditService
	Events       EventPublisher
	Logger       *zap.Logger
}

func NewOrganizationService(repo OrganizationRepository, permissions Invalidator, auditService audit.AuditService, events EventPublisher, logger *zap.Logger) OrganizationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrganizationServiceImpl{
		Repo:         repo,
		Permissions:  permissions,
		AuditService: auditService,
		Events:       events,
		Logger:       logger,
	}
}

func (s *OrganizationServiceImpl) GetOrganization(ctx context.Context, actor models.Subject) (*models.Organization, error) {
	if actor.OrgID == "" {
		return nil, fmt.Errorf("no organization in session: %w", models.ErrNotFound)
	}
	return s.Repo.FindByID(ctx, actor.OrgID)
}

// CreateOrganization is reserved to platform operators
func (s *OrganizationServiceImpl) CreateOrganization(ctx context.Context, actor models.Subject, name string, plan models.Plan) (*models.Organization, error) {
	if !actor.SuperAdmin {
		return nil, fmt.Errorf("create organization: %w", models.ErrUnauthorized)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("organization name required: %w", models.ErrInvalidInput)
	}
	if plan == "" {
		plan = models.PlanFree
	}
	if !plan.IsValid() {
		return nil, fmt.Errorf("plan %q: %w", plan, models.ErrInvalidInput)
	}

	org := &models.Organization{
		Name:    name,
		Slug:    utils.Slugify(name),
		Plan:    plan,
		OwnerID: actor.UserID,
	}
	if err := s.Repo.Create(ctx, org); err != nil {
		return nil, err
	}

	s.audit(ctx, models.AuditActionCreate, org.ID.Hex(), map[string]models.Change{
		"name": {New: org.Name},
		"plan": {New: org.Plan},
	})
	return org, nil
}

// ChangePlan moves an organization to another plan. Cached permission
// layers of the organization are dropped since plan presets differ.
func (s *OrganizationServiceImpl) ChangePlan(ctx context.Context, actor models.Subject, orgID string, plan models.Plan) (*models.Organization, error) {
	if !actor.SuperAdmin {
		return nil, fmt.Errorf("change plan: %w", models.ErrUnauthorized)
	}
	if !plan.IsValid() {
		return nil, fmt.Errorf("plan %q: %w", plan, models.ErrInvalidInput)
	}

	org, err := s.Repo.FindByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	previous := org.Plan
	if previous == plan {
		return org, nil
	}
	if err := s.Repo.UpdatePlan(ctx, orgID, plan); err != nil {
		return nil, err
	}
	org.Plan = plan
	org.UpdatedAt = time.Now()

	if s.Permissions != nil {
		s.Permissions.InvalidateOrg(ctx, orgID)
	}
	s.audit(ctx, models.AuditActionPlan, orgID, map[string]models.Change{
		"plan": {Old: previous, New: plan},
	})
	if s.Events != nil {
		s.Events.Publish(models.Event{
			Type:      models.EventOrganizationPlanSet,
			OrgID:     orgID,
			Data:      map[string]any{"old": previous, "new": plan},
			Timestamp: org.UpdatedAt,
		})
	}

	s.Logger.Info("organization plan changed",
		zap.String("org_id", orgID), zap.String("from", string(previous)), zap.String("to", string(plan)))
	return org, nil
}

func (s *OrganizationServiceImpl) audit(ctx context.Context, action models.AuditAction, recordID string, changes map[string]models.Change) {
	if s.AuditService == nil {
		return
	}
	if err := s.AuditService.LogChange(ctx, action, "organizations", recordID, changes); err != nil {
		s.Logger.Warn("audit write failed", zap.String("record_id", recordID), zap.Error(err))
	}
}
