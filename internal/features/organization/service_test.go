package organization

import (
	"context"
	"fmt"
	"testing"

	"go-bizsuite/internal/common/models"
	"go-bizsuite/pkg/access"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memRepo struct {
	orgs map[string]*models.Organization
}

func (m *memRepo) Create(_ context.Context, org *models.Organization) error {
	if org.ID.IsZero() {
		org.ID = primitive.NewObjectID()
	}
	m.orgs[org.ID.Hex()] = org
	return nil
}

func (m *memRepo) FindByID(_ context.Context, id string) (*models.Organization, error) {
	org, ok := m.orgs[id]
	if !ok {
		return nil, fmt.Errorf("organization %s: %w", id, models.ErrNotFound)
	}
	cp := *org
	return &cp, nil
}

func (m *memRepo) FindBySlug(_ context.Context, slug string) (*models.Organization, error) {
	for _, org := range m.orgs {
		if org.Slug == slug {
			return org, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memRepo) GetPlan(ctx context.Context, orgID string) (string, error) {
	org, err := m.FindByID(ctx, orgID)
	if err != nil {
		return "", err
	}
	return string(org.Plan), nil
}

func (m *memRepo) UpdatePlan(_ context.Context, orgID string, plan models.Plan) error {
	org, ok := m.orgs[orgID]
	if !ok {
		return models.ErrNotFound
	}
	org.Plan = plan
	return nil
}

func (m *memRepo) EnsureIndexes(context.Context) error { return nil }

type recorder struct {
	invalidated []string
	events      []models.Event
	audits      []models.AuditAction
}

func (r *recorder) InvalidateOrg(_ context.Context, orgID string) {
	r.invalidated = append(r.invalidated, orgID)
}

func (r *recorder) Publish(e models.Event) { r.events = append(r.events, e) }

func (r *recorder) LogChange(_ context.Context, action models.AuditAction, _ string, _ string, _ map[string]models.Change) error {
	r.audits = append(r.audits, action)
	return nil
}

func (r *recorder) ListLogs(context.Context, map[string]interface{}, int64, int64) ([]models.AuditLog, error) {
	return nil, nil
}

func setup(t *testing.T) (OrganizationService, *memRepo, *recorder, string) {
	t.Helper()
	repo := &memRepo{orgs: make(map[string]*models.Organization)}
	rec := &recorder{}
	svc := NewOrganizationService(repo, rec, rec, rec, nil)

	org := &models.Organization{Name: "Acme", Slug: "acme", Plan: models.PlanStarter}
	require.NoError(t, repo.Create(context.Background(), org))
	return svc, repo, rec, org.ID.Hex()
}

var root = models.Subject{UserID: "root", SuperAdmin: true}

func TestChangePlan(t *testing.T) {
	svc, repo, rec, orgID := setup(t)
	ctx := context.Background()

	org, err := svc.ChangePlan(ctx, root, orgID, models.PlanBusiness)
	require.NoError(t, err)
	assert.Equal(t, models.PlanBusiness, org.Plan)

	plan, err := repo.GetPlan(ctx, orgID)
	require.NoError(t, err)
	assert.Equal(t, "business", plan)
	assert.Equal(t, []string{orgID}, rec.invalidated)
	assert.Equal(t, []models.AuditAction{models.AuditActionPlan}, rec.audits)
	require.Len(t, rec.events, 1)
	assert.Equal(t, models.EventOrganizationPlanSet, rec.events[0].Type)
	assert.Equal(t, orgID, rec.events[0].OrgID)

	_, err = svc.ChangePlan(ctx, root, orgID, models.PlanBusiness)
	require.NoError(t, err)
	assert.Len(t, rec.invalidated, 1, "same plan is a no-op")
}

func TestChangePlanRejections(t *testing.T) {
	svc, _, rec, orgID := setup(t)
	ctx := context.Background()
	owner := models.Subject{UserID: "o", OrgID: orgID, Role: access.RoleOwner}

	_, err := svc.ChangePlan(ctx, owner, orgID, models.PlanEnterprise)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	_, err = svc.ChangePlan(ctx, root, orgID, "platinum")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = svc.ChangePlan(ctx, root, primitive.NewObjectID().Hex(), models.PlanFree)
	assert.ErrorIs(t, err, models.ErrNotFound)

	assert.Empty(t, rec.invalidated)
}

func TestCreateAndGetOrganization(t *testing.T) {
	svc, _, _, _ := setup(t)
	ctx := context.Background()

	org, err := svc.CreateOrganization(ctx, root, "  Globex Corp ", "")
	require.NoError(t, err)
	assert.Equal(t, "globex-corp", org.Slug)
	assert.Equal(t, models.PlanFree, org.Plan)

	got, err := svc.GetOrganization(ctx, models.Subject{UserID: "u", OrgID: org.ID.Hex(), Role: access.RoleStaff})
	require.NoError(t, err)
	assert.Equal(t, "Globex Corp", got.Name)

	_, err = svc.CreateOrganization(ctx, models.Subject{UserID: "u", OrgID: "x", Role: access.RoleOwner}, "Initech", "")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}
