package permission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go-bizsuite/internal/cache"
	common_models "go-bizsuite/internal/common/models"
	"go-bizsuite/pkg/access"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu       sync.Mutex
	records  []PermissionRecord
	settings map[string]ResolutionSettings
	err      error
	seq      int
}

func newFakeRepo(records ...PermissionRecord) *fakeRepo {
	return &fakeRepo{records: records, settings: make(map[string]ResolutionSettings)}
}

func (f *fakeRepo) matching(orgID, plan string, role access.Role) []PermissionRecord {
	var out []PermissionRecord
	for _, rec := range f.records {
		if role != "" && rec.Role != role {
			continue
		}
		switch rec.Tier {
		case TierGlobal:
		case TierPlan:
			if plan == "" || rec.Plan != plan {
				continue
			}
		case TierOrganization:
			if orgID == "" || rec.OrgID != orgID {
				continue
			}
		}
		out = append(out, rec)
	}
	return out
}

func (f *fakeRepo) LoadLayers(_ context.Context, orgID, plan string, role access.Role) (access.Layers, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return access.Layers{}, f.err
	}
	return BuildLayers(f.matching(orgID, plan, role)), nil
}

func (f *fakeRepo) ListLayers(_ context.Context, orgID, plan string) (access.Layers, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return access.Layers{}, f.err
	}
	return BuildLayers(f.matching(orgID, plan, "")), nil
}

func (f *fakeRepo) FindByID(_ context.Context, id string) (*PermissionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.records {
		if rec.ID == id {
			r := rec
			return &r, nil
		}
	}
	return nil, fmt.Errorf("permission %s: %w", id, common_models.ErrNotFound)
}

func (f *fakeRepo) SetEnabled(_ context.Context, id string, enabled bool, actor string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.records {
		if f.records[i].ID == id {
			f.records[i].Enabled = enabled
			f.records[i].UpdatedBy = actor
			return nil
		}
	}
	return fmt.Errorf("permission %s: %w", id, common_models.ErrNotFound)
}

func (f *fakeRepo) Upsert(_ context.Context, rec PermissionRecord) (*PermissionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.records {
		if existing.Tier == rec.Tier && existing.OrgID == rec.OrgID && existing.Plan == rec.Plan &&
			existing.Role == rec.Role && existing.Module == rec.Module && existing.Action == rec.Action {
			rec.ID = existing.ID
			f.records[i] = rec
			return &rec, nil
		}
	}
	f.seq++
	rec.ID = fmt.Sprintf("new-%d", f.seq)
	f.records = append(f.records, rec)
	return &rec, nil
}

func (f *fakeRepo) GetSettings(_ context.Context, orgID string) (ResolutionSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return ResolutionSettings{}, f.err
	}
	s, ok := f.settings[orgID]
	if !ok {
		return ResolutionSettings{OrgID: orgID}, nil
	}
	return s, nil
}

func (f *fakeRepo) SaveSettings(_ context.Context, s ResolutionSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings[s.OrgID] = s
	return nil
}

func (f *fakeRepo) ListRecords(_ context.Context, filter RecordFilter) ([]PermissionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []PermissionRecord
	for _, rec := range f.records {
		if filter.Tier != "" && rec.Tier != filter.Tier {
			continue
		}
		if filter.OrgID != "" && rec.OrgID != filter.OrgID {
			continue
		}
		if filter.Plan != "" && rec.Plan != filter.Plan {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (f *fakeRepo) EnsureIndexes(context.Context) error { return nil }

func (f *fakeRepo) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeRepo) record(id string) PermissionRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.records {
		if rec.ID == id {
			return rec
		}
	}
	return PermissionRecord{}
}

type fakePlans map[string]string

func (p fakePlans) GetPlan(_ context.Context, orgID string) (string, error) {
	plan, ok := p[orgID]
	if !ok {
		return "", fmt.Errorf("organization %s: %w", orgID, common_models.ErrNotFound)
	}
	return plan, nil
}

type fakeAudit struct {
	entries []string
}

func (a *fakeAudit) LogChange(_ context.Context, action common_models.AuditAction, module string, recordID string, _ map[string]common_models.Change) error {
	a.entries = append(a.entries, fmt.Sprintf("%s %s %s", action, module, recordID))
	return nil
}

func (a *fakeAudit) ListLogs(context.Context, map[string]interface{}, int64, int64) ([]common_models.AuditLog, error) {
	return nil, nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []common_models.Event
}

func (e *fakeEvents) Publish(event common_models.Event) {
	e.mu.Lock()
	e.events = append(e.events, event)
	e.mu.Unlock()
}

func globalRec(id string, role access.Role, key string, enabled bool) PermissionRecord {
	k := access.MustParseKey(key)
	return PermissionRecord{ID: id, Tier: TierGlobal, Role: role, Module: k.Module, Action: k.Action, Enabled: enabled}
}

func planRec(id, plan string, role access.Role, key string, enabled bool) PermissionRecord {
	rec := globalRec(id, role, key, enabled)
	rec.Tier, rec.Plan = TierPlan, plan
	return rec
}

func orgRec(id, orgID string, role access.Role, key string, enabled bool) PermissionRecord {
	rec := globalRec(id, role, key, enabled)
	rec.Tier, rec.OrgID = TierOrganization, orgID
	return rec
}

type fixture struct {
	svc    *PermissionServiceImpl
	repo   *fakeRepo
	cache  *cache.MemoryCache
	audit  *fakeAudit
	events *fakeEvents
}

func newFixture(records ...PermissionRecord) *fixture {
	f := &fixture{
		repo:   newFakeRepo(records...),
		cache:  cache.NewMemoryCache(time.Minute),
		audit:  &fakeAudit{},
		events: &fakeEvents{},
	}
	plans := fakePlans{"o1": "business", "o2": "business", "o3": "free"}
	f.svc = newPermissionService(f.repo, f.cache, plans, f.audit, f.events, nil, nil)
	return f
}

var (
	ctx   = context.Background()
	admin = common_models.Subject{UserID: "a1", OrgID: "o1", Role: access.RoleAdmin}
	root  = common_models.Subject{UserID: "root", SuperAdmin: true}
)

func adminCanManage(orgID string) PermissionRecord {
	return orgRec("manage-"+orgID, orgID, access.RoleAdmin, "permissions.manage", true)
}

func TestCheckPrecedence(t *testing.T) {
	f := newFixture(
		globalRec("g1", access.RoleEmployee, "invoices.view", false),
		planRec("p1", "business", access.RoleEmployee, "invoices.view", true),
		orgRec("r1", "o1", access.RoleEmployee, "invoices.view", false),
	)
	f.repo.settings["o2"] = ResolutionSettings{OrgID: "o2", OverridePlanPresets: true}
	key := access.MustParseKey("invoices.view")

	tests := []struct {
		name    string
		sub     common_models.Subject
		key     access.Key
		allowed bool
		source  access.Source
	}{
		{"override wins", common_models.Subject{UserID: "u", OrgID: "o1", Role: access.RoleEmployee}, key, false, access.SourceOverride},
		{"presets skipped by settings", common_models.Subject{UserID: "u", OrgID: "o2", Role: access.RoleEmployee}, key, false, access.SourceGlobalDefault},
		{"plan without preset falls back", common_models.Subject{UserID: "u", OrgID: "o3", Role: access.RoleEmployee}, key, false, access.SourceGlobalDefault},
		{"unmapped key denied", common_models.Subject{UserID: "u", OrgID: "o1", Role: access.RoleEmployee}, access.MustParseKey("reports.export"), false, access.SourceUnmapped},
		{"super admin bypasses", root, access.MustParseKey("anything.at_all"), true, access.SourceSuperAdmin},
		{"no organization denied", common_models.Subject{UserID: "u", Role: access.RoleOwner}, key, false, access.SourceUnmapped},
		{"unknown role denied", common_models.Subject{UserID: "u", OrgID: "o1", Role: "intern"}, key, false, access.SourceUnmapped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.svc.Check(ctx, tt.sub, tt.key)
			assert.Equal(t, tt.allowed, res.Allowed)
			assert.Equal(t, tt.source, res.Source)
		})
	}

	f.repo.settings["o1"] = ResolutionSettings{OrgID: "o1", UseGlobalDefaults: true}
	f.svc.InvalidateOrg(ctx, "o1")
	res := f.svc.Check(ctx, common_models.Subject{UserID: "u", OrgID: "o1", Role: access.RoleEmployee}, key)
	assert.True(t, res.Allowed, "override skipped, preset applies")
	assert.Equal(t, access.SourcePlanPreset, res.Source)
}

func TestCheckUsesCache(t *testing.T) {
	f := newFixture(globalRec("g1", access.RoleStaff, "tasks.create", true))
	staff := common_models.Subject{UserID: "s", OrgID: "o1", Role: access.RoleStaff}
	key := access.MustParseKey("tasks.create")

	first := f.svc.Check(ctx, staff, key)
	second := f.svc.Check(ctx, staff, key)
	assert.False(t, first.CacheHit)
	assert.True(t, second.CacheHit)
	assert.True(t, second.Allowed)
}

func TestLastKnownGoodWhenStoreFails(t *testing.T) {
	f := newFixture(globalRec("g1", access.RoleStaff, "tasks.create", true))
	staff := common_models.Subject{UserID: "s", OrgID: "o1", Role: access.RoleStaff}
	key := access.MustParseKey("tasks.create")

	require.True(t, f.svc.HasPermission(ctx, staff, key))

	f.repo.fail(errors.New("connection refused"))
	f.svc.InvalidateOrg(ctx, "o1")

	res := f.svc.Check(ctx, staff, key)
	assert.True(t, res.Allowed, "previous snapshot keeps serving")
	assert.True(t, res.Stale)

	manager := common_models.Subject{UserID: "m", OrgID: "o1", Role: access.RoleManager}
	assert.False(t, f.svc.HasPermission(ctx, manager, key), "no snapshot and no store means deny")
}

func TestHasAnyAndAll(t *testing.T) {
	f := newFixture(
		globalRec("g1", access.RoleStaff, "tasks.create", true),
		globalRec("g2", access.RoleStaff, "tasks.delete", false),
		globalRec("g3", access.RoleStaff, "reports.access", true),
		globalRec("g4", access.RoleStaff, "reports.sales.access", true),
	)
	staff := common_models.Subject{UserID: "s", OrgID: "o1", Role: access.RoleStaff}
	create, del := access.MustParseKey("tasks.create"), access.MustParseKey("tasks.delete")

	assert.True(t, f.svc.HasAnyPermission(ctx, staff, []access.Key{del, create}))
	assert.False(t, f.svc.HasAllPermissions(ctx, staff, []access.Key{del, create}))
	assert.False(t, f.svc.HasAnyPermission(ctx, staff, nil))
	assert.False(t, f.svc.HasAllPermissions(ctx, staff, nil))
	assert.True(t, f.svc.HasMenuAccess(ctx, staff, "reports"))
	assert.True(t, f.svc.HasSubMenuAccess(ctx, staff, "reports", "sales"))
	assert.False(t, f.svc.HasSubMenuAccess(ctx, staff, "reports", "finance"))

	eff := f.svc.EffectivePermissions(ctx, staff, nil)
	assert.Equal(t, map[string]bool{
		"tasks.create":         true,
		"tasks.delete":         false,
		"reports.access":       true,
		"reports.sales.access": true,
	}, eff)
}

func TestBulkUpdatePartialFailure(t *testing.T) {
	f := newFixture(
		adminCanManage("o1"),
		orgRec("r1", "o1", access.RoleEmployee, "invoices.view", false),
		orgRec("r2", "o1", access.RoleStaff, "invoices.view", false),
		orgRec("r3", "o1", access.RoleManager, "reports.view", true),
		orgRec("r4", "o1", access.RoleEmployee, "tasks.create", false),
	)

	result, err := f.svc.BulkUpdate(ctx, admin, []BulkUpdateItem{
		{PermissionID: "r1", IsEnabled: true},
		{PermissionID: "r2", IsEnabled: true},
		{PermissionID: "missing-id", IsEnabled: true},
		{PermissionID: "r3", IsEnabled: false},
		{PermissionID: "r4", IsEnabled: true},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, result.Success)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "missing-id", result.Errors[0].RecordID)
	assert.Contains(t, result.Errors[0].Message, "missing-id")
	assert.Equal(t, []string{"missing-id"}, result.FailedIDs())
	require.Len(t, result.Results, 5)
	assert.False(t, result.Results[2].Success)
	assert.NotEmpty(t, result.BatchID)

	assert.True(t, f.repo.record("r1").Enabled)
	assert.False(t, f.repo.record("r3").Enabled)
	assert.Len(t, f.audit.entries, 4)

	_, fresh, ok := f.cache.Get(ctx, cache.Scope{OrgID: "o1", Role: access.RoleAdmin})
	assert.True(t, ok)
	assert.False(t, fresh, "touched organization invalidated")
	require.NotEmpty(t, f.events.events)
	assert.Equal(t, common_models.EventPermissionsChanged, f.events.events[0].Type)
	assert.Equal(t, "o1", f.events.events[0].OrgID)
}

func TestBulkUpdateGuardSeesEarlierItems(t *testing.T) {
	f := newFixture(
		adminCanManage("o1"),
		orgRec("emp", "o1", access.RoleEmployee, "invoices.delete", true),
		orgRec("mgr", "o1", access.RoleManager, "invoices.delete", true),
	)

	result, err := f.svc.BulkUpdate(ctx, admin, []BulkUpdateItem{
		{PermissionID: "mgr", IsEnabled: false},
		{PermissionID: "emp", IsEnabled: false},
		{PermissionID: "mgr", IsEnabled: false},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Success)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, result.Errors[0].Message, access.ErrHierarchyViolation.Error())
	assert.Equal(t, []bool{false, true, true}, []bool{result.Results[0].Success, result.Results[1].Success, result.Results[2].Success})
	assert.False(t, f.repo.record("mgr").Enabled)
}

func TestBulkUpdateGuardSeesEarlierGlobalWrites(t *testing.T) {
	f := newFixture(
		orgRec("own", "o1", access.RoleOwner, "vendors.pay", false),
		globalRec("emp", access.RoleEmployee, "vendors.pay", false),
	)

	result, err := f.svc.BulkUpdate(ctx, root, []BulkUpdateItem{
		{PermissionID: "own", IsEnabled: true},
		{PermissionID: "emp", IsEnabled: true},
		{PermissionID: "own", IsEnabled: false},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Success)
	assert.Equal(t, 1, result.Failed)
	assert.False(t, result.Results[2].Success)
	assert.Contains(t, result.Results[2].Error, "employee")
	assert.True(t, f.repo.record("own").Enabled, "owner keeps what employee now has")
}

func TestBulkUpdateGuardSeesEarlierPlanWrites(t *testing.T) {
	f := newFixture(
		orgRec("own", "o1", access.RoleOwner, "vendors.pay", false),
		planRec("emp", "business", access.RoleEmployee, "vendors.pay", false),
	)

	result, err := f.svc.BulkUpdate(ctx, root, []BulkUpdateItem{
		{PermissionID: "own", IsEnabled: true},
		{PermissionID: "emp", IsEnabled: true},
		{PermissionID: "own", IsEnabled: false},
	})
	require.NoError(t, err)

	assert.Equal(t, []bool{true, true, false}, []bool{result.Results[0].Success, result.Results[1].Success, result.Results[2].Success})
	assert.True(t, f.repo.record("own").Enabled)
}

func TestGatesAreCounted(t *testing.T) {
	f := newFixture(globalRec("g1", access.RoleStaff, "tasks.create", true))
	staff := common_models.Subject{UserID: "s", OrgID: "o1", Role: access.RoleStaff}

	assert.True(t, f.svc.HasAnyPermission(ctx, staff, []access.Key{access.MustParseKey("tasks.create")}))
	assert.False(t, f.svc.HasAllPermissions(ctx, staff, nil))
	assert.False(t, f.svc.HasMenuAccess(ctx, staff, "reports"))
	assert.False(t, f.svc.HasSubMenuAccess(ctx, staff, "reports", "sales"))

	expected := `
# HELP bizsuite_permission_checks_total Permission checks by result and deciding layer
# TYPE bizsuite_permission_checks_total counter
bizsuite_permission_checks_total{result="allow",source="composite"} 1
bizsuite_permission_checks_total{result="deny",source="composite"} 2
bizsuite_permission_checks_total{result="deny",source="unmapped"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(f.svc.Metrics.Registry, strings.NewReader(expected), "bizsuite_permission_checks_total"))
}

func TestBulkUpdateAuthorization(t *testing.T) {
	f := newFixture(
		adminCanManage("o1"),
		globalRec("g1", access.RoleEmployee, "invoices.view", false),
		orgRec("other", "o2", access.RoleEmployee, "invoices.view", false),
	)

	staff := common_models.Subject{UserID: "s", OrgID: "o1", Role: access.RoleStaff}
	_, err := f.svc.BulkUpdate(ctx, staff, []BulkUpdateItem{{PermissionID: "g1", IsEnabled: true}})
	assert.ErrorIs(t, err, common_models.ErrUnauthorized)

	result, err := f.svc.BulkUpdate(ctx, admin, []BulkUpdateItem{
		{PermissionID: "g1", IsEnabled: true},
		{PermissionID: "other", IsEnabled: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Failed, "org admins cannot touch defaults or other organizations")

	result, err = f.svc.BulkUpdate(ctx, root, []BulkUpdateItem{{PermissionID: "g1", IsEnabled: true}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)
	require.Len(t, f.events.events, 1)
	assert.Equal(t, "", f.events.events[0].OrgID, "global change is broadcast")
}

func TestSetOverride(t *testing.T) {
	f := newFixture(
		adminCanManage("o1"),
		globalRec("g1", access.RoleEmployee, "invoices.delete", true),
		globalRec("g2", access.RoleManager, "invoices.delete", true),
		globalRec("g3", access.RoleOwner, "dashboard.view", true),
	)

	_, err := f.svc.SetOverride(ctx, admin, OverrideRequest{Role: "manager", Key: "invoices.delete", Enabled: false})
	assert.ErrorIs(t, err, access.ErrHierarchyViolation)

	_, err = f.svc.SetOverride(ctx, admin, OverrideRequest{Role: "owner", Key: "dashboard.view", Enabled: false})
	assert.ErrorIs(t, err, access.ErrHierarchyViolation)

	_, err = f.svc.SetOverride(ctx, admin, OverrideRequest{Role: "boss", Key: "invoices.delete", Enabled: true})
	assert.ErrorIs(t, err, access.ErrUnknownRole)

	rec, err := f.svc.SetOverride(ctx, admin, OverrideRequest{Role: "employee", Key: "invoices.delete", Enabled: false})
	require.NoError(t, err)
	assert.Equal(t, TierOrganization, rec.Tier)
	assert.Equal(t, "o1", rec.OrgID)

	emp := common_models.Subject{UserID: "e", OrgID: "o1", Role: access.RoleEmployee}
	res := f.svc.Check(ctx, emp, access.MustParseKey("invoices.delete"))
	assert.False(t, res.Allowed)
	assert.Equal(t, access.SourceOverride, res.Source)

	_, err = f.svc.SetOverride(ctx, admin, OverrideRequest{Role: "manager", Key: "invoices.delete", Enabled: false})
	assert.NoError(t, err, "employee override lifts the block")
}

func TestInvalidationIsScopedToOrganization(t *testing.T) {
	f := newFixture(adminCanManage("o1"), adminCanManage("o2"))
	other := common_models.Subject{UserID: "b", OrgID: "o2", Role: access.RoleAdmin}
	require.True(t, f.svc.HasPermission(ctx, other, KeyPermissionsManage))

	_, err := f.svc.UpdateSettings(ctx, admin, access.Settings{UseGlobalDefaults: true})
	require.NoError(t, err)

	_, fresh, _ := f.cache.Get(ctx, cache.Scope{OrgID: "o1", Role: access.RoleAdmin})
	assert.False(t, fresh)
	_, fresh, _ = f.cache.Get(ctx, cache.Scope{OrgID: "o2", Role: access.RoleAdmin})
	assert.True(t, fresh)
	assert.Equal(t, []string{"SETTINGS permissions o1"}, f.audit.entries)
}

func TestMatrix(t *testing.T) {
	f := newFixture(
		adminCanManage("o1"),
		globalRec("g1", access.RoleEmployee, "invoices.view", true),
		planRec("p1", "business", access.RoleStaff, "invoices.view", true),
	)

	m, err := f.svc.Matrix(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, "business", m.Plan)
	assert.Equal(t, []string{"invoices.view", "permissions.manage"}, m.Keys)
	assert.True(t, m.Values["employee"]["invoices.view"])
	assert.True(t, m.Values["staff"]["invoices.view"])
	assert.False(t, m.Values["owner"]["invoices.view"])
	assert.True(t, m.Values["admin"]["permissions.manage"])

	_, err = f.svc.Matrix(ctx, common_models.Subject{UserID: "e", OrgID: "o1", Role: access.RoleEmployee})
	assert.ErrorIs(t, err, common_models.ErrUnauthorized)
}

func TestListRecordsRestrictsOrgAdmins(t *testing.T) {
	f := newFixture(
		adminCanManage("o1"),
		adminCanManage("o2"),
		globalRec("g1", access.RoleEmployee, "invoices.view", true),
	)

	recs, err := f.svc.ListRecords(ctx, admin, RecordFilter{OrgID: "o2"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "manage-o1", recs[0].ID)

	recs, err = f.svc.ListRecords(ctx, root, RecordFilter{Tier: TierOrganization})
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	_, err = f.svc.ListRecords(ctx, root, RecordFilter{Tier: "galaxy"})
	assert.ErrorIs(t, err, common_models.ErrInvalidInput)
}

func TestRefreshCached(t *testing.T) {
	f := newFixture(globalRec("g1", access.RoleStaff, "tasks.create", true))
	staff := common_models.Subject{UserID: "s", OrgID: "o1", Role: access.RoleStaff}
	key := access.MustParseKey("tasks.create")
	require.True(t, f.svc.HasPermission(ctx, staff, key))
	require.False(t, f.svc.HasPermission(ctx, common_models.Subject{UserID: "e", OrgID: "o2", Role: access.RoleEmployee}, key))

	require.NoError(t, f.repo.SetEnabled(ctx, "g1", false, "root"))
	refreshed, failed := f.svc.RefreshCached(ctx)
	assert.Equal(t, 2, refreshed)
	assert.Equal(t, 0, failed)

	res := f.svc.Check(ctx, staff, key)
	assert.True(t, res.CacheHit)
	assert.False(t, res.Allowed)

	f.repo.fail(errors.New("timeout"))
	refreshed, failed = f.svc.RefreshCached(ctx)
	assert.Equal(t, 0, refreshed)
	assert.Equal(t, 2, failed)
	assert.False(t, f.svc.HasPermission(ctx, staff, key), "failed refresh keeps previous snapshot")
}
