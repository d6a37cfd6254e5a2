package permission

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go-bizsuite/internal/cache"
	common_models "go-bizsuite/internal/common/models"
	"go-bizsuite/internal/features/audit"
	"go-bizsuite/internal/metrics"
	"go-bizsuite/pkg/access"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const auditModule = "permissions"

var (
	KeyPermissionsView   = access.NewKey("permissions", access.ActionView)
	KeyPermissionsManage = access.NewKey("permissions", "manage")
)

// PlanLookup returns the subscription plan of an organization
type PlanLookup interface {
	GetPlan(ctx context.Context, orgID string) (string, error)
}

// EventPublisher fans change events out to connected clients
type EventPublisher interface {
	Publish(event common_models.Event)
}

type PermissionService interface {
	HasPermission(ctx context.Context, sub common_models.Subject, key access.Key) bool
	HasAnyPermission(ctx context.Context, sub common_models.Subject, keys []access.Key) bool
	HasAllPermissions(ctx context.Context, sub common_models.Subject, keys []access.Key) bool
	HasMenuAccess(ctx context.Context, sub common_models.Subject, menu string) bool
	HasSubMenuAccess(ctx context.Context, sub common_models.Subject, menu, subMenu string) bool
	Check(ctx context.Context, sub common_models.Subject, key access.Key) CheckResult
	EffectivePermissions(ctx context.Context, sub common_models.Subject, keys []access.Key) map[string]bool

	BulkUpdate(ctx context.Context, actor common_models.Subject, items []BulkUpdateItem) (*BulkUpdateResult, error)
	SetOverride(ctx context.Context, actor common_models.Subject, req OverrideRequest) (*PermissionRecord, error)
	GetSettings(ctx context.Context, actor common_models.Subject) (ResolutionSettings, error)
	UpdateSettings(ctx context.Context, actor common_models.Subject, settings access.Settings) (ResolutionSettings, error)
	Matrix(ctx context.Context, actor common_models.Subject) (*Matrix, error)
	ExportMatrix(ctx context.Context, actor common_models.Subject) ([]byte, string, error)
	ListRecords(ctx context.Context, actor common_models.Subject, filter RecordFilter) ([]PermissionRecord, error)

	RefreshCached(ctx context.Context) (refreshed, failed int)
	InvalidateOrg(ctx context.Context, orgID string)
}

type PermissionServiceImpl struct {
	Repo         PermissionRepository
	Cache        cache.LayerCache
	Plans        PlanLookup
	AuditService audit.AuditService
	Events       EventPublisher
	Metrics      *metrics.Metrics
	Logger       *zap.Logger
	Guard        *access.Guard

	loads singleflight.Group
	now   func() time.Time
}

func NewPermissionService(
	repo PermissionRepository,
	layerCache cache.LayerCache,
	plans PlanLookup,
	auditService audit.AuditService,
	events EventPublisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) PermissionService {
	return newPermissionService(repo, layerCache, plans, auditService, events, m, logger)
}

func newPermissionService(
	repo PermissionRepository,
	layerCache cache.LayerCache,
	plans PlanLookup,
	auditService audit.AuditService,
	events EventPublisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) *PermissionServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.NewMetrics()
	}
	return &PermissionServiceImpl{
		Repo:         repo,
		Cache:        layerCache,
		Plans:        plans,
		AuditService: auditService,
		Events:       events,
		Metrics:      m,
		Logger:       logger,
		Guard:        access.NewGuard(),
		now:          time.Now,
	}
}

// lookup describes where a snapshot came from
type lookup int

const (
	lookupUnavailable lookup = iota
	lookupHit
	lookupLoaded
	lookupStale
	lookupBypass
)

// snapshot returns the caller's slice of the layers. A fresh cache entry is
// used as-is; otherwise the store is read and, if that fails, the last known
// snapshot is served. With neither, the caller is denied everything.
func (s *PermissionServiceImpl) snapshot(ctx context.Context, sub common_models.Subject) (cache.Snapshot, lookup) {
	scope := cache.Scope{OrgID: sub.OrgID, Role: sub.Role}
	cached, fresh, ok := s.Cache.Get(ctx, scope)
	if ok && fresh {
		s.Metrics.CacheHit()
		return cached, lookupHit
	}
	if !ok {
		s.Metrics.CacheMiss()
	}

	v, err, _ := s.loads.Do(scope.String(), func() (any, error) {
		return s.load(ctx, scope)
	})
	if err == nil {
		return v.(cache.Snapshot), lookupLoaded
	}

	s.Logger.Warn("permission layers unavailable",
		zap.String("org_id", sub.OrgID), zap.String("role", string(sub.Role)), zap.Bool("has_last_known", ok), zap.Error(err))
	if ok {
		s.Metrics.CacheStale()
		return cached, lookupStale
	}
	return cache.Snapshot{}, lookupUnavailable
}

// load reads a scope from the store and caches it. The cache is untouched on
// failure so the previous snapshot survives.
func (s *PermissionServiceImpl) load(ctx context.Context, scope cache.Scope) (cache.Snapshot, error) {
	start := s.now()
	snap, err := s.fetch(ctx, scope)
	s.Metrics.ObserveRefresh(err, time.Since(start).Seconds())
	if err != nil {
		return cache.Snapshot{}, err
	}
	if err := s.Cache.Set(ctx, snap); err != nil {
		s.Logger.Warn("layer cache write failed", zap.String("scope", scope.String()), zap.Error(err))
	}
	return snap, nil
}

func (s *PermissionServiceImpl) fetch(ctx context.Context, scope cache.Scope) (cache.Snapshot, error) {
	plan, err := s.Plans.GetPlan(ctx, scope.OrgID)
	if err != nil {
		return cache.Snapshot{}, fmt.Errorf("plan of %s: %w", scope.OrgID, err)
	}
	settings, err := s.Repo.GetSettings(ctx, scope.OrgID)
	if err != nil {
		return cache.Snapshot{}, fmt.Errorf("settings of %s: %w", scope.OrgID, err)
	}
	layers, err := s.Repo.LoadLayers(ctx, scope.OrgID, plan, scope.Role)
	if err != nil {
		return cache.Snapshot{}, fmt.Errorf("layers of %s: %w", scope, err)
	}
	return cache.NewSnapshot(scope, plan, settings.Settings(), layers, s.now()), nil
}

// resolverFor prepares a resolver for sub. ok is false when sub cannot be
// resolved at all, which callers treat as deny.
func (s *PermissionServiceImpl) resolverFor(ctx context.Context, sub common_models.Subject) (*access.Resolver, access.Context, cache.Snapshot, lookup, bool) {
	if sub.SuperAdmin {
		return access.NewResolver(access.NewLayers()), access.Context{SuperAdmin: true}, cache.Snapshot{}, lookupBypass, true
	}
	if sub.OrgID == "" || !sub.Role.IsValid() {
		return nil, access.Context{}, cache.Snapshot{}, lookupUnavailable, false
	}
	snap, state := s.snapshot(ctx, sub)
	if state == lookupUnavailable {
		return nil, access.Context{}, cache.Snapshot{}, state, false
	}
	return access.NewResolver(snap.Layers()), snap.Context(false), snap, state, true
}

func (s *PermissionServiceImpl) Check(ctx context.Context, sub common_models.Subject, key access.Key) CheckResult {
	result := CheckResult{Key: key.String(), Source: access.SourceUnmapped}
	r, rctx, _, state, ok := s.resolverFor(ctx, sub)
	if ok {
		d := r.Explain(sub.Role, key, rctx)
		result.Allowed = d.Allowed
		result.Source = d.Source
		result.CacheHit = state == lookupHit
		result.Stale = state == lookupStale
	}
	s.Metrics.ObserveCheck(result.Allowed, string(result.Source))
	return result
}

func (s *PermissionServiceImpl) HasPermission(ctx context.Context, sub common_models.Subject, key access.Key) bool {
	return s.Check(ctx, sub, key).Allowed
}

// SourceComposite labels checks that combine several keys
const SourceComposite = "composite"

// gate resolves a multi-key question and counts it like a single check
func (s *PermissionServiceImpl) gate(ctx context.Context, sub common_models.Subject, fn func(*access.Resolver, access.Context) bool) bool {
	r, rctx, _, _, ok := s.resolverFor(ctx, sub)
	allowed := ok && fn(r, rctx)
	source := SourceComposite
	switch {
	case sub.SuperAdmin:
		source = string(access.SourceSuperAdmin)
	case !ok:
		source = string(access.SourceUnmapped)
	}
	s.Metrics.ObserveCheck(allowed, source)
	return allowed
}

func (s *PermissionServiceImpl) HasAnyPermission(ctx context.Context, sub common_models.Subject, keys []access.Key) bool {
	return s.gate(ctx, sub, func(r *access.Resolver, rctx access.Context) bool {
		return r.HasAnyPermission(sub.Role, keys, rctx)
	})
}

func (s *PermissionServiceImpl) HasAllPermissions(ctx context.Context, sub common_models.Subject, keys []access.Key) bool {
	return s.gate(ctx, sub, func(r *access.Resolver, rctx access.Context) bool {
		return r.HasAllPermissions(sub.Role, keys, rctx)
	})
}

func (s *PermissionServiceImpl) HasMenuAccess(ctx context.Context, sub common_models.Subject, menu string) bool {
	return s.Check(ctx, sub, access.MenuKey(menu)).Allowed
}

func (s *PermissionServiceImpl) HasSubMenuAccess(ctx context.Context, sub common_models.Subject, menu, subMenu string) bool {
	return s.gate(ctx, sub, func(r *access.Resolver, rctx access.Context) bool {
		return r.HasSubMenuAccess(sub.Role, menu, subMenu, rctx)
	})
}

// EffectivePermissions resolves keys for the caller; with no keys it resolves
// every key mentioned in the caller's layers
func (s *PermissionServiceImpl) EffectivePermissions(ctx context.Context, sub common_models.Subject, keys []access.Key) map[string]bool {
	out := make(map[string]bool)
	r, rctx, snap, _, ok := s.resolverFor(ctx, sub)
	if !ok {
		for _, k := range keys {
			out[k.String()] = false
		}
		return out
	}
	if len(keys) == 0 && !sub.SuperAdmin {
		keys = snap.Layers().Keys()
	}
	for _, k := range keys {
		out[k.String()] = r.HasPermission(sub.Role, k, rctx)
	}
	return out
}

func (s *PermissionServiceImpl) canManage(ctx context.Context, actor common_models.Subject) bool {
	return actor.SuperAdmin || s.HasPermission(ctx, actor, KeyPermissionsManage)
}

func (s *PermissionServiceImpl) canView(ctx context.Context, actor common_models.Subject) bool {
	return actor.SuperAdmin || s.HasAnyPermission(ctx, actor, []access.Key{KeyPermissionsView, KeyPermissionsManage})
}

// BulkUpdate applies items in order. Each item is checked by the hierarchy
// guard against its tier's state including the earlier successes of the
// batch. Failures are reported per item and never stop the batch.
func (s *PermissionServiceImpl) BulkUpdate(ctx context.Context, actor common_models.Subject, items []BulkUpdateItem) (*BulkUpdateResult, error) {
	if !s.canManage(ctx, actor) {
		return nil, fmt.Errorf("bulk update: %w", common_models.ErrUnauthorized)
	}

	result := &BulkUpdateResult{
		BatchID: uuid.NewString(),
		Results: make([]BulkItemResult, 0, len(items)),
	}
	drafts := make(map[string]*access.Draft)
	touched := make(map[string]bool) // org ids; "" means every organization

	for _, item := range items {
		rec, err := s.applyItem(ctx, actor, item, drafts)
		if err != nil {
			result.Failed++
			result.Results = append(result.Results, BulkItemResult{PermissionID: item.PermissionID, Error: err.Error()})
			result.Errors = append(result.Errors, BulkError{RecordID: item.PermissionID, Message: err.Error()})
			s.Metrics.BulkItem("failed")
			continue
		}
		result.Success++
		result.Results = append(result.Results, BulkItemResult{PermissionID: item.PermissionID, Success: true})
		s.Metrics.BulkItem("success")
		if rec.Tier == TierOrganization {
			touched[rec.OrgID] = true
		} else {
			touched[""] = true
		}
	}

	s.afterWrite(ctx, touched, map[string]any{"batch_id": result.BatchID, "success": result.Success})

	s.Logger.Info("bulk permission update",
		zap.String("batch_id", result.BatchID), zap.String("org_id", actor.OrgID),
		zap.Int("success", result.Success), zap.Int("failed", result.Failed))
	return result, nil
}

func (s *PermissionServiceImpl) applyItem(ctx context.Context, actor common_models.Subject, item BulkUpdateItem, drafts map[string]*access.Draft) (*PermissionRecord, error) {
	rec, err := s.Repo.FindByID(ctx, item.PermissionID)
	if err != nil {
		return nil, err
	}
	if !authorizedFor(actor, rec) {
		return nil, fmt.Errorf("permission %s (%s tier): %w", rec.ID, rec.Tier, common_models.ErrUnauthorized)
	}

	draft, err := s.draftFor(ctx, rec, drafts)
	if err != nil {
		return nil, fmt.Errorf("permission %s: load state: %w", rec.ID, err)
	}
	key := rec.Key()
	if d := draft.Check(rec.Role, key, item.IsEnabled); !d.Allowed {
		s.Metrics.GuardBlocked()
		return nil, fmt.Errorf("permission %s: %w", rec.ID, d.Err())
	}

	if rec.Enabled != item.IsEnabled {
		if err := s.Repo.SetEnabled(ctx, rec.ID, item.IsEnabled, actor.UserID); err != nil {
			return nil, fmt.Errorf("permission %s: %w", rec.ID, err)
		}
		s.audit(ctx, common_models.AuditActionPermission, rec.ID, map[string]common_models.Change{
			"enabled": {Old: rec.Enabled, New: item.IsEnabled},
		})
	}
	draft.Toggle(rec.Role, key, item.IsEnabled)
	dropDerivedDrafts(drafts, rec.Tier)
	return rec, nil
}

// dropDerivedDrafts forgets the working state of tiers built on top of tier,
// so the next item against them reloads it with this write included
func dropDerivedDrafts(drafts map[string]*access.Draft, tier Tier) {
	for group := range drafts {
		switch {
		case tier == TierGlobal && group != "global":
			delete(drafts, group)
		case tier == TierPlan && strings.HasPrefix(group, "org:"):
			delete(drafts, group)
		}
	}
}

// authorizedFor limits organization admins to their own overrides; global
// defaults and plan presets belong to platform operators
func authorizedFor(actor common_models.Subject, rec *PermissionRecord) bool {
	if actor.SuperAdmin {
		return true
	}
	return rec.Tier == TierOrganization && rec.OrgID != "" && rec.OrgID == actor.OrgID
}

// draftFor returns the working state of the tier rec lives in. The state is
// the tier as written: overrides over presets over defaults for an
// organization, presets over defaults for a plan, defaults alone globally.
func (s *PermissionServiceImpl) draftFor(ctx context.Context, rec *PermissionRecord, drafts map[string]*access.Draft) (*access.Draft, error) {
	var group, orgID, plan string
	switch rec.Tier {
	case TierOrganization:
		group, orgID = "org:"+rec.OrgID, rec.OrgID
	case TierPlan:
		group, plan = "plan:"+rec.Plan, rec.Plan
	default:
		group = "global"
	}
	if d, ok := drafts[group]; ok {
		return d, nil
	}

	if orgID != "" {
		p, err := s.Plans.GetPlan(ctx, orgID)
		if err != nil {
			return nil, err
		}
		plan = p
	}
	d, err := s.tierDraft(ctx, orgID, plan)
	if err != nil {
		return nil, err
	}
	drafts[group] = d
	return d, nil
}

func (s *PermissionServiceImpl) tierDraft(ctx context.Context, orgID, plan string) (*access.Draft, error) {
	layers, err := s.Repo.ListLayers(ctx, orgID, plan)
	if err != nil {
		return nil, err
	}
	state := access.NewResolver(layers).Effective(layers.Keys(), access.Context{Plan: plan})
	return access.NewDraft(s.Guard, state), nil
}

// SetOverride creates or updates an override for the actor's organization
func (s *PermissionServiceImpl) SetOverride(ctx context.Context, actor common_models.Subject, req OverrideRequest) (*PermissionRecord, error) {
	if !s.canManage(ctx, actor) {
		return nil, fmt.Errorf("set override: %w", common_models.ErrUnauthorized)
	}
	if actor.OrgID == "" {
		return nil, fmt.Errorf("set override: no organization: %w", common_models.ErrInvalidInput)
	}
	role, err := access.ParseRole(req.Role)
	if err != nil {
		return nil, err
	}
	key, err := access.ParseKey(req.Key)
	if err != nil {
		return nil, err
	}

	plan, err := s.Plans.GetPlan(ctx, actor.OrgID)
	if err != nil {
		return nil, err
	}
	draft, err := s.tierDraft(ctx, actor.OrgID, plan)
	if err != nil {
		return nil, err
	}
	previous := draft.Value(role, key)
	if d := draft.Check(role, key, req.Enabled); !d.Allowed {
		s.Metrics.GuardBlocked()
		return nil, d.Err()
	}

	rec, err := s.Repo.Upsert(ctx, PermissionRecord{
		Tier:      TierOrganization,
		OrgID:     actor.OrgID,
		Role:      role,
		Module:    key.Module,
		Action:    key.Action,
		Enabled:   req.Enabled,
		UpdatedAt: s.now(),
		UpdatedBy: actor.UserID,
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, common_models.AuditActionPermission, rec.ID, map[string]common_models.Change{
		"enabled": {Old: previous, New: req.Enabled},
	})
	s.afterWrite(ctx, map[string]bool{actor.OrgID: true}, map[string]any{"role": role, "key": key.String()})
	return rec, nil
}

func (s *PermissionServiceImpl) GetSettings(ctx context.Context, actor common_models.Subject) (ResolutionSettings, error) {
	if !s.canView(ctx, actor) {
		return ResolutionSettings{}, fmt.Errorf("get settings: %w", common_models.ErrUnauthorized)
	}
	return s.Repo.GetSettings(ctx, actor.OrgID)
}

func (s *PermissionServiceImpl) UpdateSettings(ctx context.Context, actor common_models.Subject, settings access.Settings) (ResolutionSettings, error) {
	if !s.canManage(ctx, actor) {
		return ResolutionSettings{}, fmt.Errorf("update settings: %w", common_models.ErrUnauthorized)
	}
	old, err := s.Repo.GetSettings(ctx, actor.OrgID)
	if err != nil {
		return ResolutionSettings{}, err
	}

	updated := ResolutionSettings{
		OrgID:               actor.OrgID,
		UseGlobalDefaults:   settings.UseGlobalDefaults,
		OverridePlanPresets: settings.OverridePlanPresets,
		UpdatedAt:           s.now(),
		UpdatedBy:           actor.UserID,
	}
	if err := s.Repo.SaveSettings(ctx, updated); err != nil {
		return ResolutionSettings{}, err
	}

	s.audit(ctx, common_models.AuditActionSettings, actor.OrgID, map[string]common_models.Change{
		"use_global_defaults":   {Old: old.UseGlobalDefaults, New: updated.UseGlobalDefaults},
		"override_plan_presets": {Old: old.OverridePlanPresets, New: updated.OverridePlanPresets},
	})
	s.afterWrite(ctx, map[string]bool{actor.OrgID: true}, map[string]any{"settings": settings})
	return updated, nil
}

// Matrix resolves every role against every key known to the organization
func (s *PermissionServiceImpl) Matrix(ctx context.Context, actor common_models.Subject) (*Matrix, error) {
	if !s.canView(ctx, actor) {
		return nil, fmt.Errorf("matrix: %w", common_models.ErrUnauthorized)
	}
	plan, err := s.Plans.GetPlan(ctx, actor.OrgID)
	if err != nil {
		return nil, err
	}
	settings, err := s.Repo.GetSettings(ctx, actor.OrgID)
	if err != nil {
		return nil, err
	}
	layers, err := s.Repo.ListLayers(ctx, actor.OrgID, plan)
	if err != nil {
		return nil, err
	}

	keys := layers.Keys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	m := &Matrix{
		OrgID:    actor.OrgID,
		Plan:     plan,
		Settings: settings.Settings(),
		Roles:    access.Roles(),
		Keys:     make([]string, 0, len(keys)),
		Values:   make(map[string]map[string]bool),
	}
	for _, k := range keys {
		m.Keys = append(m.Keys, k.String())
	}

	resolver := access.NewResolver(layers)
	rctx := access.Context{Plan: plan, Settings: settings.Settings()}
	for _, role := range m.Roles {
		row := make(map[string]bool, len(keys))
		for _, k := range keys {
			row[k.String()] = resolver.HasPermission(role, k, rctx)
		}
		m.Values[string(role)] = row
	}
	return m, nil
}

// ListRecords returns raw layer rows. Organization admins see defaults, their
// own plan's presets and their own overrides.
func (s *PermissionServiceImpl) ListRecords(ctx context.Context, actor common_models.Subject, filter RecordFilter) ([]PermissionRecord, error) {
	if !s.canView(ctx, actor) {
		return nil, fmt.Errorf("list records: %w", common_models.ErrUnauthorized)
	}
	if filter.Tier != "" && !filter.Tier.IsValid() {
		return nil, fmt.Errorf("tier %q: %w", filter.Tier, common_models.ErrInvalidInput)
	}
	if !actor.SuperAdmin {
		switch filter.Tier {
		case TierGlobal:
			filter.OrgID, filter.Plan = "", ""
		case TierPlan:
			plan, err := s.Plans.GetPlan(ctx, actor.OrgID)
			if err != nil {
				return nil, err
			}
			filter.OrgID, filter.Plan = "", plan
		default:
			filter.Tier, filter.OrgID = TierOrganization, actor.OrgID
		}
	}
	return s.Repo.ListRecords(ctx, filter)
}

// RefreshCached reloads every cached scope. Scopes that fail keep their
// previous snapshot.
func (s *PermissionServiceImpl) RefreshCached(ctx context.Context) (refreshed, failed int) {
	for _, scope := range s.Cache.Scopes(ctx) {
		if _, err := s.load(ctx, scope); err != nil {
			failed++
			s.Logger.Warn("permission refresh failed, keeping last known layers",
				zap.String("org_id", scope.OrgID), zap.String("role", string(scope.Role)), zap.Error(err))
			continue
		}
		refreshed++
	}
	return refreshed, failed
}

func (s *PermissionServiceImpl) InvalidateOrg(ctx context.Context, orgID string) {
	s.Cache.InvalidateOrg(ctx, orgID)
}

// afterWrite invalidates the cache of touched organizations and tells their
// clients. The "" entry stands for a global or plan change.
func (s *PermissionServiceImpl) afterWrite(ctx context.Context, touched map[string]bool, data map[string]any) {
	if touched[""] {
		s.Cache.InvalidateAll(ctx)
	}
	for orgID := range touched {
		if orgID != "" {
			s.Cache.InvalidateOrg(ctx, orgID)
		}
		if s.Events != nil {
			s.Events.Publish(common_models.Event{
				Type:      common_models.EventPermissionsChanged,
				OrgID:     orgID,
				Data:      data,
				Timestamp: s.now(),
			})
		}
	}
}

func (s *PermissionServiceImpl) audit(ctx context.Context, action common_models.AuditAction, recordID string, changes map[string]common_models.Change) {
	if s.AuditService == nil {
		return
	}
	if err := s.AuditService.LogChange(ctx, action, auditModule, recordID, changes); err != nil {
		s.Logger.Warn("audit write failed", zap.String("record_id", recordID), zap.Error(err))
	}
}
