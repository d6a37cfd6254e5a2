package permission

import (
	"time"

	"go-bizsuite/pkg/access"
)

// Tier says which layer a record belongs to
type Tier string

const (
	TierGlobal       Tier = "global"
	TierPlan         Tier = "plan"
	TierOrganization Tier = "organization"
)

func (t Tier) IsValid() bool {
	return t == TierGlobal || t == TierPlan || t == TierOrganization
}

// PermissionRecord is one row of a permission layer. OrgID is set only for
// organization overrides and Plan only for plan presets.
type PermissionRecord struct {
	ID        string      `json:"id" bson:"_id"`
	Tier      Tier        `json:"tier" bson:"tier"`
	OrgID     string      `json:"org_id,omitempty" bson:"org_id"`
	Plan      string      `json:"plan,omitempty" bson:"plan"`
	Role      access.Role `json:"role" bson:"role"`
	Module    string      `json:"module" bson:"module"`
	Action    string      `json:"action" bson:"action"`
	Enabled   bool        `json:"enabled" bson:"enabled"`
	UpdatedAt time.Time   `json:"updated_at" bson:"updated_at"`
	UpdatedBy string      `json:"updated_by,omitempty" bson:"updated_by,omitempty"`
}

func (r PermissionRecord) Key() access.Key {
	return access.NewKey(r.Module, r.Action)
}

// ResolutionSettings are the per-organization switches over the layers
type ResolutionSettings struct {
	OrgID               string    `json:"org_id" bson:"_id"`
	UseGlobalDefaults   bool      `json:"use_global_defaults" bson:"use_global_defaults"`
	OverridePlanPresets bool      `json:"override_plan_presets" bson:"override_plan_presets"`
	UpdatedAt           time.Time `json:"updated_at" bson:"updated_at"`
	UpdatedBy           string    `json:"updated_by,omitempty" bson:"updated_by,omitempty"`
}

func (s ResolutionSettings) Settings() access.Settings {
	return access.Settings{
		UseGlobalDefaults:   s.UseGlobalDefaults,
		OverridePlanPresets: s.OverridePlanPresets,
	}
}

// RecordFilter narrows ListRecords. Empty fields match everything.
type RecordFilter struct {
	Tier   Tier
	OrgID  string
	Plan   string
	Role   access.Role
	Module string
}

// BuildLayers sorts records into the three resolver layers. Records with an
// unknown role or tier are skipped.
func BuildLayers(records []PermissionRecord) access.Layers {
	layers := access.NewLayers()
	for _, rec := range records {
		if !rec.Role.IsValid() {
			continue
		}
		rk := access.RoleKey{Role: rec.Role, Key: rec.Key()}
		switch rec.Tier {
		case TierGlobal:
			layers.Defaults[rk] = rec.Enabled
		case TierPlan:
			layers.Presets[access.PlanRoleKey{Plan: rec.Plan, Role: rec.Role, Key: rec.Key()}] = rec.Enabled
		case TierOrganization:
			layers.Overrides[rk] = rec.Enabled
		}
	}
	return layers
}

// CheckRequest is the body of the check endpoints
type CheckRequest struct {
	Key  string   `json:"key"`
	Keys []string `json:"keys"`
}

// CheckResult explains a single permission check
type CheckResult struct {
	Key      string        `json:"key"`
	Allowed  bool          `json:"allowed"`
	Source   access.Source `json:"source"`
	CacheHit bool          `json:"cache_hit"`
	Stale    bool          `json:"stale,omitempty"`
}

// BulkUpdateItem toggles one stored record
type BulkUpdateItem struct {
	PermissionID string `json:"permission_id"`
	IsEnabled    bool   `json:"is_enabled"`
}

type BulkUpdateRequest struct {
	Items []BulkUpdateItem `json:"items"`
}

type BulkItemResult struct {
	PermissionID string `json:"permission_id"`
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
}

type BulkError struct {
	RecordID string `json:"record_id"`
	Message  string `json:"message"`
}

// BulkUpdateResult reports partial failure so callers can retry only the
// failed subset
type BulkUpdateResult struct {
	BatchID string           `json:"batch_id"`
	Success int              `json:"success"`
	Failed  int              `json:"failed"`
	Results []BulkItemResult `json:"results"`
	Errors  []BulkError      `json:"errors,omitempty"`
}

// FailedIDs lists the ids to resubmit
func (r *BulkUpdateResult) FailedIDs() []string {
	ids := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		ids = append(ids, e.RecordID)
	}
	return ids
}

// OverrideRequest creates or updates an organization override
type OverrideRequest struct {
	Role    string `json:"role"`
	Key     string `json:"key"`
	Enabled bool   `json:"enabled"`
}

// Matrix is the resolved role x key grid of an organization
type Matrix struct {
	OrgID    string                     `json:"org_id"`
	Plan     string                     `json:"plan"`
	Settings access.Settings            `json:"settings"`
	Roles    []access.Role              `json:"roles"`
	Keys     []string                   `json:"keys"`
	Values   map[string]map[string]bool `json:"values"` // role -> key -> allowed
}
