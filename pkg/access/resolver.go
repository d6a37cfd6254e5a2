// Package access evaluates layered role permissions, guards the role hierarchy
// and decides task visibility. Everything here is pure: callers load the layer
// tables and hand them in.
package access

// Settings are the per-organization flags choosing which layers are consulted.
type Settings struct {
	UseGlobalDefaults   bool `json:"use_global_defaults" bson:"use_global_defaults"`
	OverridePlanPresets bool `json:"override_plan_presets" bson:"override_plan_presets"`
}

// Context carries everything about the caller that is not a layer table.
type Context struct {
	Plan       string
	Settings   Settings
	SuperAdmin bool
}

// Layers are the three permission tables. Missing entries mean "not mapped".
type Layers struct {
	Defaults  map[RoleKey]bool
	Presets   map[PlanRoleKey]bool
	Overrides map[RoleKey]bool
}

// NewLayers returns empty, writable layers.
func NewLayers() Layers {
	return Layers{
		Defaults:  make(map[RoleKey]bool),
		Presets:   make(map[PlanRoleKey]bool),
		Overrides: make(map[RoleKey]bool),
	}
}

// Source names the layer a decision came from.
type Source string

const (
	SourceSuperAdmin    Source = "super_admin"
	SourceOverride      Source = "override"
	SourcePlanPreset    Source = "plan_preset"
	SourceGlobalDefault Source = "global_default"
	SourceUnmapped      Source = "unmapped"
)

// Decision is the outcome of a single permission resolution.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Source  Source `json:"source"`
}

// Resolver walks the layers in precedence order.
type Resolver struct {
	layers Layers
}

func NewResolver(layers Layers) *Resolver {
	return &Resolver{layers: layers}
}

// Explain resolves key for role and reports which layer answered.
//
// Order: super admin, organization override (unless global defaults are
// forced), plan preset (unless presets are overridden), global default.
// A key absent from every layer is denied.
func (r *Resolver) Explain(role Role, key Key, ctx Context) Decision {
	if ctx.SuperAdmin {
		return Decision{Allowed: true, Source: SourceSuperAdmin}
	}
	rk := RoleKey{Role: role, Key: key}
	if !ctx.Settings.UseGlobalDefaults {
		if v, ok := r.layers.Overrides[rk]; ok {
			return Decision{Allowed: v, Source: SourceOverride}
		}
	}
	if !ctx.Settings.OverridePlanPresets && ctx.Plan != "" {
		if v, ok := r.layers.Presets[PlanRoleKey{Plan: ctx.Plan, Role: role, Key: key}]; ok {
			return Decision{Allowed: v, Source: SourcePlanPreset}
		}
	}
	if v, ok := r.layers.Defaults[rk]; ok {
		return Decision{Allowed: v, Source: SourceGlobalDefault}
	}
	return Decision{Allowed: false, Source: SourceUnmapped}
}

func (r *Resolver) HasPermission(role Role, key Key, ctx Context) bool {
	return r.Explain(role, key, ctx).Allowed
}

// HasAnyPermission is false for an empty key list.
func (r *Resolver) HasAnyPermission(role Role, keys []Key, ctx Context) bool {
	for _, k := range keys {
		if r.HasPermission(role, k, ctx) {
			return true
		}
	}
	return false
}

// HasAllPermissions is false for an empty key list.
func (r *Resolver) HasAllPermissions(role Role, keys []Key, ctx Context) bool {
	if len(keys) == 0 {
		return false
	}
	for _, k := range keys {
		if !r.HasPermission(role, k, ctx) {
			return false
		}
	}
	return true
}

func (r *Resolver) HasMenuAccess(role Role, menu string, ctx Context) bool {
	return r.HasPermission(role, MenuKey(menu), ctx)
}

// HasSubMenuAccess requires access to the parent menu as well as the entry.
func (r *Resolver) HasSubMenuAccess(role Role, menu, sub string, ctx Context) bool {
	return r.HasMenuAccess(role, menu, ctx) && r.HasPermission(role, SubMenuKey(menu, sub), ctx)
}

// Effective resolves every role against keys, producing the state the
// hierarchy guard works on.
func (r *Resolver) Effective(keys []Key, ctx Context) map[RoleKey]bool {
	ctx.SuperAdmin = false
	out := make(map[RoleKey]bool, len(keys)*len(Roles()))
	for _, role := range Roles() {
		for _, k := range keys {
			out[RoleKey{Role: role, Key: k}] = r.HasPermission(role, k, ctx)
		}
	}
	return out
}

// Keys returns every key mentioned by any layer, without duplicates.
func (l Layers) Keys() []Key {
	seen := make(map[Key]struct{})
	var out []Key
	add := func(k Key) {
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	for rk := range l.Defaults {
		add(rk.Key)
	}
	for pk := range l.Presets {
		add(pk.Key)
	}
	for rk := range l.Overrides {
		add(rk.Key)
	}
	return out
}
