package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	keyInvoiceDelete = MustParseKey("invoices.delete")
	keyBillingView   = MustParseKey("billing.view")
)

func layersFixture() Layers {
	l := NewLayers()
	l.Defaults[RoleKey{Role: RoleEmployee, Key: keyInvoiceDelete}] = false
	l.Presets[PlanRoleKey{Plan: "pro", Role: RoleEmployee, Key: keyInvoiceDelete}] = true
	l.Overrides[RoleKey{Role: RoleEmployee, Key: keyInvoiceDelete}] = false
	l.Defaults[RoleKey{Role: RoleManager, Key: keyInvoiceDelete}] = true
	return l
}

func TestResolverPrecedence(t *testing.T) {
	r := NewResolver(layersFixture())

	tests := []struct {
		name   string
		role   Role
		ctx    Context
		want   bool
		source Source
	}{
		{
			name:   "override wins when global defaults not forced",
			role:   RoleEmployee,
			ctx:    Context{Plan: "pro"},
			want:   false,
			source: SourceOverride,
		},
		{
			name:   "preset used when overrides skipped",
			role:   RoleEmployee,
			ctx:    Context{Plan: "pro", Settings: Settings{UseGlobalDefaults: true}},
			want:   true,
			source: SourcePlanPreset,
		},
		{
			name:   "global default when both skipped",
			role:   RoleEmployee,
			ctx:    Context{Plan: "pro", Settings: Settings{UseGlobalDefaults: true, OverridePlanPresets: true}},
			want:   false,
			source: SourceGlobalDefault,
		},
		{
			name:   "preset for another plan does not apply",
			role:   RoleEmployee,
			ctx:    Context{Plan: "starter", Settings: Settings{UseGlobalDefaults: true}},
			want:   false,
			source: SourceGlobalDefault,
		},
		{
			name:   "falls through to default for role without override",
			role:   RoleManager,
			ctx:    Context{Plan: "pro"},
			want:   true,
			source: SourceGlobalDefault,
		},
		{
			name:   "super admin bypasses every layer",
			role:   RoleEmployee,
			ctx:    Context{Plan: "pro", SuperAdmin: true},
			want:   true,
			source: SourceSuperAdmin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := r.Explain(tt.role, keyInvoiceDelete, tt.ctx)
			assert.Equal(t, tt.want, d.Allowed)
			assert.Equal(t, tt.source, d.Source)
		})
	}
}

func TestResolverUnmappedIsDenied(t *testing.T) {
	r := NewResolver(layersFixture())
	unknown := MustParseKey("vendors.pay")

	for _, role := range Roles() {
		for _, ctx := range []Context{
			{},
			{Plan: "pro"},
			{Plan: "pro", Settings: Settings{UseGlobalDefaults: true}},
			{Plan: "pro", Settings: Settings{UseGlobalDefaults: true, OverridePlanPresets: true}},
		} {
			d := r.Explain(role, unknown, ctx)
			assert.False(t, d.Allowed, "role %s ctx %+v", role, ctx)
			assert.Equal(t, SourceUnmapped, d.Source)
		}
	}
}

func TestResolverOverrideBeatsDisagreeingLayers(t *testing.T) {
	l := NewLayers()
	rk := RoleKey{Role: RoleStaff, Key: keyBillingView}
	l.Defaults[rk] = false
	l.Presets[PlanRoleKey{Plan: "pro", Role: RoleStaff, Key: keyBillingView}] = false
	l.Overrides[rk] = true

	r := NewResolver(l)
	assert.True(t, r.HasPermission(RoleStaff, keyBillingView, Context{Plan: "pro"}))
}

func TestAnyAllAndMenus(t *testing.T) {
	l := NewLayers()
	l.Defaults[RoleKey{Role: RoleStaff, Key: MenuKey("sales")}] = true
	l.Defaults[RoleKey{Role: RoleStaff, Key: SubMenuKey("sales", "invoices")}] = true
	l.Defaults[RoleKey{Role: RoleStaff, Key: SubMenuKey("purchases", "bills")}] = true
	l.Defaults[RoleKey{Role: RoleStaff, Key: keyInvoiceDelete}] = true
	r := NewResolver(l)
	ctx := Context{}

	assert.True(t, r.HasAnyPermission(RoleStaff, []Key{keyBillingView, keyInvoiceDelete}, ctx))
	assert.False(t, r.HasAllPermissions(RoleStaff, []Key{keyBillingView, keyInvoiceDelete}, ctx))
	assert.True(t, r.HasAllPermissions(RoleStaff, []Key{keyInvoiceDelete, MenuKey("sales")}, ctx))
	assert.False(t, r.HasAnyPermission(RoleStaff, nil, ctx))
	assert.False(t, r.HasAllPermissions(RoleStaff, nil, ctx))

	assert.True(t, r.HasMenuAccess(RoleStaff, "sales", ctx))
	assert.True(t, r.HasSubMenuAccess(RoleStaff, "sales", "invoices", ctx))
	// sub-menu granted but parent menu is not
	assert.False(t, r.HasSubMenuAccess(RoleStaff, "purchases", "bills", ctx))
}

func TestEffectiveIgnoresSuperAdmin(t *testing.T) {
	r := NewResolver(layersFixture())
	state := r.Effective([]Key{keyInvoiceDelete}, Context{Plan: "pro", SuperAdmin: true})

	assert.False(t, state[RoleKey{Role: RoleEmployee, Key: keyInvoiceDelete}])
	assert.True(t, state[RoleKey{Role: RoleManager, Key: keyInvoiceDelete}])
	assert.Len(t, state, len(Roles()))
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		in      string
		want    Key
		wantErr bool
	}{
		{in: "invoices.delete", want: Key{Module: "invoices", Action: "delete"}},
		{in: "sales.invoices.access", want: Key{Module: "sales.invoices", Action: "access"}},
		{in: " tasks.view ", want: Key{Module: "tasks", Action: "view"}},
		{in: "invoices", wantErr: true},
		{in: ".delete", wantErr: true},
		{in: "invoices.", wantErr: true},
		{in: "", wantErr: true},
		{in: "a..b", wantErr: true},
		{in: " .x", wantErr: true},
		{in: "sales..invoices.access", wantErr: true},
		{in: ".sales.access", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKey(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidKey)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Owner ")
	assert.NoError(t, err)
	assert.Equal(t, RoleOwner, r)

	_, err = ParseRole("root")
	assert.ErrorIs(t, err, ErrUnknownRole)

	assert.Equal(t, 0, Level(Role("root")))
	assert.True(t, RoleOwner.Outranks(RoleEmployee))
	assert.False(t, RoleStaff.Outranks(RoleStaff))
	assert.Equal(t, []Role{RoleStaff, RoleEmployee}, LowerRoles(RoleManager))
}
