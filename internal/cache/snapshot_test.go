package cache

import (
	"encoding/json"
	"testing"
	"time"

	"go-bizsuite/pkg/access"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSnapshotSlicesByRoleAndPlan(t *testing.T) {
	view := access.MustParseKey("invoices.view")
	del := access.MustParseKey("invoices.delete")

	layers := access.NewLayers()
	layers.Defaults[access.RoleKey{Role: access.RoleStaff, Key: view}] = true
	layers.Defaults[access.RoleKey{Role: access.RoleAdmin, Key: del}] = true
	layers.Presets[access.PlanRoleKey{Plan: "starter", Role: access.RoleStaff, Key: view}] = false
	layers.Presets[access.PlanRoleKey{Plan: "business", Role: access.RoleStaff, Key: del}] = true
	layers.Overrides[access.RoleKey{Role: access.RoleStaff, Key: del}] = true

	s := NewSnapshot(Scope{OrgID: "o1", Role: access.RoleStaff}, "starter", access.Settings{}, layers, time.Now())

	assert.Equal(t, map[access.Key]bool{view: true}, s.Defaults)
	assert.Equal(t, map[access.Key]bool{view: false}, s.Presets)
	assert.Equal(t, map[access.Key]bool{del: true}, s.Overrides)

	// The rebuilt layers resolve exactly like the originals for this role and plan
	ctx := s.Context(false)
	original := access.NewResolver(layers)
	rebuilt := access.NewResolver(s.Layers())
	for _, k := range []access.Key{view, del} {
		assert.Equal(t, original.HasPermission(access.RoleStaff, k, ctx), rebuilt.HasPermission(access.RoleStaff, k, ctx), k.String())
	}
}

func TestSnapshotJSONRoundTrip(t *testing.T) {
	s := snap("o1", access.RoleOwner)
	s.Settings = access.Settings{OverridePlanPresets: true}

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tasks.view":true`)

	var back Snapshot
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s.Scope, back.Scope)
	assert.Equal(t, s.Defaults, back.Defaults)
	assert.True(t, back.Settings.OverridePlanPresets)
}

func TestParseScope(t *testing.T) {
	got, ok := parseScope("64f0c2:manager")
	assert.True(t, ok)
	assert.Equal(t, Scope{OrgID: "64f0c2", Role: access.RoleManager}, got)

	_, ok = parseScope("no-role:")
	assert.False(t, ok)
	_, ok = parseScope(":owner")
	assert.False(t, ok)
}
