package cache

import (
	"time"

	"go-bizsuite/pkg/access"
)

// Scope identifies one cached slice of the permission layers
type Scope struct {
	OrgID string      `json:"org_id"`
	Role  access.Role `json:"role"`
}

func (s Scope) String() string {
	return s.OrgID + ":" + string(s.Role)
}

// Snapshot is the role slice of all three layers for an organization,
// together with the plan and settings needed to resolve against it.
type Snapshot struct {
	Scope     Scope               `json:"scope"`
	Plan      string              `json:"plan"`
	Settings  access.Settings     `json:"settings"`
	Defaults  map[access.Key]bool `json:"defaults"`
	Presets   map[access.Key]bool `json:"presets"`
	Overrides map[access.Key]bool `json:"overrides"`
	FetchedAt time.Time           `json:"fetched_at"`
}

// NewSnapshot keeps only the entries of layers that apply to scope.Role
// and, for presets, to plan.
func NewSnapshot(scope Scope, plan string, settings access.Settings, layers access.Layers, fetchedAt time.Time) Snapshot {
	snap := Snapshot{
		Scope:     scope,
		Plan:      plan,
		Settings:  settings,
		Defaults:  make(map[access.Key]bool),
		Presets:   make(map[access.Key]bool),
		Overrides: make(map[access.Key]bool),
		FetchedAt: fetchedAt,
	}
	for rk, v := range layers.Defaults {
		if rk.Role == scope.Role {
			snap.Defaults[rk.Key] = v
		}
	}
	for prk, v := range layers.Presets {
		if prk.Role == scope.Role && prk.Plan == plan {
			snap.Presets[prk.Key] = v
		}
	}
	for rk, v := range layers.Overrides {
		if rk.Role == scope.Role {
			snap.Overrides[rk.Key] = v
		}
	}
	return snap
}

// Layers rebuilds resolver input from the snapshot
func (s Snapshot) Layers() access.Layers {
	layers := access.NewLayers()
	role := s.Scope.Role
	for k, v := range s.Defaults {
		layers.Defaults[access.RoleKey{Role: role, Key: k}] = v
	}
	for k, v := range s.Presets {
		layers.Presets[access.PlanRoleKey{Plan: s.Plan, Role: role, Key: k}] = v
	}
	for k, v := range s.Overrides {
		layers.Overrides[access.RoleKey{Role: role, Key: k}] = v
	}
	return layers
}

// Context returns the resolution context for a caller of this snapshot
func (s Snapshot) Context(superAdmin bool) access.Context {
	return access.Context{Plan: s.Plan, Settings: s.Settings, SuperAdmin: superAdmin}
}
