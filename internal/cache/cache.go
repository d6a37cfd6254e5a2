// Package cache holds last-known-good permission snapshots per organization
// and role.
package cache

import (
	"context"
	"time"
)

const DefaultTTL = 60 * time.Second

// LayerCache stores snapshots. Invalidation only marks entries stale; a
// stale snapshot is still returned by Get (fresh=false) until a successful
// refresh replaces it through Set.
type LayerCache interface {
	Get(ctx context.Context, scope Scope) (snap Snapshot, fresh bool, ok bool)
	Set(ctx context.Context, snap Snapshot) error
	Invalidate(ctx context.Context, scope Scope)
	InvalidateOrg(ctx context.Context, orgID string)
	InvalidateAll(ctx context.Context)
	Scopes(ctx context.Context) []Scope
}
