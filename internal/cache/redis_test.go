package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"go-bizsuite/pkg/access"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs only against a live server, e.g. REDIS_TEST_ADDR=localhost:6379
func newRedisTestCache(t *testing.T) *RedisCache {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	require.NoError(t, client.FlushDB(context.Background()).Err())
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client, time.Minute, nil)
}

func TestRedisCacheKeepsLastKnownGood(t *testing.T) {
	ctx := context.Background()
	c := newRedisTestCache(t)

	require.NoError(t, c.Set(ctx, snap("a", access.RoleStaff)))
	require.NoError(t, c.Set(ctx, snap("b", access.RoleStaff)))

	c.InvalidateOrg(ctx, "a")

	got, fresh, ok := c.Get(ctx, Scope{OrgID: "a", Role: access.RoleStaff})
	assert.True(t, ok)
	assert.False(t, fresh)
	assert.True(t, got.Defaults[access.MustParseKey("tasks.view")])

	_, fresh, ok = c.Get(ctx, Scope{OrgID: "b", Role: access.RoleStaff})
	assert.True(t, ok)
	assert.True(t, fresh)

	assert.Len(t, c.Scopes(ctx), 2)
}
