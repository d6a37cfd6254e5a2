package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go-bizsuite/pkg/access"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	snapshotPrefix = "perm:snap:"
	freshPrefix    = "perm:fresh:"
)

// RedisCache shares snapshots between API instances. The snapshot key has no
// expiry so it survives as last-known-good; freshness lives in a separate
// marker key that expires after the TTL and is deleted on invalidation.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisCache{client: client, ttl: ttl, log: log}
}

func snapshotKey(scope Scope) string { return snapshotPrefix + scope.String() }
func freshKey(scope Scope) string    { return freshPrefix + scope.String() }

func (c *RedisCache) Get(ctx context.Context, scope Scope) (Snapshot, bool, bool) {
	val, err := c.client.Get(ctx, snapshotKey(scope)).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("layer cache read failed", zap.String("scope", scope.String()), zap.Error(err))
		}
		return Snapshot{}, false, false
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(val), &snap); err != nil {
		c.log.Warn("layer cache entry corrupt", zap.String("scope", scope.String()), zap.Error(err))
		return Snapshot{}, false, false
	}

	n, err := c.client.Exists(ctx, freshKey(scope)).Result()
	if err != nil {
		return snap, false, true
	}
	return snap, n > 0, true
}

func (c *RedisCache) Set(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, snapshotKey(snap.Scope), data, 0)
		pipe.Set(ctx, freshKey(snap.Scope), 1, c.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache set %s: %w", snap.Scope, err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, scope Scope) {
	if err := c.client.Del(ctx, freshKey(scope)).Err(); err != nil {
		c.log.Warn("layer cache invalidate failed", zap.String("scope", scope.String()), zap.Error(err))
	}
}

func (c *RedisCache) InvalidateOrg(ctx context.Context, orgID string) {
	c.deleteMatching(ctx, freshPrefix+orgID+":*")
}

func (c *RedisCache) InvalidateAll(ctx context.Context) {
	c.deleteMatching(ctx, freshPrefix+"*")
}

func (c *RedisCache) Scopes(ctx context.Context) []Scope {
	var scopes []Scope
	iter := c.client.Scan(ctx, 0, snapshotPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if scope, ok := parseScope(strings.TrimPrefix(iter.Val(), snapshotPrefix)); ok {
			scopes = append(scopes, scope)
		}
	}
	if err := iter.Err(); err != nil {
		c.log.Warn("layer cache scan failed", zap.Error(err))
	}
	return scopes
}

func (c *RedisCache) deleteMatching(ctx context.Context, pattern string) {
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.Warn("layer cache scan failed", zap.String("pattern", pattern), zap.Error(err))
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("layer cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
	}
}

// parseScope splits "org:role" at the last colon
func parseScope(s string) (Scope, bool) {
	i := strings.LastIndex(s, ":")
	if i <= 0 || i == len(s)-1 {
		return Scope{}, false
	}
	return Scope{OrgID: s[:i], Role: access.Role(s[i+1:])}, true
}
