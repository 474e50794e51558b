package storage

import (
	"context"
	"time"

	redisx "github.com/vkmindia80/Unified/service/storage/redis"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Redis-side presence cache. The persisted presence record in Mongo stays
// authoritative; this cache only answers cheap "is the user reachable right
// now" lookups. Keys expire so a crashed gateway cannot leave users online
// forever.

func presenceKey(user string) string { return "unified:presence:" + user }

type PresenceCache struct {
	ttl time.Duration
}

func NewPresenceCache(ttl time.Duration) *PresenceCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &PresenceCache{ttl: ttl}
}

// Online marks the user reachable via the given gateway node and renews TTL.
func (p *PresenceCache) Online(ctx context.Context, user, gatewayID string) error {
	return redisx.GetRedis().Set(ctx, presenceKey(user), gatewayID, p.ttl).Err()
}

// Offline removes the cache entry.
func (p *PresenceCache) Offline(ctx context.Context, user string) error {
	return redisx.GetRedis().Del(ctx, presenceKey(user)).Err()
}

// Lookup returns the gateway node holding the user's connections, if any.
func (p *PresenceCache) Lookup(ctx context.Context, user string) (gatewayID string, online bool, err error) {
	val, err := redisx.GetRedis().Get(ctx, presenceKey(user)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "presence lookup")
	}
	return val, true, nil
}
