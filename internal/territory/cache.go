package territory

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const scopeKeyPrefix = "territory:scope:"

// RedisScopeCache keeps resolved scopes in Redis as JSON.
type RedisScopeCache struct {
	client *redis.Client
}

func NewRedisScopeCache(client *redis.Client) *RedisScopeCache {
	return &RedisScopeCache{client: client}
}

func scopeKey(userID uuid.UUID) string {
	return scopeKeyPrefix + userID.String()
}

func (c *RedisScopeCache) Get(ctx context.Context, userID uuid.UUID) (Scope, bool, error) {
	raw, err := c.client.Get(ctx, scopeKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Scope{}, false, nil
	}
	if err != nil {
		return Scope{}, false, err
	}

	var scope Scope
	if err := json.Unmarshal(raw, &scope); err != nil {
		return Scope{}, false, err
	}
	if scope.Pincodes == nil {
		scope.Pincodes = []string{}
	}
	return scope, true, nil
}

func (c *RedisScopeCache) Set(ctx context.Context, userID uuid.UUID, scope Scope, ttl time.Duration) error {
	raw, err := json.Marshal(scope)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, scopeKey(userID), raw, ttl).Err()
}

func (c *RedisScopeCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	return c.client.Del(ctx, scopeKey(userID)).Err()
}

var _ ScopeCache = (*RedisScopeCache)(nil)
