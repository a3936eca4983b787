package affiliation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is the port for resolved-set caching. Entries carry a short TTL and
// are addressed by a composite user+permission(+role filter) key; tags allow
// bulk invalidation when ownership or rules change. The engine stays correct
// with the Noop implementation wired in.
type Cache interface {
	Get(ctx context.Context, key string) (EntitySet, bool, error)
	Put(ctx context.Context, key string, set EntitySet, ttl time.Duration, tags ...string) error
	InvalidateTags(ctx context.Context, tags ...string) error
}

// CacheKey builds the composite cache key for one resolution.
func CacheKey(userID int64, permission string, filter RoleFilter) string {
	key := "affiliation:v1:u:" + strconv.FormatInt(userID, 10) + ":p:" + permission
	if canonical := filter.Canonical(); canonical != "" {
		key += ":r:" + canonical
	}
	return key
}

// TagUser is the invalidation tag touched when a user's owned characters or
// role membership change.
func TagUser(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}

// TagRules is the invalidation tag touched when any role's rule set or
// permission grants change.
const TagRules = "rules"

// NoopCache disables caching.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) (EntitySet, bool, error) { return nil, false, nil }

func (NoopCache) Put(context.Context, string, EntitySet, time.Duration, ...string) error {
	return nil
}

func (NoopCache) InvalidateTags(context.Context, ...string) error { return nil }

// RedisCache stores resolved sets in Redis. Each tag maps to a Redis set of
// member keys; invalidating a tag deletes its members and the tag itself.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache constructs a RedisCache.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

const tagKeyPrefix = "affiliation:tag:"

// Get fetches a cached resolved set.
func (c *RedisCache) Get(ctx context.Context, key string) (EntitySet, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("affiliation: cache get: %w", err)
	}
	var refs []EntityRef
	if err := json.Unmarshal(data, &refs); err != nil {
		return nil, false, fmt.Errorf("affiliation: cache decode: %w", err)
	}
	return NewEntitySet(refs...), true, nil
}

// Put stores a resolved set under the key and records it against each tag.
// Tag sets outlive their members slightly; invalidation tolerates keys that
// have already expired.
func (c *RedisCache) Put(ctx context.Context, key string, set EntitySet, ttl time.Duration, tags ...string) error {
	data, err := json.Marshal(set.Refs())
	if err != nil {
		return fmt.Errorf("affiliation: cache encode: %w", err)
	}
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, key, data, ttl)
	for _, tag := range tags {
		tagKey := tagKeyPrefix + tag
		pipe.SAdd(ctx, tagKey, key)
		pipe.Expire(ctx, tagKey, 2*ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("affiliation: cache put: %w", err)
	}
	return nil
}

// InvalidateTags removes every entry recorded under the given tags.
func (c *RedisCache) InvalidateTags(ctx context.Context, tags ...string) error {
	for _, tag := range tags {
		tagKey := tagKeyPrefix + tag
		keys, err := c.client.SMembers(ctx, tagKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("affiliation: cache members: %w", err)
		}
		keys = append(keys, tagKey)
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("affiliation: cache invalidate: %w", err)
		}
	}
	return nil
}
