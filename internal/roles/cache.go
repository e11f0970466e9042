// Package roles provides a Redis-backed TTL cache in front of the chat-role
// lookup, so repeated messages from one member do not turn into repeated
// getChatMember calls:
//
//	Key:   role:<chat_id>:<user_id>
//	Value: <role>
//	TTL:   cache duration
package roles

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/namegate/namegate/internal/exempt"
)

const (
	// RolePrefix is the Redis key prefix for cached roles.
	RolePrefix = "role:"

	// DefaultTTL is how long a cached role is trusted. Promotions and
	// demotions propagate within this window.
	DefaultTTL = 5 * time.Minute
)

// Cache wraps a RoleLookup with Redis caching. Cache failures degrade to
// the underlying lookup; they never fail the exemption decision.
type Cache struct {
	client *redis.Client
	next   exempt.RoleLookup
	ttl    time.Duration
}

// NewCache creates a role cache over next. A ttl of zero selects DefaultTTL.
func NewCache(client *redis.Client, next exempt.RoleLookup, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, next: next, ttl: ttl}
}

// MemberRole returns the cached role when present, otherwise consults the
// underlying lookup and caches its answer.
func (c *Cache) MemberRole(ctx context.Context, chatID, userID int64) (string, error) {
	key := fmt.Sprintf("%s%d:%d", RolePrefix, chatID, userID)

	role, err := c.client.Get(ctx, key).Result()
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, redis.Nil) {
		log.Printf("[roles] cache read failed for %s: %v", key, err)
	}

	role, err = c.next.MemberRole(ctx, chatID, userID)
	if err != nil {
		return "", err
	}

	if err := c.client.Set(ctx, key, role, c.ttl).Err(); err != nil {
		log.Printf("[roles] cache write failed for %s: %v", key, err)
	}
	return role, nil
}

// Invalidate drops a cached role, e.g. after the bot observes a membership
// transition for that member.
func (c *Cache) Invalidate(ctx context.Context, chatID, userID int64) error {
	key := fmt.Sprintf("%s%d:%d", RolePrefix, chatID, userID)
	return c.client.Del(ctx, key).Err()
}
