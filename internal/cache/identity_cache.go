package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"clinic_backend/internal/models"

	"github.com/redis/go-redis/v9"
)

const identityKeyPrefix = "clinic:identity:"

// IdentityCache keeps resolved identities keyed by verified email.
// A nil *IdentityCache is valid and always misses.
type IdentityCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdentityCache(client *redis.Client, ttl time.Duration) *IdentityCache {
	if client == nil {
		return nil
	}
	return &IdentityCache{client: client, ttl: ttl}
}

func identityKey(email string) string {
	return identityKeyPrefix + strings.ToLower(strings.TrimSpace(email))
}

// Get returns (nil, false, nil) on a miss.
func (c *IdentityCache) Get(ctx context.Context, email string) (*models.Identity, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, identityKey(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get identity from cache: %w", err)
	}
	var identity models.Identity
	if err := json.Unmarshal(raw, &identity); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached identity: %w", err)
	}
	return &identity, true, nil
}

func (c *IdentityCache) Set(ctx context.Context, identity *models.Identity) error {
	if c == nil || identity == nil {
		return nil
	}
	raw, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}
	if err := c.client.Set(ctx, identityKey(identity.Email), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set identity in cache: %w", err)
	}
	return nil
}

func (c *IdentityCache) Invalidate(ctx context.Context, email string) error {
	if c == nil {
		return nil
	}
	if err := c.client.Del(ctx, identityKey(email)).Err(); err != nil {
		return fmt.Errorf("failed to delete identity from cache: %w", err)
	}
	return nil
}
