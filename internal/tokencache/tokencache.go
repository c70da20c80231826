// Package tokencache tracks live refresh tokens and revoked tokens in Redis.
//
// The cache entry is the sole authority for "this refresh token is still
// live": a valid signature alone is not enough. Entries expire together
// with the tokens they describe, so Redis eviction does the cleanup.
package tokencache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	refreshKeyPrefix   = "refresh_token:"
	blacklistKeyPrefix = "blacklist:"
)

type Cache struct {
	client *redis.Client
}

func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// SaveRefreshToken stores the issued refresh token with the given ttl
// Writing the same (userID, token) pair again overwrites the entry
func (c *Cache) SaveRefreshToken(ctx context.Context, userID string, token string, ttl time.Duration) error {
	err := c.client.Set(ctx, refreshKey(userID, token), userID, ttl).Err()
	if err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}

	return nil
}

// GetRefreshToken returns the stored value for the (userID, token) pair
// Absence (expired, revoked or never written) returns empty string, not an error
// Store unavailability is an error: verification must fail closed, not open
func (c *Cache) GetRefreshToken(ctx context.Context, userID string, token string) (string, error) {
	value, err := c.client.Get(ctx, refreshKey(userID, token)).Result()

	switch {
	case err == nil:
		return value, nil
	case errors.Is(err, redis.Nil):
		return "", nil
	default:
		return "", fmt.Errorf("cache get error: %w", err)
	}
}

// DeleteRefreshToken invalidates the token explicitly (logout or rotation)
func (c *Cache) DeleteRefreshToken(ctx context.Context, userID string, token string) error {
	err := c.client.Del(ctx, refreshKey(userID, token)).Err()
	if err != nil {
		return fmt.Errorf("cache delete error: %w", err)
	}

	return nil
}

// AddToBlacklist marks the token revoked
// ttl must equal the token's remaining validity so the entry self-expires
// exactly when the token would anyway
func (c *Cache) AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error {
	err := c.client.Set(ctx, blacklistKeyPrefix+token, "1", ttl).Err()
	if err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}

	return nil
}

func (c *Cache) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	n, err := c.client.Exists(ctx, blacklistKeyPrefix+token).Result()
	if err != nil {
		return false, fmt.Errorf("cache exists error: %w", err)
	}

	return n == 1, nil
}

// Ping checks the Redis connection
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func refreshKey(userID string, token string) string {
	return refreshKeyPrefix + userID + ":" + token
}
