package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenDenylist records revoked token ids until the tokens would have
// expired anyway.
type TokenDenylist struct {
	client *redis.Client
}

func NewTokenDenylist(client *redis.Client) *TokenDenylist {
	return &TokenDenylist{client: client}
}

func (d *TokenDenylist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	if err := d.client.Set(ctx, DenylistKey(jti), 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis.TokenDenylist.Revoke: %w", err)
	}
	return nil
}

func (d *TokenDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := d.client.Exists(ctx, DenylistKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("redis.TokenDenylist.IsRevoked: %w", err)
	}
	return n > 0, nil
}

// DenylistKey returns the Redis key marking a token id as revoked.
func DenylistKey(jti string) string {
	return "revoked:" + jti
}
