package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRevokeExpired is returned when a revocation is requested with no time
// left to hold it.
var ErrRevokeExpired = errors.New("auth: revoke: non-positive ttl")

// Denylist records revoked token ids until they would have expired anyway.
// The caller computes ttl so issuing, verifying and revoking share one clock.
type Denylist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RedisDenylist stores revoked token ids as expiring Redis keys.
type RedisDenylist struct {
	client *redis.Client
}

// NewRedisDenylist constructs a RedisDenylist.
func NewRedisDenylist(client *redis.Client) *RedisDenylist {
	return &RedisDenylist{client: client}
}

// Revoke marks tokenID revoked for ttl. A non-positive ttl writes nothing
// and fails with ErrRevokeExpired.
func (d *RedisDenylist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" {
		return errors.New("auth: revoke: empty token id")
	}
	if ttl <= 0 {
		return ErrRevokeExpired
	}
	if err := d.client.Set(ctx, denylistKey(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("auth: revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether tokenID has been revoked.
func (d *RedisDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.client.Exists(ctx, denylistKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("auth: check revoked token: %w", err)
	}
	return n > 0, nil
}

func denylistKey(tokenID string) string {
	return "auth:revoked:" + tokenID
}

var _ Denylist = (*RedisDenylist)(nil)
