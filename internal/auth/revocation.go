package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedPrefix = "blacklist:access:"

// Revocations is a Redis-backed list of access tokens that must no longer be accepted.
// A nil *Revocations, or one without a client, accepts every token.
type Revocations struct {
	client *redis.Client
}

func NewRevocations(c *redis.Client) *Revocations {
	return &Revocations{client: c}
}

// Revoke stores the token with the given TTL; ttl should cover the token's remaining lifetime.
func (r *Revocations) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Set(ctx, revokedPrefix+token, "1", ttl).Err()
}

func (r *Revocations) IsRevoked(ctx context.Context, token string) (bool, error) {
	if r == nil || r.client == nil {
		return false, nil
	}
	n, err := r.client.Exists(ctx, revokedPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
