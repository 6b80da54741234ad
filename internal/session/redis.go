package session

import (
	"context"
	"time"

	"github.com/geocoder89/tasktracker/internal/redisclient"
)

type RedisRevoker struct {
	client *redisclient.Client
}

func NewRedisRevoker(client *redisclient.Client) *RedisRevoker {
	return &RedisRevoker{client: client}
}

func (r *RedisRevoker) key(jti string) string {
	return r.client.Key("session", "revoked", jti)
}

func (r *RedisRevoker) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return r.client.Raw().Set(ctx, r.key(jti), "1", ttl).Err()
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Raw().Exists(ctx, r.key(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
