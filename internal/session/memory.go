package session

import (
	"context"
	"time"

	"github.com/geocoder89/tasktracker/internal/cache"
)

// MemoryRevoker keeps the revocation list in process. It is used when no
// Redis address is configured and in tests. Entries outlive their token by
// at most the sweep interval.
const revokeSweepEvery = 10 * time.Minute

type MemoryRevoker struct {
	c *cache.Cache
}

func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{c: cache.New(revokeSweepEvery)}
}

func (r *MemoryRevoker) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// already expired, the signature check rejects it anyway
		return nil
	}
	r.c.Set(jti, struct{}{}, ttl)
	return nil
}

func (r *MemoryRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	_, ok := r.c.Get(jti)
	return ok, nil
}
