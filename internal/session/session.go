// Package session tracks signed session tokens that were ended before
// their expiry (logout). Tokens themselves are stateless JWTs.
package session

import (
	"context"
	"time"
)

// Revoker remembers revoked token ids until the token would have expired.
type Revoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
