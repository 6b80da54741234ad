// Package actorctx carries the authenticated caller on a context.Context so
// code below the HTTP layer can see who is acting. The log handler stamps
// every record with it.
package actorctx

import (
	"context"

	"github.com/geocoder89/tasktracker/internal/policy"
)

type ctxKey struct{}

func WithIdentity(ctx context.Context, id policy.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFrom returns the zero (anonymous) identity when none was set.
func IdentityFrom(ctx context.Context) policy.Identity {
	id, _ := ctx.Value(ctxKey{}).(policy.Identity)
	return id
}
