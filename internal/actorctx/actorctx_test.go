package actorctx

import (
	"context"
	"testing"

	"github.com/geocoder89/tasktracker/internal/domain/user"
	"github.com/geocoder89/tasktracker/internal/policy"
)

func TestIdentityRoundTrip(t *testing.T) {
	if IdentityFrom(context.Background()).IsAuthenticated() {
		t.Fatalf("empty context should be anonymous")
	}

	ctx := WithIdentity(context.Background(), policy.Identity{UserID: "u1", Role: user.RoleManager})

	got := IdentityFrom(ctx)
	if !got.IsManager() || got.UserID != "u1" {
		t.Fatalf("identity lost: %+v", got)
	}
}
