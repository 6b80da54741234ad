package db

import (
	"context"
	"testing"

	"github.com/geocoder89/tasktracker/internal/config"
	"github.com/geocoder89/tasktracker/internal/domain/user"
	"github.com/geocoder89/tasktracker/internal/identity"
	"github.com/geocoder89/tasktracker/internal/repo/memory"
)

func TestEnsureManagerUser(t *testing.T) {
	users := memory.NewUsersRepo(memory.NewDB())
	ids := identity.NewService(users)
	ctx := context.Background()

	cfg := config.Config{
		ManagerEmail:     "boss@example.com",
		ManagerPassword:  "s3cret-pass",
		ManagerFirstName: "Task",
		ManagerLastName:  "Manager",
	}

	created, err := EnsureManagerUser(ctx, ids, cfg)
	if err != nil || !created {
		t.Fatalf("first seed: created=%v err=%v", created, err)
	}

	u, err := users.GetByEmail(ctx, "boss@example.com")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if u.Role != user.RoleManager || !u.IsStaff {
		t.Fatalf("unexpected seeded user: %+v", u)
	}

	// a second start, even with another address, keeps the single manager
	cfg.ManagerEmail = "other@example.com"
	created, err = EnsureManagerUser(ctx, ids, cfg)
	if err != nil || created {
		t.Fatalf("second seed: created=%v err=%v", created, err)
	}

	if created, err := EnsureManagerUser(ctx, ids, config.Config{}); err != nil || created {
		t.Fatalf("unconfigured seed: created=%v err=%v", created, err)
	}
}
