package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/tasktracker/internal/config"
	"github.com/geocoder89/tasktracker/internal/domain/user"
	"github.com/geocoder89/tasktracker/internal/identity"
)

// ManagerRegistrar is the slice of the identity service the seed needs.
type ManagerRegistrar interface {
	CreateManagerAccount(ctx context.Context, in identity.Signup) (user.User, error)
}

// EnsureManagerUser creates the configured manager account on first start.
// An existing manager (or the configured email already taken) is left alone.
func EnsureManagerUser(ctx context.Context, reg ManagerRegistrar, cfg config.Config) (bool, error) {
	if cfg.ManagerEmail == "" || cfg.ManagerPassword == "" {
		return false, nil
	}

	_, err := reg.CreateManagerAccount(ctx, identity.Signup{
		OfficeEmail: cfg.ManagerEmail,
		Password:    cfg.ManagerPassword,
		FirstName:   cfg.ManagerFirstName,
		LastName:    cfg.ManagerLastName,
		IsStaff:     true,
	})

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, user.ErrRoleConflict), errors.Is(err, user.ErrDuplicateEmail):
		return false, nil
	default:
		return false, fmt.Errorf("seed manager: %w", err)
	}
}
