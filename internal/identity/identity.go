// Package identity registers accounts and verifies credentials.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/tasktracker/internal/domain/user"
	"github.com/geocoder89/tasktracker/internal/policy"
	"github.com/geocoder89/tasktracker/internal/security"
)

// ErrInvalidCredentials is returned for every failed login, whatever the
// cause, so callers cannot tell unknown accounts from wrong passwords.
var ErrInvalidCredentials = errors.New("invalid email or password")

type UserStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	UpdateProfile(ctx context.Context, id string, upd user.ProfileUpdate) (user.User, error)
	ManagerExists(ctx context.Context) (bool, error)
}

// Signup is the input for a new account. Password is the raw secret and is
// only ever hashed.
type Signup struct {
	OfficeEmail string
	Password    string
	FirstName   string
	LastName    string
	Role        user.Role
	IsStaff     bool
}

type Service struct {
	users UserStore
	hash  func(string) (string, error)
}

func NewService(users UserStore) *Service {
	return &Service{users: users, hash: security.HashPassword}
}

// CreateUser normalizes the email, hashes the password and stores the user.
// The store enforces email uniqueness and the single-manager rule.
func (s *Service) CreateUser(ctx context.Context, in Signup) (user.User, error) {
	email := user.NormalizeEmail(in.OfficeEmail)
	if email == "" {
		return user.User{}, user.ErrMissingEmail
	}

	if !in.Role.IsValid() {
		return user.User{}, fmt.Errorf("unknown role %q", in.Role)
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}

	u := user.New(user.NewAccount{
		OfficeEmail:  email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Role:         in.Role,
		IsStaff:      in.IsStaff,
	})

	return s.users.Create(ctx, u)
}

// CreateManagerAccount fails with user.ErrRoleConflict when a manager exists.
func (s *Service) CreateManagerAccount(ctx context.Context, in Signup) (user.User, error) {
	in.Role = user.RoleManager
	return s.CreateUser(ctx, in)
}

// Register dispatches a registration form by requested role.
func (s *Service) Register(ctx context.Context, req user.RegisterRequest) (user.User, error) {
	in := Signup{
		OfficeEmail: req.OfficeEmail,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Role:        req.Role,
	}

	switch req.Role {
	case user.RoleManager:
		return s.CreateManagerAccount(ctx, in)
	case user.RoleEmployee:
		return s.CreateUser(ctx, in)
	default:
		return user.User{}, fmt.Errorf("unknown role %q", req.Role)
	}
}

// RegistrableRoles lists the roles a new account may still pick. The manager
// role disappears once a manager exists.
func (s *Service) RegistrableRoles(ctx context.Context) ([]user.Role, error) {
	taken, err := s.users.ManagerExists(ctx)
	if err != nil {
		return nil, err
	}
	if taken {
		return []user.Role{user.RoleEmployee}, nil
	}
	return []user.Role{user.RoleEmployee, user.RoleManager}, nil
}

// Authenticate resolves credentials to an identity.
func (s *Service) Authenticate(ctx context.Context, email, password string) (policy.Identity, error) {
	u, err := s.users.GetByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			security.BurnCompare(password)
			return policy.Identity{}, ErrInvalidCredentials
		}
		return policy.Identity{}, err
	}

	if err := security.CheckPassword(u.PasswordHash, password); err != nil {
		return policy.Identity{}, ErrInvalidCredentials
	}

	if !u.IsActive {
		return policy.Identity{}, ErrInvalidCredentials
	}

	return IdentityOf(u), nil
}

func IdentityOf(u user.User) policy.Identity {
	return policy.Identity{UserID: u.ID, Email: u.OfficeEmail, Role: u.Role}
}

func (s *Service) Profile(ctx context.Context, id policy.Identity) (user.User, error) {
	if err := policy.Authorize(id, policy.ActionEditProfile).Err(); err != nil {
		return user.User{}, err
	}
	return s.users.GetByID(ctx, id.UserID)
}

func (s *Service) UpdateProfile(ctx context.Context, id policy.Identity, req user.UpdateProfileRequest) (user.User, error) {
	if err := policy.Authorize(id, policy.ActionEditProfile).Err(); err != nil {
		return user.User{}, err
	}
	return s.users.UpdateProfile(ctx, id.UserID, req.Update())
}
