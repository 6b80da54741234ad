package user

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleEmployee, RoleManager:
		return true
	default:
		return false
	}
}

type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	OfficeEmail  string    `json:"officeEmail"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"isActive"`
	IsStaff      bool      `json:"isStaff"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u User) String() string {
	return u.FirstName + " " + u.LastName + " (" + u.OfficeEmail + ")"
}

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("office email already in use")
	ErrMissingEmail   = errors.New("office email is required")
	// only one account may hold the manager role
	ErrRoleConflict = errors.New("a manager account already exists")
)

// NormalizeEmail trims the address and lowercases its domain part.
// The local part is left untouched.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)

	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}

	return email[:at+1] + strings.ToLower(email[at+1:])
}

// NewAccount is the store-facing shape of a user about to be created.
type NewAccount struct {
	OfficeEmail  string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         Role
	IsStaff      bool
}

func New(a NewAccount) User {
	now := time.Now().UTC()

	return User{
		ID:           uuid.NewString(),
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		OfficeEmail:  a.OfficeEmail,
		Role:         a.Role,
		IsActive:     true,
		IsStaff:      a.IsStaff,
		PasswordHash: a.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Changes applied to an existing user. Nil fields are left as they are.
type ProfileUpdate struct {
	FirstName   *string
	LastName    *string
	OfficeEmail *string
	IsActive    *bool
}

func (p ProfileUpdate) Apply(u *User) {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.OfficeEmail != nil {
		u.OfficeEmail = NormalizeEmail(*p.OfficeEmail)
	}
	if p.IsActive != nil {
		u.IsActive = *p.IsActive
	}
	u.UpdatedAt = time.Now().UTC()
}

type RegisterRequest struct {
	FirstName       string `json:"firstName" binding:"required,max=30"`
	LastName        string `json:"lastName" binding:"required,max=30"`
	OfficeEmail     string `json:"officeEmail" binding:"required,email"`
	Role            Role   `json:"role" binding:"required,oneof=employee manager"`
	Password        string `json:"password" binding:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required,eqfield=Password"`
}

type LoginRequest struct {
	OfficeEmail string `json:"officeEmail" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	FirstName string `json:"firstName" binding:"required,max=30"`
	LastName  string `json:"lastName" binding:"required,max=30"`
}

func (r UpdateProfileRequest) Update() ProfileUpdate {
	return ProfileUpdate{FirstName: &r.FirstName, LastName: &r.LastName}
}

type UpdateEmployeeRequest struct {
	FirstName   string `json:"firstName" binding:"required,max=30"`
	LastName    string `json:"lastName" binding:"required,max=30"`
	OfficeEmail string `json:"officeEmail" binding:"required,email"`
	IsActive    *bool  `json:"isActive"`
}

func (r UpdateEmployeeRequest) Update() ProfileUpdate {
	return ProfileUpdate{
		FirstName:   &r.FirstName,
		LastName:    &r.LastName,
		OfficeEmail: &r.OfficeEmail,
		IsActive:    r.IsActive,
	}
}
