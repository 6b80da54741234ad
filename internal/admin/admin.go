// Package admin lets the manager maintain employee accounts.
package admin

import (
	"context"
	"strings"

	"github.com/geocoder89/tasktracker/internal/domain/user"
	"github.com/geocoder89/tasktracker/internal/policy"
)

// EmployeeStore only ever matches users with the employee role; any other
// target is reported as user.ErrNotFound.
type EmployeeStore interface {
	ListByRole(ctx context.Context, role user.Role) ([]user.User, error)
	GetEmployee(ctx context.Context, id string) (user.User, error)
	UpdateEmployee(ctx context.Context, id string, upd user.ProfileUpdate) (user.User, error)
	DeleteEmployee(ctx context.Context, id string) error
}

type Service struct {
	employees EmployeeStore
}

func NewService(employees EmployeeStore) *Service {
	return &Service{employees: employees}
}

func authorize(id policy.Identity) error {
	return policy.Authorize(id, policy.ActionManageEmployees).Err()
}

// ListEmployees returns employees ordered by first then last name.
func (s *Service) ListEmployees(ctx context.Context, id policy.Identity) ([]user.User, error) {
	if err := authorize(id); err != nil {
		return nil, err
	}
	return s.employees.ListByRole(ctx, user.RoleEmployee)
}

func (s *Service) GetEmployee(ctx context.Context, id policy.Identity, userID string) (user.User, error) {
	if err := authorize(id); err != nil {
		return user.User{}, err
	}
	return s.employees.GetEmployee(ctx, userID)
}

// EditEmployee finds the employee first, so a manager or unknown id is
// NotFound before the submitted fields are judged.
func (s *Service) EditEmployee(ctx context.Context, id policy.Identity, userID string, req user.UpdateEmployeeRequest) (user.User, error) {
	if err := authorize(id); err != nil {
		return user.User{}, err
	}
	if _, err := s.employees.GetEmployee(ctx, userID); err != nil {
		return user.User{}, err
	}
	if strings.TrimSpace(req.OfficeEmail) == "" {
		return user.User{}, user.ErrMissingEmail
	}

	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)

	return s.employees.UpdateEmployee(ctx, userID, req.Update())
}

// DeleteEmployee removes the employee together with their tasks.
func (s *Service) DeleteEmployee(ctx context.Context, id policy.Identity, userID string) error {
	if err := authorize(id); err != nil {
		return err
	}
	return s.employees.DeleteEmployee(ctx, userID)
}
