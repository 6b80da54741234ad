// Package reporting backs the manager's dashboard and CSV export.
package reporting

import (
	"context"
	"io"

	"github.com/geocoder89/tasktracker/internal/domain/task"
	"github.com/geocoder89/tasktracker/internal/domain/user"
	"github.com/geocoder89/tasktracker/internal/observability"
	"github.com/geocoder89/tasktracker/internal/policy"
)

type TaskLister interface {
	List(ctx context.Context, f task.Filter) ([]task.Entry, error)
}

type EmployeeLister interface {
	ListByRole(ctx context.Context, role user.Role) ([]user.User, error)
}

type Service struct {
	tasks     TaskLister
	employees EmployeeLister
	prom      *observability.Prom
}

// NewService accepts a nil prom.
func NewService(tasks TaskLister, employees EmployeeLister, prom *observability.Prom) *Service {
	return &Service{tasks: tasks, employees: employees, prom: prom}
}

// ListAll returns every task matching f, newest date first.
func (s *Service) ListAll(ctx context.Context, id policy.Identity, f task.Filter) ([]task.Entry, error) {
	if err := policy.Authorize(id, policy.ActionViewDashboard).Err(); err != nil {
		return nil, err
	}

	entries, err := s.tasks.List(ctx, f)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].StatusLabel = entries[i].Status.Label()
	}
	return entries, nil
}

// ExportCSV writes the same rows ListAll would return. Nothing is written
// when the caller is not allowed to export.
func (s *Service) ExportCSV(ctx context.Context, id policy.Identity, f task.Filter, w io.Writer) (int, error) {
	if err := policy.Authorize(id, policy.ActionExportTasks).Err(); err != nil {
		return 0, err
	}

	entries, err := s.tasks.List(ctx, f)
	if err != nil {
		return 0, err
	}

	if err := WriteCSV(w, entries); err != nil {
		return 0, err
	}

	s.prom.ObserveExport(len(entries))
	return len(entries), nil
}

// Employees lists the dashboard's employee filter choices.
func (s *Service) Employees(ctx context.Context, id policy.Identity) ([]user.User, error) {
	if err := policy.Authorize(id, policy.ActionViewDashboard).Err(); err != nil {
		return nil, err
	}
	return s.employees.ListByRole(ctx, user.RoleEmployee)
}
