// Package workflow is the employee-facing side of the tracker: submitting
// and maintaining one's own task records.
package workflow

import (
	"context"
	"time"

	"github.com/geocoder89/tasktracker/internal/domain/task"
	"github.com/geocoder89/tasktracker/internal/policy"
)

// TaskStore scopes every lookup by owner. A task owned by someone else is
// indistinguishable from a missing one.
type TaskStore interface {
	Create(ctx context.Context, t task.Task) (task.Task, error)
	ListByOwner(ctx context.Context, ownerID string) ([]task.Task, error)
	GetOwned(ctx context.Context, id, ownerID string) (task.Task, error)
	UpdateOwned(ctx context.Context, t task.Task) (task.Task, error)
	DeleteOwned(ctx context.Context, id, ownerID string) error
}

type Service struct {
	tasks TaskStore
	now   func() time.Time
}

func NewService(tasks TaskStore) *Service {
	return &Service{tasks: tasks, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) ListOwn(ctx context.Context, id policy.Identity) ([]task.Task, error) {
	if err := policy.Authorize(id, policy.ActionListOwnTasks).Err(); err != nil {
		return nil, err
	}
	return s.tasks.ListByOwner(ctx, id.UserID)
}

// Create stores a new task owned by the caller. The owner never comes from
// the submitted fields.
func (s *Service) Create(ctx context.Context, id policy.Identity, f task.Fields) (task.Task, error) {
	if err := policy.Authorize(id, policy.ActionSubmitTask).Err(); err != nil {
		return task.Task{}, err
	}
	if err := f.Validate(); err != nil {
		return task.Task{}, err
	}

	return s.tasks.Create(ctx, task.New(id.UserID, f, s.now()))
}

func (s *Service) Get(ctx context.Context, id policy.Identity, taskID string) (task.Task, error) {
	if err := policy.Authorize(id, policy.ActionListOwnTasks).Err(); err != nil {
		return task.Task{}, err
	}
	return s.owned(ctx, id, policy.ActionEditTask, taskID)
}

// Update resolves the caller's task before looking at the fields, so a
// foreign or missing task is NotFound whatever the body holds.
func (s *Service) Update(ctx context.Context, id policy.Identity, taskID string, f task.Fields) (task.Task, error) {
	t, err := s.owned(ctx, id, policy.ActionEditTask, taskID)
	if err != nil {
		return task.Task{}, err
	}
	if err := f.Validate(); err != nil {
		return task.Task{}, err
	}

	t.Apply(f, s.now())
	return s.tasks.UpdateOwned(ctx, t)
}

func (s *Service) Delete(ctx context.Context, id policy.Identity, taskID string) error {
	if _, err := s.owned(ctx, id, policy.ActionDeleteTask, taskID); err != nil {
		return err
	}
	return s.tasks.DeleteOwned(ctx, taskID, id.UserID)
}

// owned loads the caller's task and runs the ownership check on it.
func (s *Service) owned(ctx context.Context, id policy.Identity, action policy.Action, taskID string) (task.Task, error) {
	if !id.IsAuthenticated() {
		return task.Task{}, policy.AuthorizeTask(id, action, "").Err()
	}

	t, err := s.tasks.GetOwned(ctx, taskID, id.UserID)
	if err != nil {
		return task.Task{}, err
	}

	if err := policy.AuthorizeTask(id, action, t.UserID).Err(); err != nil {
		return task.Task{}, err
	}
	return t, nil
}
