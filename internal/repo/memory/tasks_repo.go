package memory

import (
	"context"
	"sort"

	"github.com/geocoder89/tasktracker/internal/domain/task"
)

type TasksRepo struct {
	db *DB
}

func NewTasksRepo(db *DB) *TasksRepo {
	return &TasksRepo{db: db}
}

func (r *TasksRepo) Create(_ context.Context, t task.Task) (task.Task, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[t.UserID]; !ok {
		// mirrors the foreign key on tasks.user_id
		return task.Task{}, task.ErrNotFound
	}

	r.db.tasks[t.ID] = t
	return t, nil
}

func (r *TasksRepo) ListByOwner(_ context.Context, ownerID string) ([]task.Task, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]task.Task, 0)
	for _, t := range r.db.tasks {
		if t.UserID == ownerID {
			out = append(out, t)
		}
	}
	sortNewestFirst(out, func(i int) task.Task { return out[i] })

	return out, nil
}

func (r *TasksRepo) GetOwned(_ context.Context, id, ownerID string) (task.Task, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	t, ok := r.db.tasks[id]
	if !ok || t.UserID != ownerID {
		return task.Task{}, task.ErrNotFound
	}
	return t, nil
}

func (r *TasksRepo) UpdateOwned(_ context.Context, t task.Task) (task.Task, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	existing, ok := r.db.tasks[t.ID]
	if !ok || existing.UserID != t.UserID {
		return task.Task{}, task.ErrNotFound
	}

	t.CreatedAt = existing.CreatedAt
	r.db.tasks[t.ID] = t
	return t, nil
}

func (r *TasksRepo) DeleteOwned(_ context.Context, id, ownerID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	t, ok := r.db.tasks[id]
	if !ok || t.UserID != ownerID {
		return task.ErrNotFound
	}

	delete(r.db.tasks, id)
	return nil
}

// List returns every task matching f, joined with its owner's name.
func (r *TasksRepo) List(_ context.Context, f task.Filter) ([]task.Entry, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]task.Entry, 0)
	for _, t := range r.db.tasks {
		if !f.Matches(t) {
			continue
		}
		owner := r.db.users[t.UserID]
		out = append(out, task.Entry{
			Task:              t,
			EmployeeFirstName: owner.FirstName,
			EmployeeLastName:  owner.LastName,
		})
	}
	sortNewestFirst(out, func(i int) task.Task { return out[i].Task })

	return out, nil
}

// newest date first, then newest created, then id for a stable order
func sortNewestFirst[T any](items []T, at func(int) task.Task) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := at(i), at(j)
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}
