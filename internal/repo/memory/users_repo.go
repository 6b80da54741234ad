package memory

import (
	"context"
	"sort"

	"github.com/geocoder89/tasktracker/internal/domain/user"
)

type UsersRepo struct {
	db *DB
}

func NewUsersRepo(db *DB) *UsersRepo {
	return &UsersRepo{db: db}
}

// Create inserts u. Email uniqueness and the single-manager rule are checked
// under the write lock, so concurrent callers cannot both pass.
func (r *UsersRepo) Create(_ context.Context, u user.User) (user.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.users {
		if existing.OfficeEmail == u.OfficeEmail {
			return user.User{}, user.ErrDuplicateEmail
		}
		if u.Role == user.RoleManager && existing.Role == user.RoleManager {
			return user.User{}, user.ErrRoleConflict
		}
	}

	r.db.users[u.ID] = u
	return u, nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, u := range r.db.users {
		if u.OfficeEmail == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) GetByID(_ context.Context, id string) (user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) ManagerExists(_ context.Context) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, u := range r.db.users {
		if u.Role == user.RoleManager {
			return true, nil
		}
	}
	return false, nil
}

func (r *UsersRepo) ListByRole(_ context.Context, role user.Role) ([]user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]user.User, 0)
	for _, u := range r.db.users {
		if u.Role == role {
			out = append(out, u)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].FirstName != out[j].FirstName {
			return out[i].FirstName < out[j].FirstName
		}
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (r *UsersRepo) UpdateProfile(_ context.Context, id string, upd user.ProfileUpdate) (user.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	return r.updateLocked(id, "", upd)
}

func (r *UsersRepo) GetEmployee(_ context.Context, id string) (user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.users[id]
	if !ok || u.Role != user.RoleEmployee {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) UpdateEmployee(_ context.Context, id string, upd user.ProfileUpdate) (user.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	return r.updateLocked(id, user.RoleEmployee, upd)
}

// DeleteEmployee removes the employee and every task they own.
func (r *UsersRepo) DeleteEmployee(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok || u.Role != user.RoleEmployee {
		return user.ErrNotFound
	}

	delete(r.db.users, id)
	for tid, t := range r.db.tasks {
		if t.UserID == id {
			delete(r.db.tasks, tid)
		}
	}
	return nil
}

// updateLocked applies upd to user id; an empty role matches any role.
func (r *UsersRepo) updateLocked(id string, role user.Role, upd user.ProfileUpdate) (user.User, error) {
	u, ok := r.db.users[id]
	if !ok || (role != "" && u.Role != role) {
		return user.User{}, user.ErrNotFound
	}

	upd.Apply(&u)

	for otherID, other := range r.db.users {
		if otherID != id && other.OfficeEmail == u.OfficeEmail {
			return user.User{}, user.ErrDuplicateEmail
		}
	}

	r.db.users[id] = u
	return u, nil
}
