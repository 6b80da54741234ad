package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/geocoder89/tasktracker/internal/domain/user"
	"github.com/geocoder89/tasktracker/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, first_name, last_name, office_email, role, is_active, is_staff, password_hash, created_at, updated_at`

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	var role string

	err := row.Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.OfficeEmail,
		&role,
		&u.IsActive,
		&u.IsStaff,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	u.Role = user.Role(role)

	return u, err
}

func mapUserWriteErr(err error) error {
	if IsUniqueViolation(err) {
		switch constraintOf(err) {
		case constraintSingleManager:
			return user.ErrRoleConflict
		case constraintUsersEmail:
			return user.ErrDuplicateEmail
		}
	}
	return err
}

// Create inserts u inside a transaction. Manager inserts first take an
// advisory lock and re-check, and the partial unique index backs that up for
// any writer that bypasses this path.
func (r *UsersRepo) Create(ctx context.Context, u user.User) (created user.User, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if u.Role == user.RoleManager {
		var exists bool

		err = r.observe("users.create.manager_check", func() error {
			if _, e := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, managerLockKey); e != nil {
				return e
			}
			return tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE role = 'manager')`).Scan(&exists)
		})
		if err != nil {
			return
		}

		if exists {
			err = user.ErrRoleConflict
			return
		}
	}

	err = r.observe("users.create.insert", func() error {
		_, e := tx.Exec(ctx,
			`INSERT INTO users (`+userColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			u.ID, u.FirstName, u.LastName, u.OfficeEmail, string(u.Role), u.IsActive, u.IsStaff, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
		)
		return e
	})
	if err != nil {
		err = mapUserWriteErr(err)
		return
	}

	if err = tx.Commit(ctx); err != nil {
		err = mapUserWriteErr(err)
		return
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_email", func() error {
		var e error
		u, e = scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE office_email = $1`, email))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_id", func() error {
		var e error
		u, e = scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) ManagerExists(ctx context.Context) (bool, error) {
	var exists bool
	err := r.observe("users.manager_exists", func() error {
		return r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE role = 'manager')`).Scan(&exists)
	})
	return exists, err
}

func (r *UsersRepo) ListByRole(ctx context.Context, role user.Role) (users []user.User, err error) {
	var rows pgx.Rows

	err = r.observe("users.list_by_role", func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx,
			`SELECT `+userColumns+`
			FROM users
			WHERE role = $1
			ORDER BY first_name ASC, last_name ASC, id ASC`,
			string(role),
		)
		return qerr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users = make([]user.User, 0)
	for rows.Next() {
		u, scanErr := scanUser(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		users = append(users, u)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return users, nil
}

func (r *UsersRepo) UpdateProfile(ctx context.Context, id string, upd user.ProfileUpdate) (user.User, error) {
	return r.update(ctx, "users.update_profile", id, "", upd)
}

func (r *UsersRepo) GetEmployee(ctx context.Context, id string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_employee", func() error {
		var e error
		u, e = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1 AND role = 'employee'`, id))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) UpdateEmployee(ctx context.Context, id string, upd user.ProfileUpdate) (user.User, error) {
	return r.update(ctx, "users.update_employee", id, user.RoleEmployee, upd)
}

// DeleteEmployee removes an employee; tasks go with it (ON DELETE CASCADE).
func (r *UsersRepo) DeleteEmployee(ctx context.Context, id string) error {
	var tag pgconn.CommandTag

	err := r.observe("users.delete_employee", func() error {
		var e error
		tag, e = r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1 AND role = 'employee'`, id)
		return e
	})
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

// update applies upd with COALESCE so nil fields keep their stored value.
// An empty role matches any role.
func (r *UsersRepo) update(ctx context.Context, op, id string, role user.Role, upd user.ProfileUpdate) (user.User, error) {
	var email *string
	if upd.OfficeEmail != nil {
		e := user.NormalizeEmail(*upd.OfficeEmail)
		email = &e
	}

	conds := []string{"id = $1"}
	args := []interface{}{id, upd.FirstName, upd.LastName, email, upd.IsActive}
	if role != "" {
		conds = append(conds, "role = $6")
		args = append(args, string(role))
	}

	var u user.User
	err := r.observe(op, func() error {
		var e error
		u, e = scanUser(r.pool.QueryRow(ctx,
			`UPDATE users
			SET first_name = COALESCE($2, first_name),
			    last_name = COALESCE($3, last_name),
			    office_email = COALESCE($4, office_email),
			    is_active = COALESCE($5, is_active),
			    updated_at = NOW()
			WHERE `+strings.Join(conds, " AND ")+`
			RETURNING `+userColumns,
			args...,
		))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, mapUserWriteErr(err)
	}
	return u, nil
}
