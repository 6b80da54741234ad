package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/tasktracker/internal/domain/task"
	"github.com/geocoder89/tasktracker/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `t.id, t.user_id, t.date, t.priority, t.district, t.module, t.task, t.details,
	t.target_date, t.status, t.live, t.tested, t.completed_date, t.comments, t.created_at, t.updated_at`

// newest date first; ties broken so pages stay stable
const taskOrder = ` ORDER BY t.date DESC, t.created_at DESC, t.id DESC`

type TasksRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewTasksRepo(pool *pgxpool.Pool, prom *observability.Prom) *TasksRepo {
	return &TasksRepo{pool: pool, prom: prom}
}

func (r *TasksRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func taskScanTargets(t *task.Task, status *string) []interface{} {
	return []interface{}{
		&t.ID, &t.UserID, &t.Date, &t.Priority, &t.District, &t.Module, &t.Title, &t.Details,
		&t.TargetDate, status, &t.Live, &t.Tested, &t.CompletedDate, &t.Comments, &t.CreatedAt, &t.UpdatedAt,
	}
}

func scanTask(row pgx.Row) (task.Task, error) {
	var t task.Task
	var status string

	err := row.Scan(taskScanTargets(&t, &status)...)
	t.Status = task.Status(status)

	return t, err
}

func (r *TasksRepo) Create(ctx context.Context, t task.Task) (task.Task, error) {
	err := r.observe("tasks.create", func() error {
		_, e := r.pool.Exec(ctx,
			`INSERT INTO tasks (id, user_id, date, priority, district, module, task, details,
				target_date, status, live, tested, completed_date, comments, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
			t.ID, t.UserID, t.Date, t.Priority, t.District, t.Module, t.Title, t.Details,
			t.TargetDate, string(t.Status), t.Live, t.Tested, t.CompletedDate, t.Comments, t.CreatedAt, t.UpdatedAt,
		)
		return e
	})

	if err != nil {
		// the owner was deleted between authentication and insert
		if isForeignKeyViolation(err) && constraintOf(err) == constraintTasksUser {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, err
	}

	return t, nil
}

func (r *TasksRepo) ListByOwner(ctx context.Context, ownerID string) ([]task.Task, error) {
	var rows pgx.Rows

	err := r.observe("tasks.list_by_owner", func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks t WHERE t.user_id = $1`+taskOrder, ownerID)
		return qerr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]task.Task, 0)
	for rows.Next() {
		t, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, t)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// GetOwned is scoped by owner: a task owned by someone else is not found.
func (r *TasksRepo) GetOwned(ctx context.Context, id, ownerID string) (task.Task, error) {
	var t task.Task

	err := r.observe("tasks.get_owned", func() error {
		var e error
		t, e = scanTask(r.pool.QueryRow(ctx,
			`SELECT `+taskColumns+` FROM tasks t WHERE t.id = $1 AND t.user_id = $2`, id, ownerID))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, err
	}
	return t, nil
}

func (r *TasksRepo) UpdateOwned(ctx context.Context, t task.Task) (task.Task, error) {
	var out task.Task

	err := r.observe("tasks.update_owned", func() error {
		var e error
		out, e = scanTask(r.pool.QueryRow(ctx,
			`UPDATE tasks t
			SET date = $3,
			    priority = $4,
			    district = $5,
			    module = $6,
			    task = $7,
			    details = $8,
			    target_date = $9,
			    status = $10,
			    live = $11,
			    tested = $12,
			    completed_date = $13,
			    comments = $14,
			    updated_at = NOW()
			WHERE t.id = $1 AND t.user_id = $2
			RETURNING `+taskColumns,
			t.ID, t.UserID, t.Date, t.Priority, t.District, t.Module, t.Title, t.Details,
			t.TargetDate, string(t.Status), t.Live, t.Tested, t.CompletedDate, t.Comments,
		))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, err
	}
	return out, nil
}

func (r *TasksRepo) DeleteOwned(ctx context.Context, id, ownerID string) error {
	var tag pgconn.CommandTag

	err := r.observe("tasks.delete_owned", func() error {
		var e error
		tag, e = r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, ownerID)
		return e
	})
	if err != nil {
		return err
	}

	// if no rows were deleted the task is gone or belongs to someone else
	if tag.RowsAffected() == 0 {
		return task.ErrNotFound
	}
	return nil
}

// List returns the cross-user view. Filters are optional and ANDed.
func (r *TasksRepo) List(ctx context.Context, f task.Filter) ([]task.Entry, error) {
	query := `SELECT ` + taskColumns + `, u.first_name, u.last_name
	FROM tasks t
	JOIN users u ON u.id = t.user_id`

	var conds []string
	var args []interface{}

	argsPosition := 1

	if f.Date != nil {
		conds = append(conds, fmt.Sprintf("t.date = $%d", argsPosition))
		args = append(args, *f.Date)
		argsPosition++
	}

	if f.EmployeeID != nil {
		conds = append(conds, fmt.Sprintf("t.user_id = $%d", argsPosition))
		args = append(args, *f.EmployeeID)
		argsPosition++
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += taskOrder

	var rows pgx.Rows
	err := r.observe("tasks.list", func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx, query, args...)
		return qerr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]task.Entry, 0)
	for rows.Next() {
		var e task.Entry
		var status string

		targets := append(taskScanTargets(&e.Task, &status), &e.EmployeeFirstName, &e.EmployeeLastName)
		if scanErr := rows.Scan(targets...); scanErr != nil {
			return nil, scanErr
		}
		e.Status = task.Status(status)
		out = append(out, e)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
