package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// constraint names from internal/db/schema.sql
const (
	constraintUsersEmail    = "users_office_email_key"
	constraintSingleManager = "users_single_manager_idx"
	constraintTasksUser     = "tasks_user_id_fkey"
)

// advisory lock key serializing manager creation
const managerLockKey int64 = 0x7461736b6d677231

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}

func constraintOf(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
