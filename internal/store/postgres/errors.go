package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gosuda/tasktrack/internal/domain"
)

// PostgreSQL error codes.
const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
)

// Constraint names from schema.sql that map to specific domain errors.
const (
	constraintParticipantRole = "task_participants_task_user_role_key"
	constraintOneCreator      = "task_participants_one_creator"
	constraintParticipantUser = "task_participants_user_fkey"
	constraintParticipantTask = "task_participants_task_fkey"
	constraintCommentUser     = "comments_user_fkey"
	constraintCommentTask     = "comments_task_fkey"
)

// translateError maps constraint violations to domain errors and returns any
// other error unchanged.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgErrUniqueViolation:
		switch pgErr.ConstraintName {
		case constraintParticipantRole, constraintOneCreator:
			return domain.ErrDuplicateParticipant
		default:
			return domain.ErrConflict
		}
	case pgErrForeignKeyViolation:
		switch pgErr.ConstraintName {
		case constraintParticipantUser, constraintCommentUser:
			return domain.ErrUnknownUser
		case constraintParticipantTask, constraintCommentTask:
			return domain.ErrNotFound
		default:
			return domain.ErrConflict
		}
	}

	return err
}
