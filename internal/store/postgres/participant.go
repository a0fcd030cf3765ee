package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/gosuda/tasktrack/internal/domain"
)

type ParticipantRepo struct {
	db DBTX
}

func NewParticipantRepo(db DBTX) *ParticipantRepo {
	return &ParticipantRepo{db: db}
}

func (r *ParticipantRepo) Create(ctx context.Context, p *domain.Participant) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO task_participants (task_id, user_id, role)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		p.TaskID, p.UserID, string(p.Role),
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("participantRepo.Create: %w", translateError(err))
	}

	return nil
}

func (r *ParticipantRepo) Ensure(ctx context.Context, p *domain.Participant) (bool, error) {
	err := r.db.QueryRow(ctx,
		`INSERT INTO task_participants (task_id, user_id, role)
		 VALUES ($1, $2, $3)
		 ON CONFLICT DO NOTHING
		 RETURNING id, created_at`,
		p.TaskID, p.UserID, string(p.Role),
	).Scan(&p.ID, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("participantRepo.Ensure: %w", translateError(err))
	}

	return true, nil
}

func (r *ParticipantRepo) ListByTask(ctx context.Context, taskID int64) ([]*domain.Participant, error) {
	return r.list(ctx, []int64{taskID}, "participantRepo.ListByTask")
}

func (r *ParticipantRepo) ListByTasks(ctx context.Context, taskIDs []int64) ([]*domain.Participant, error) {
	if len(taskIDs) == 0 {
		return nil, nil
	}
	return r.list(ctx, taskIDs, "participantRepo.ListByTasks")
}

func (r *ParticipantRepo) list(ctx context.Context, taskIDs []int64, caller string) ([]*domain.Participant, error) {
	rows, err := r.db.Query(ctx,
		`SELECT p.id, p.task_id, p.user_id, p.role, p.created_at,
		        u.id, u.name, u.email, u.created_at, u.updated_at
		 FROM task_participants p
		 JOIN users u ON u.id = p.user_id
		 WHERE p.task_id = ANY($1)
		 ORDER BY p.id`,
		taskIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", caller, err)
	}
	defer rows.Close()

	var out []*domain.Participant
	for rows.Next() {
		var p domain.Participant
		var u domain.User

		if err := rows.Scan(
			&p.ID, &p.TaskID, &p.UserID, &p.Role, &p.CreatedAt,
			&u.ID, &u.Name, &u.Email, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		p.User = &u
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return out, nil
}

func (r *ParticipantRepo) IsParticipant(ctx context.Context, taskID, userID int64) (bool, error) {
	var ok bool

	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM task_participants WHERE task_id = $1 AND user_id = $2)`,
		taskID, userID,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("participantRepo.IsParticipant: %w", err)
	}

	return ok, nil
}

func (r *ParticipantRepo) Exists(ctx context.Context, taskID, userID int64, role domain.Role) (bool, error) {
	var ok bool

	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM task_participants WHERE task_id = $1 AND user_id = $2 AND role = $3)`,
		taskID, userID, string(role),
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("participantRepo.Exists: %w", err)
	}

	return ok, nil
}

func (r *ParticipantRepo) DeleteRole(ctx context.Context, taskID, userID int64, role domain.Role) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM task_participants WHERE task_id = $1 AND user_id = $2 AND role = $3`,
		taskID, userID, string(role),
	)
	if err != nil {
		return 0, fmt.Errorf("participantRepo.DeleteRole: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *ParticipantRepo) DeleteNonCreatorRoles(ctx context.Context, taskID, userID int64) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM task_participants WHERE task_id = $1 AND user_id = $2 AND role <> 'creator'`,
		taskID, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("participantRepo.DeleteNonCreatorRoles: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *ParticipantRepo) DeleteRoleExcept(ctx context.Context, taskID int64, role domain.Role, keep []int64) (int64, error) {
	// A nil slice encodes as NULL, which would make the predicate match nothing.
	if keep == nil {
		keep = []int64{}
	}

	tag, err := r.db.Exec(ctx,
		`DELETE FROM task_participants
		 WHERE task_id = $1 AND role = $2 AND NOT (user_id = ANY($3))`,
		taskID, string(role), keep,
	)
	if err != nil {
		return 0, fmt.Errorf("participantRepo.DeleteRoleExcept: %w", err)
	}

	return tag.RowsAffected(), nil
}
