package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/gosuda/tasktrack/internal/domain"
)

const taskColumns = `t.id, t.title, t.description, t.status, t.due_date, t.created_at, t.updated_at`

// listForUserQuery returns every task the user holds a role on. It is not
// paged: the memory store returns the same unbounded set.
const listForUserQuery = `SELECT ` + taskColumns + `
	FROM tasks t
	WHERE EXISTS (
	    SELECT 1 FROM task_participants p WHERE p.task_id = t.id AND p.user_id = $1
	)
	AND ($2::text IS NULL OR t.status = $2)
	ORDER BY t.created_at DESC, t.id DESC`

type TaskRepo struct {
	db DBTX
}

func NewTaskRepo(db DBTX) *TaskRepo {
	return &TaskRepo{db: db}
}

func (r *TaskRepo) Create(ctx context.Context, t *domain.Task) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO tasks (title, description, status, due_date)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		t.Title, t.Description, string(t.Status), t.DueDate,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("taskRepo.Create: %w", translateError(err))
	}

	return nil
}

func (r *TaskRepo) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	return r.get(ctx, `SELECT `+taskColumns+` FROM tasks t WHERE t.id = $1`, id, "taskRepo.GetByID")
}

func (r *TaskRepo) GetForUpdate(ctx context.Context, id int64) (*domain.Task, error) {
	return r.get(ctx, `SELECT `+taskColumns+` FROM tasks t WHERE t.id = $1 FOR UPDATE`, id, "taskRepo.GetForUpdate")
}

func (r *TaskRepo) get(ctx context.Context, query string, id int64, caller string) (*domain.Task, error) {
	var t domain.Task

	err := r.db.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.Title, &t.Description, &t.Status, &t.DueDate, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", caller, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", caller, err)
	}

	return &t, nil
}

func (r *TaskRepo) ListForUser(ctx context.Context, userID int64, status *domain.TaskStatus) ([]*domain.Task, error) {
	var statusFilter *string
	if status != nil {
		s := string(*status)
		statusFilter = &s
	}

	rows, err := r.db.Query(ctx, listForUserQuery, userID, statusFilter)
	if err != nil {
		return nil, fmt.Errorf("taskRepo.ListForUser: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows, "taskRepo.ListForUser")
}

func (r *TaskRepo) Update(ctx context.Context, t *domain.Task) error {
	err := r.db.QueryRow(ctx,
		`UPDATE tasks SET title = $1, description = $2, status = $3, due_date = $4, updated_at = now()
		 WHERE id = $5
		 RETURNING updated_at`,
		t.Title, t.Description, string(t.Status), t.DueDate, t.ID,
	).Scan(&t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("taskRepo.Update: %w", domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("taskRepo.Update: %w", err)
	}

	return nil
}

// Delete removes the task. Participants and comments go with it through
// ON DELETE CASCADE.
func (r *TaskRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("taskRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("taskRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func scanTasks(rows pgx.Rows, caller string) ([]*domain.Task, error) {
	var tasks []*domain.Task
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(
			&t.ID, &t.Title, &t.Description, &t.Status, &t.DueDate, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		tasks = append(tasks, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return tasks, nil
}
