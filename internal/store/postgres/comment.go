package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/gosuda/tasktrack/internal/domain"
)

const commentColumns = `c.id, c.task_id, c.user_id, c.content, c.status, c.created_at, c.updated_at,
		        u.id, u.name, u.email, u.created_at, u.updated_at`

type CommentRepo struct {
	db DBTX
}

func NewCommentRepo(db DBTX) *CommentRepo {
	return &CommentRepo{db: db}
}

func (r *CommentRepo) Create(ctx context.Context, c *domain.Comment) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO comments (task_id, user_id, content, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		c.TaskID, c.UserID, c.Content, string(c.Status),
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("commentRepo.Create: %w", translateError(err))
	}

	return nil
}

func (r *CommentRepo) GetByID(ctx context.Context, id int64) (*domain.Comment, error) {
	return r.get(ctx,
		`SELECT `+commentColumns+`
		 FROM comments c JOIN users u ON u.id = c.user_id
		 WHERE c.id = $1`,
		id, "commentRepo.GetByID")
}

func (r *CommentRepo) GetForUpdate(ctx context.Context, id int64) (*domain.Comment, error) {
	return r.get(ctx,
		`SELECT `+commentColumns+`
		 FROM comments c JOIN users u ON u.id = c.user_id
		 WHERE c.id = $1
		 FOR UPDATE OF c`,
		id, "commentRepo.GetForUpdate")
}

func (r *CommentRepo) get(ctx context.Context, query string, id int64, caller string) (*domain.Comment, error) {
	c, err := scanComment(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", caller, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", caller, err)
	}

	return c, nil
}

func (r *CommentRepo) ListVisibleByTask(ctx context.Context, taskID int64) ([]*domain.Comment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+commentColumns+`
		 FROM comments c JOIN users u ON u.id = c.user_id
		 WHERE c.task_id = $1 AND c.status = 'visible'
		 ORDER BY c.created_at DESC, c.id DESC`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("commentRepo.ListVisibleByTask: %w", err)
	}
	defer rows.Close()

	var out []*domain.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("commentRepo.ListVisibleByTask: scan: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("commentRepo.ListVisibleByTask: rows: %w", err)
	}

	return out, nil
}

func (r *CommentRepo) Update(ctx context.Context, c *domain.Comment) error {
	err := r.db.QueryRow(ctx,
		`UPDATE comments SET content = $1, status = $2, updated_at = now()
		 WHERE id = $3
		 RETURNING updated_at`,
		c.Content, string(c.Status), c.ID,
	).Scan(&c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("commentRepo.Update: %w", domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("commentRepo.Update: %w", err)
	}

	return nil
}

func scanComment(row pgx.Row) (*domain.Comment, error) {
	var c domain.Comment
	var u domain.User

	if err := row.Scan(
		&c.ID, &c.TaskID, &c.UserID, &c.Content, &c.Status, &c.CreatedAt, &c.UpdatedAt,
		&u.ID, &u.Name, &u.Email, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.Author = &u

	return &c, nil
}
