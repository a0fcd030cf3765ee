package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/gosuda/tasktrack/internal/domain"
)

type commentRepo struct {
	v *view
}

func (r *commentRepo) Create(_ context.Context, c *domain.Comment) error {
	return r.v.read(func(d *dataset) error {
		if _, ok := d.tasks[c.TaskID]; !ok {
			return fmt.Errorf("commentRepo.Create: %w", domain.ErrNotFound)
		}
		if _, ok := d.users[c.UserID]; !ok {
			return fmt.Errorf("commentRepo.Create: %w", domain.ErrUnknownUser)
		}

		d.nextCommentID++
		now := time.Now().UTC()
		c.ID = d.nextCommentID
		c.CreatedAt = now
		c.UpdatedAt = now
		d.comments[c.ID] = copyComment(c)
		return nil
	})
}

func (r *commentRepo) GetByID(_ context.Context, id int64) (*domain.Comment, error) {
	return r.get(id, "commentRepo.GetByID")
}

func (r *commentRepo) GetForUpdate(_ context.Context, id int64) (*domain.Comment, error) {
	return r.get(id, "commentRepo.GetForUpdate")
}

func (r *commentRepo) get(id int64, caller string) (*domain.Comment, error) {
	var out *domain.Comment
	err := r.v.read(func(d *dataset) error {
		c, ok := d.comments[id]
		if !ok {
			return fmt.Errorf("%s: %w", caller, domain.ErrNotFound)
		}
		out = withAuthor(d, c)
		return nil
	})
	return out, err
}

func (r *commentRepo) ListVisibleByTask(_ context.Context, taskID int64) ([]*domain.Comment, error) {
	var out []*domain.Comment
	err := r.v.read(func(d *dataset) error {
		for _, c := range d.comments {
			if c.TaskID == taskID && c.Status == domain.CommentStatusVisible {
				out = append(out, withAuthor(d, c))
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *domain.Comment) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, err
}

func (r *commentRepo) Update(_ context.Context, c *domain.Comment) error {
	return r.v.read(func(d *dataset) error {
		existing, ok := d.comments[c.ID]
		if !ok {
			return fmt.Errorf("commentRepo.Update: %w", domain.ErrNotFound)
		}

		existing.Content = c.Content
		existing.Status = c.Status
		existing.UpdatedAt = time.Now().UTC()
		c.UpdatedAt = existing.UpdatedAt
		return nil
	})
}

func withAuthor(d *dataset, c *domain.Comment) *domain.Comment {
	out := copyComment(c)
	if u, ok := d.users[c.UserID]; ok {
		out.Author = copyUser(u)
	}
	return out
}
