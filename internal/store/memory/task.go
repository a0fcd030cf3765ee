package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/gosuda/tasktrack/internal/domain"
)

type taskRepo struct {
	v *view
}

func (r *taskRepo) Create(_ context.Context, t *domain.Task) error {
	return r.v.read(func(d *dataset) error {
		d.nextTaskID++
		now := time.Now().UTC()
		t.ID = d.nextTaskID
		t.CreatedAt = now
		t.UpdatedAt = now
		d.tasks[t.ID] = copyTask(t)
		return nil
	})
}

func (r *taskRepo) GetByID(_ context.Context, id int64) (*domain.Task, error) {
	return r.get(id, "taskRepo.GetByID")
}

// GetForUpdate needs no extra locking: transactions already hold the store lock.
func (r *taskRepo) GetForUpdate(_ context.Context, id int64) (*domain.Task, error) {
	return r.get(id, "taskRepo.GetForUpdate")
}

func (r *taskRepo) get(id int64, caller string) (*domain.Task, error) {
	var out *domain.Task
	err := r.v.read(func(d *dataset) error {
		t, ok := d.tasks[id]
		if !ok {
			return fmt.Errorf("%s: %w", caller, domain.ErrNotFound)
		}
		out = copyTask(t)
		return nil
	})
	return out, err
}

func (r *taskRepo) ListForUser(_ context.Context, userID int64, status *domain.TaskStatus) ([]*domain.Task, error) {
	var out []*domain.Task
	err := r.v.read(func(d *dataset) error {
		member := make(map[int64]struct{})
		for _, p := range d.participants {
			if p.UserID == userID {
				member[p.TaskID] = struct{}{}
			}
		}

		for id := range member {
			t, ok := d.tasks[id]
			if !ok {
				continue
			}
			if status != nil && t.Status != *status {
				continue
			}
			out = append(out, copyTask(t))
		}
		return nil
	})

	// Newest first, matching the postgres ordering.
	slices.SortFunc(out, func(a, b *domain.Task) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, err
}

func (r *taskRepo) Update(_ context.Context, t *domain.Task) error {
	return r.v.read(func(d *dataset) error {
		existing, ok := d.tasks[t.ID]
		if !ok {
			return fmt.Errorf("taskRepo.Update: %w", domain.ErrNotFound)
		}

		t.CreatedAt = existing.CreatedAt
		t.UpdatedAt = time.Now().UTC()
		d.tasks[t.ID] = copyTask(t)
		return nil
	})
}

// Delete removes the task together with its participants and comments.
func (r *taskRepo) Delete(_ context.Context, id int64) error {
	return r.v.read(func(d *dataset) error {
		if _, ok := d.tasks[id]; !ok {
			return fmt.Errorf("taskRepo.Delete: %w", domain.ErrNotFound)
		}

		delete(d.tasks, id)
		for pid, p := range d.participants {
			if p.TaskID == id {
				delete(d.participants, pid)
			}
		}
		for cid, c := range d.comments {
			if c.TaskID == id {
				delete(d.comments, cid)
			}
		}
		return nil
	})
}
