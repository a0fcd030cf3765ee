package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/gosuda/tasktrack/internal/domain"
)

type participantRepo struct {
	v *view
}

func (r *participantRepo) Create(_ context.Context, p *domain.Participant) error {
	return r.v.read(func(d *dataset) error {
		created, err := insertParticipant(d, p)
		if err != nil {
			return fmt.Errorf("participantRepo.Create: %w", err)
		}
		if !created {
			return fmt.Errorf("participantRepo.Create: %w", domain.ErrDuplicateParticipant)
		}
		return nil
	})
}

func (r *participantRepo) Ensure(_ context.Context, p *domain.Participant) (bool, error) {
	var created bool
	err := r.v.read(func(d *dataset) error {
		var err error
		created, err = insertParticipant(d, p)
		if err != nil {
			return fmt.Errorf("participantRepo.Ensure: %w", err)
		}
		return nil
	})
	return created, err
}

// insertParticipant enforces the same constraints as the postgres schema:
// foreign keys, the (task, user, role) key, and one creator per task.
func insertParticipant(d *dataset, p *domain.Participant) (bool, error) {
	if _, ok := d.tasks[p.TaskID]; !ok {
		return false, domain.ErrNotFound
	}
	if _, ok := d.users[p.UserID]; !ok {
		return false, domain.ErrUnknownUser
	}

	for _, existing := range d.participants {
		if existing.TaskID != p.TaskID {
			continue
		}
		if existing.UserID == p.UserID && existing.Role == p.Role {
			return false, nil
		}
		if p.Role == domain.RoleCreator && existing.Role == domain.RoleCreator {
			return false, nil
		}
	}

	d.nextParticipantID++
	p.ID = d.nextParticipantID
	p.CreatedAt = time.Now().UTC()
	d.participants[p.ID] = copyParticipant(p)
	return true, nil
}

func (r *participantRepo) ListByTask(ctx context.Context, taskID int64) ([]*domain.Participant, error) {
	return r.ListByTasks(ctx, []int64{taskID})
}

func (r *participantRepo) ListByTasks(_ context.Context, taskIDs []int64) ([]*domain.Participant, error) {
	var out []*domain.Participant
	err := r.v.read(func(d *dataset) error {
		for _, p := range d.participants {
			if !slices.Contains(taskIDs, p.TaskID) {
				continue
			}
			c := copyParticipant(p)
			if u, ok := d.users[p.UserID]; ok {
				c.User = copyUser(u)
			}
			out = append(out, c)
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *domain.Participant) int { return cmp.Compare(a.ID, b.ID) })
	return out, err
}

func (r *participantRepo) IsParticipant(_ context.Context, taskID, userID int64) (bool, error) {
	var found bool
	err := r.v.read(func(d *dataset) error {
		for _, p := range d.participants {
			if p.TaskID == taskID && p.UserID == userID {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *participantRepo) Exists(_ context.Context, taskID, userID int64, role domain.Role) (bool, error) {
	var found bool
	err := r.v.read(func(d *dataset) error {
		for _, p := range d.participants {
			if p.TaskID == taskID && p.UserID == userID && p.Role == role {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *participantRepo) DeleteRole(_ context.Context, taskID, userID int64, role domain.Role) (int64, error) {
	return r.deleteWhere(func(p *domain.Participant) bool {
		return p.TaskID == taskID && p.UserID == userID && p.Role == role
	})
}

func (r *participantRepo) DeleteNonCreatorRoles(_ context.Context, taskID, userID int64) (int64, error) {
	return r.deleteWhere(func(p *domain.Participant) bool {
		return p.TaskID == taskID && p.UserID == userID && p.Role != domain.RoleCreator
	})
}

func (r *participantRepo) DeleteRoleExcept(_ context.Context, taskID int64, role domain.Role, keep []int64) (int64, error) {
	return r.deleteWhere(func(p *domain.Participant) bool {
		return p.TaskID == taskID && p.Role == role && !slices.Contains(keep, p.UserID)
	})
}

func (r *participantRepo) deleteWhere(match func(p *domain.Participant) bool) (int64, error) {
	var n int64
	err := r.v.read(func(d *dataset) error {
		for id, p := range d.participants {
			if match(p) {
				delete(d.participants, id)
				n++
			}
		}
		return nil
	})
	return n, err
}
