package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/gosuda/tasktrack/internal/domain"
)

type userRepo struct {
	v *view
}

func (r *userRepo) Create(_ context.Context, u *domain.User) error {
	return r.v.read(func(d *dataset) error {
		for _, existing := range d.users {
			if existing.Email == u.Email {
				return fmt.Errorf("userRepo.Create: %w", domain.ErrConflict)
			}
		}

		d.nextUserID++
		now := time.Now().UTC()
		u.ID = d.nextUserID
		u.CreatedAt = now
		u.UpdatedAt = now
		d.users[u.ID] = copyUser(u)
		return nil
	})
}

func (r *userRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	var out *domain.User
	err := r.v.read(func(d *dataset) error {
		u, ok := d.users[id]
		if !ok {
			return fmt.Errorf("userRepo.GetByID: %w", domain.ErrNotFound)
		}
		out = copyUser(u)
		return nil
	})
	return out, err
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	var out *domain.User
	err := r.v.read(func(d *dataset) error {
		for _, u := range d.users {
			if u.Email == email {
				out = copyUser(u)
				return nil
			}
		}
		return fmt.Errorf("userRepo.GetByEmail: %w", domain.ErrNotFound)
	})
	return out, err
}

func (r *userRepo) List(_ context.Context) ([]*domain.User, error) {
	var out []*domain.User
	err := r.v.read(func(d *dataset) error {
		out = make([]*domain.User, 0, len(d.users))
		for _, u := range d.users {
			out = append(out, copyUser(u))
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *domain.User) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, err
}
