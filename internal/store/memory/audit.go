package memory

import (
	"context"

	"github.com/gosuda/tasktrack/internal/domain"
)

type auditRepo struct {
	v *view
}

func (r *auditRepo) Record(_ context.Context, entry *domain.AuditEntry) error {
	return r.v.read(func(d *dataset) error {
		c := *entry
		d.audit = append(d.audit, &c)
		return nil
	})
}

func (r *auditRepo) ListByTask(_ context.Context, taskID int64, limit int) ([]*domain.AuditEntry, error) {
	var out []*domain.AuditEntry
	err := r.v.read(func(d *dataset) error {
		for i := len(d.audit) - 1; i >= 0; i-- {
			if limit > 0 && len(out) == limit {
				break
			}
			if e := d.audit[i]; e.TaskID == taskID {
				c := *e
				out = append(out, &c)
			}
		}
		return nil
	})
	return out, err
}
