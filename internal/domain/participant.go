package domain

import (
	"context"
	"time"
)

type Role string

const (
	RoleCreator  Role = "creator"
	RoleAssignee Role = "assignee"
	RoleObserver Role = "observer"
)

// IsValid reports whether r is one of the three participant roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleCreator, RoleAssignee, RoleObserver:
		return true
	default:
		return false
	}
}

// Participant is one (task, user, role) assignment. A user may hold several
// different roles on a task but never the same role twice.
type Participant struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"task_id"`
	UserID    int64     `json:"user_id"`
	Role      Role      `json:"role"`
	User      *User     `json:"user,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ParticipantRepository interface {
	// Create inserts p and fails with ErrDuplicateParticipant when the
	// (task, user, role) triple already exists.
	Create(ctx context.Context, p *Participant) error
	// Ensure inserts p unless the triple already exists. It reports whether a
	// row was created.
	Ensure(ctx context.Context, p *Participant) (bool, error)
	ListByTask(ctx context.Context, taskID int64) ([]*Participant, error)
	ListByTasks(ctx context.Context, taskIDs []int64) ([]*Participant, error)
	IsParticipant(ctx context.Context, taskID, userID int64) (bool, error)
	Exists(ctx context.Context, taskID, userID int64, role Role) (bool, error)
	DeleteRole(ctx context.Context, taskID, userID int64, role Role) (int64, error)
	// DeleteNonCreatorRoles removes every role userID holds on the task except creator.
	DeleteNonCreatorRoles(ctx context.Context, taskID, userID int64) (int64, error)
	// DeleteRoleExcept removes all rows with the given role whose user is not in keep.
	DeleteRoleExcept(ctx context.Context, taskID int64, role Role, keep []int64) (int64, error)
}
