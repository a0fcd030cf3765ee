package domain

import (
	"context"
	"time"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusClosed     TaskStatus = "closed"
)

// TaskStatuses governs task status changes. closed is terminal.
var TaskStatuses = NewStateMachine("task",
	[]TaskStatus{TaskStatusTodo, TaskStatusInProgress, TaskStatusDone, TaskStatusClosed},
	map[TaskStatus][]TaskStatus{
		TaskStatusTodo:       {TaskStatusInProgress, TaskStatusDone, TaskStatusClosed},
		TaskStatusInProgress: {TaskStatusTodo, TaskStatusDone, TaskStatusClosed},
		TaskStatusDone:       {TaskStatusInProgress, TaskStatusClosed},
		TaskStatusClosed:     {},
	},
)

type Task struct {
	ID           int64          `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Status       TaskStatus     `json:"status"`
	DueDate      *time.Time     `json:"due_date"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Participants []*Participant `json:"participants,omitempty"`
	Comments     []*Comment     `json:"comments,omitempty"`
}

// Creator returns the participant holding the creator role, or nil when the
// participant set is not loaded.
func (t *Task) Creator() *Participant {
	for _, p := range t.Participants {
		if p.Role == RoleCreator {
			return p
		}
	}
	return nil
}

// CreatorID returns the creator's user id.
func (t *Task) CreatorID() (int64, bool) {
	if p := t.Creator(); p != nil {
		return p.UserID, true
	}
	return 0, false
}

func (t *Task) Assignees() []*Participant {
	return t.withRole(RoleAssignee)
}

func (t *Task) Observers() []*Participant {
	return t.withRole(RoleObserver)
}

// HasParticipant reports whether userID holds any role on the task.
func (t *Task) HasParticipant(userID int64) bool {
	for _, p := range t.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// RolesOf returns every role userID holds on the task.
func (t *Task) RolesOf(userID int64) []Role {
	var roles []Role
	for _, p := range t.Participants {
		if p.UserID == userID {
			roles = append(roles, p.Role)
		}
	}
	return roles
}

func (t *Task) withRole(role Role) []*Participant {
	var out []*Participant
	for _, p := range t.Participants {
		if p.Role == role {
			out = append(out, p)
		}
	}
	return out
}

type TaskRepository interface {
	Create(ctx context.Context, t *Task) error
	GetByID(ctx context.Context, id int64) (*Task, error)
	// GetForUpdate loads the task and, inside a transaction, locks its row
	// until commit so gated writes cannot race each other.
	GetForUpdate(ctx context.Context, id int64) (*Task, error)
	// ListForUser returns every task where userID holds any role, newest
	// first, without a row cap. A nil status disables status filtering.
	ListForUser(ctx context.Context, userID int64, status *TaskStatus) ([]*Task, error)
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, id int64) error
}
