package domain

import (
	"context"
	"time"
)

type CommentStatus string

const (
	CommentStatusVisible CommentStatus = "visible"
	CommentStatusHidden  CommentStatus = "hidden"
)

// CommentStatuses governs comment visibility. Hidden comments can be restored.
var CommentStatuses = NewStateMachine("comment",
	[]CommentStatus{CommentStatusVisible, CommentStatusHidden},
	map[CommentStatus][]CommentStatus{
		CommentStatusVisible: {CommentStatusHidden},
		CommentStatusHidden:  {CommentStatusVisible},
	},
)

type Comment struct {
	ID        int64         `json:"id"`
	TaskID    int64         `json:"task_id"`
	UserID    int64         `json:"user_id"`
	Content   string        `json:"content"`
	Status    CommentStatus `json:"status"`
	Author    *User         `json:"user,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type CommentRepository interface {
	Create(ctx context.Context, c *Comment) error
	GetByID(ctx context.Context, id int64) (*Comment, error)
	GetForUpdate(ctx context.Context, id int64) (*Comment, error)
	// ListVisibleByTask returns visible comments, newest first, authors loaded.
	ListVisibleByTask(ctx context.Context, taskID int64) ([]*Comment, error)
	Update(ctx context.Context, c *Comment) error
}
