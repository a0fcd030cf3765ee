package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type AuditEntry struct {
	ID         uuid.UUID      `json:"id"`
	ActorID    int64          `json:"actor_id"`
	Action     string         `json:"action"`   // e.g. "task.updated", "comment.hidden"
	Resource   string         `json:"resource"` // "task", "participant", "comment"
	ResourceID int64          `json:"resource_id"`
	TaskID     int64          `json:"task_id"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// NewAuditEntry stamps an entry with a fresh id and the current time.
func NewAuditEntry(actorID int64, action, resource string, resourceID, taskID int64, details map[string]any) *AuditEntry {
	return &AuditEntry{
		ID:         uuid.New(),
		ActorID:    actorID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		TaskID:     taskID,
		Details:    details,
		CreatedAt:  time.Now().UTC(),
	}
}

type AuditRepository interface {
	Record(ctx context.Context, entry *AuditEntry) error
	// ListByTask returns a task's entries newest first.
	ListByTask(ctx context.Context, taskID int64, limit int) ([]*AuditEntry, error)
}
