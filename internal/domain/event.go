package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTaskCreated        EventType = "task.created"
	EventTaskUpdated        EventType = "task.updated"
	EventTaskDeleted        EventType = "task.deleted"
	EventParticipantAdded   EventType = "participant.added"
	EventParticipantRemoved EventType = "participant.removed"
	EventCommentCreated     EventType = "comment.created"
	EventCommentUpdated     EventType = "comment.updated"
	EventCommentHidden      EventType = "comment.hidden"
)

// Event is a notification about a committed change to a task or its comments.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Type       EventType `json:"type"`
	TaskID     int64     `json:"task_id"`
	ActorID    int64     `json:"actor_id"`
	Payload    any       `json:"payload,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewEvent(typ EventType, taskID, actorID int64, payload any) *Event {
	return &Event{
		ID:         uuid.New(),
		Type:       typ,
		TaskID:     taskID,
		ActorID:    actorID,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
}

// Encode is the wire format of events on task channels.
func (e *Event) Encode() ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", e.ID, err)
	}
	return b, nil
}

// TaskChannel names the pub/sub channel carrying a task's events.
func TaskChannel(taskID int64) string {
	return "task:" + strconv.FormatInt(taskID, 10)
}

// EventPublisher delivers events after the change they describe is committed.
type EventPublisher interface {
	PublishEvent(ctx context.Context, e *Event) error
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) PublishEvent(context.Context, *Event) error { return nil }
