package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"

	"github.com/gosuda/tasktrack/internal/domain"
	"github.com/gosuda/tasktrack/internal/server/middleware"
)

// Subscriber delivers raw messages published on a channel.
// *redis.PubSub and *nats.Bus satisfy this interface.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
}

// TaskAccess decides whether a user may watch a task.
// *tasks.Service satisfies this interface.
type TaskAccess interface {
	CheckAccess(ctx context.Context, taskID, userID int64) error
}

// Hub streams task events from the event bus to WebSocket clients.
type Hub struct {
	subscriber Subscriber
	access     TaskAccess
}

// NewHub creates a new WebSocket hub.
func NewHub(subscriber Subscriber, access TaskAccess) *Hub {
	return &Hub{subscriber: subscriber, access: access}
}

// ServeTask handles WebSocket connections for a single task's events.
// Subscribes to channel "task:<taskID>". Only participants may connect,
// and the stream ends once the watcher loses access or the task is deleted.
func (h *Hub) ServeTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	taskID, err := strconv.ParseInt(chi.URLParam(r, "taskID"), 10, 64)
	if err != nil || taskID <= 0 {
		http.Error(w, "invalid task id", http.StatusBadRequest)
		return
	}

	if err := h.access.CheckAccess(r.Context(), taskID, userID); err != nil {
		if errors.Is(err, domain.ErrNotFoundOrForbidden) {
			http.Error(w, "task not found or access denied", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Int64("task_id", taskID).Msg("websocket access check")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	// Clients only listen; CloseRead handles their control frames and
	// cancels ctx when they go away.
	ctx := conn.CloseRead(r.Context())

	messages, cleanup, err := h.subscriber.Subscribe(ctx, domain.TaskChannel(taskID))
	if err != nil {
		log.Error().Err(err).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}

			typ := eventType(msg)
			if typ == domain.EventParticipantRemoved || typ == domain.EventTaskUpdated {
				if accessErr := h.access.CheckAccess(ctx, taskID, userID); accessErr != nil {
					_ = conn.Close(websocket.StatusPolicyViolation, "access revoked")
					return
				}
			}

			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}

			if typ == domain.EventTaskDeleted {
				_ = conn.Close(websocket.StatusNormalClosure, "task deleted")
				return
			}
		}
	}
}

func eventType(msg []byte) domain.EventType {
	var envelope struct {
		Type domain.EventType `json:"type"`
	}
	if err := json.Unmarshal(msg, &envelope); err != nil {
		return ""
	}
	return envelope.Type
}
