// Package comments implements comment CRUD scoped to task membership.
// Deleting a comment hides it; only its author may change it.
package comments

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/tasktrack/internal/domain"
	"github.com/gosuda/tasktrack/internal/policy"
)

type CreateInput struct {
	Content string
	Status  *domain.CommentStatus // nil means visible
}

type UpdateInput struct {
	Content *string
	Status  *domain.CommentStatus
}

type Service struct {
	store  domain.Store
	events domain.EventPublisher
}

func NewService(store domain.Store, events domain.EventPublisher) *Service {
	if events == nil {
		events = domain.NopPublisher{}
	}
	return &Service{store: store, events: events}
}

// List returns the task's visible comments, newest first, authors loaded.
func (s *Service) List(ctx context.Context, taskID, userID int64) ([]*domain.Comment, error) {
	if err := requireMember(ctx, s.store, taskID, userID, "task"); err != nil {
		return nil, fmt.Errorf("comments.List: %w", err)
	}

	list, err := s.store.Comments().ListVisibleByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("comments.List: %w", err)
	}

	return list, nil
}

// Get returns a comment on a task userID participates in. A missing comment
// fails with ErrNotFound; one on a foreign task looks like it does not exist.
func (s *Service) Get(ctx context.Context, commentID, userID int64) (*domain.Comment, error) {
	c, err := s.store.Comments().GetByID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("comments.Get: %w", err)
	}

	if err := requireMember(ctx, s.store, c.TaskID, userID, "comment"); err != nil {
		return nil, fmt.Errorf("comments.Get: %w", err)
	}

	return c, nil
}

// Create adds a comment authored by userID. The task and author always come
// from the caller, never from the input.
func (s *Service) Create(ctx context.Context, taskID, userID int64, in CreateInput) (*domain.Comment, error) {
	status := domain.CommentStatusVisible
	if in.Status != nil {
		if err := domain.CommentStatuses.Validate(*in.Status); err != nil {
			return nil, fmt.Errorf("comments.Create: %w", err)
		}
		status = *in.Status
	}

	c := &domain.Comment{
		TaskID:  taskID,
		UserID:  userID,
		Content: in.Content,
		Status:  status,
	}

	err := s.store.WithTx(ctx, func(tx domain.Repositories) error {
		if _, err := tx.Tasks().GetForUpdate(ctx, taskID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NotFoundOrForbidden("task")
			}
			return err
		}
		if err := requireMember(ctx, tx, taskID, userID, "task"); err != nil {
			return err
		}

		if err := tx.Comments().Create(ctx, c); err != nil {
			return err
		}

		var err error
		if c.Author, err = tx.Users().GetByID(ctx, userID); err != nil {
			return err
		}

		return tx.Audit().Record(ctx, domain.NewAuditEntry(userID, string(domain.EventCommentCreated), "comment", c.ID, taskID, nil))
	})
	if err != nil {
		return nil, fmt.Errorf("comments.Create: %w", err)
	}

	s.publish(ctx, domain.NewEvent(domain.EventCommentCreated, taskID, userID, c))

	return c, nil
}

// Update edits content and status. Only the author may update, and a status
// change must be allowed by the comment state machine.
func (s *Service) Update(ctx context.Context, commentID, userID int64, in UpdateInput) (*domain.Comment, error) {
	var (
		c       *domain.Comment
		hidden  bool
		changed bool
	)

	err := s.store.WithTx(ctx, func(tx domain.Repositories) error {
		var err error
		if c, err = loadOwned(ctx, tx, commentID, userID); err != nil {
			return err
		}

		changes := map[string]any{}

		if in.Status != nil && *in.Status != c.Status {
			next, err := domain.CommentStatuses.Transition(c.Status, *in.Status)
			if err != nil {
				return err
			}
			changes["status"] = map[string]any{"from": c.Status, "to": next}
			hidden = next == domain.CommentStatusHidden
			c.Status = next
		}
		if in.Content != nil && *in.Content != c.Content {
			changes["content"] = true
			c.Content = *in.Content
		}

		if len(changes) == 0 {
			return nil
		}
		if err := tx.Comments().Update(ctx, c); err != nil {
			return err
		}
		changed = true

		return tx.Audit().Record(ctx, domain.NewAuditEntry(userID, string(domain.EventCommentUpdated), "comment", c.ID, c.TaskID, changes))
	})
	if err != nil {
		return nil, fmt.Errorf("comments.Update: %w", err)
	}

	if changed {
		typ := domain.EventCommentUpdated
		if hidden {
			typ = domain.EventCommentHidden
		}
		s.publish(ctx, domain.NewEvent(typ, c.TaskID, userID, c))
	}

	return c, nil
}

// Delete hides the comment. Hiding an already hidden comment does nothing.
func (s *Service) Delete(ctx context.Context, commentID, userID int64) error {
	var c *domain.Comment
	changed := false

	err := s.store.WithTx(ctx, func(tx domain.Repositories) error {
		var err error
		if c, err = loadOwned(ctx, tx, commentID, userID); err != nil {
			return err
		}
		if c.Status == domain.CommentStatusHidden {
			return nil
		}

		from := c.Status
		if c.Status, err = domain.CommentStatuses.Transition(c.Status, domain.CommentStatusHidden); err != nil {
			return err
		}
		if err := tx.Comments().Update(ctx, c); err != nil {
			return err
		}
		changed = true

		return tx.Audit().Record(ctx, domain.NewAuditEntry(userID, string(domain.EventCommentHidden), "comment", c.ID, c.TaskID,
			map[string]any{"status": map[string]any{"from": from, "to": c.Status}}))
	})
	if err != nil {
		return fmt.Errorf("comments.Delete: %w", err)
	}

	if changed {
		s.publish(ctx, domain.NewEvent(domain.EventCommentHidden, c.TaskID, userID, c))
	}

	return nil
}

// loadOwned locks the comment and checks that userID wrote it.
func loadOwned(ctx context.Context, tx domain.Repositories, commentID, userID int64) (*domain.Comment, error) {
	c, err := tx.Comments().GetForUpdate(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if !policy.CanModifyComment(userID, c) {
		return nil, domain.ErrNotOwner
	}
	return c, nil
}

// requireMember fails with an access error for resource unless userID holds
// a role on the task.
func requireMember(ctx context.Context, repos domain.Repositories, taskID, userID int64, resource string) error {
	ok, err := repos.Participants().IsParticipant(ctx, taskID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NotFoundOrForbidden(resource)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, e *domain.Event) {
	if err := s.events.PublishEvent(ctx, e); err != nil {
		log.Warn().Err(err).
			Str("event", string(e.Type)).
			Int64("task_id", e.TaskID).
			Msg("comments: failed to publish event")
	}
}
