// Package tasks implements task CRUD, participant membership and status
// changes. Every gated write re-checks membership inside the transaction that
// performs it, after locking the task row.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/tasktrack/internal/domain"
	"github.com/gosuda/tasktrack/internal/policy"
)

// DefaultActivityLimit caps Activity when the caller passes no limit.
const DefaultActivityLimit = 100

type CreateInput struct {
	Title       string
	Description string
	Status      *domain.TaskStatus // nil means todo
	DueDate     *time.Time
	AssigneeIDs []int64
	ObserverIDs []int64
}

// UpdateInput carries optional changes. A nil field is left untouched; a
// non-nil but empty id list removes every participant holding that role.
type UpdateInput struct {
	Title        *string
	Description  *string
	Status       *domain.TaskStatus
	DueDate      *time.Time
	ClearDueDate bool
	AssigneeIDs  *[]int64
	ObserverIDs  *[]int64
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

// List returns the tasks userID participates in, with participants loaded.
// A non-nil status must be a valid task status.
func (s *Service) List(ctx context.Context, userID int64, status *domain.TaskStatus) ([]*domain.Task, error) {
	if status != nil {
		if err := domain.TaskStatuses.Validate(*status); err != nil {
			return nil, fmt.Errorf("tasks.List: %w", err)
		}
	}

	list, err := s.store.Tasks().ListForUser(ctx, userID, status)
	if err != nil {
		return nil, fmt.Errorf("tasks.List: %w", err)
	}
	if len(list) == 0 {
		return list, nil
	}

	ids := make([]int64, len(list))
	for i, t := range list {
		ids[i] = t.ID
	}
	participants, err := s.store.Participants().ListByTasks(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("tasks.List: %w", err)
	}

	byTask := make(map[int64][]*domain.Participant, len(list))
	for _, p := range participants {
		byTask[p.TaskID] = append(byTask[p.TaskID], p)
	}
	for _, t := range list {
		t.Participants = byTask[t.ID]
	}

	return list, nil
}

// Get returns the task with participants and visible comments loaded. A
// missing task and one userID cannot see fail with the same error.
func (s *Service) Get(ctx context.Context, taskID, userID int64) (*domain.Task, error) {
	t, err := loadVisible(ctx, s.store, taskID, userID, false)
	if err != nil {
		return nil, fmt.Errorf("tasks.Get: %w", err)
	}

	t.Comments, err = s.store.Comments().ListVisibleByTask(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("tasks.Get: %w", err)
	}

	return t, nil
}

// Create stores the task and its creator, assignee and observer rows in one
// transaction. Repeated ids in either list are collapsed.
func (s *Service) Create(ctx context.Context, creatorID int64, in CreateInput) (*domain.Task, error) {
	if !policy.CanCreate(creatorID) {
		return nil, fmt.Errorf("tasks.Create: %w", domain.ErrUnauthorized)
	}

	status := domain.TaskStatusTodo
	if in.Status != nil {
		if err := domain.TaskStatuses.Validate(*in.Status); err != nil {
			return nil, fmt.Errorf("tasks.Create: %w", err)
		}
		status = *in.Status
	}

	t := &domain.Task{
		Title:       in.Title,
		Description: in.Description,
		Status:      status,
		DueDate:     in.DueDate,
	}

	err := s.store.WithTx(ctx, func(tx domain.Repositories) error {
		if err := tx.Tasks().Create(ctx, t); err != nil {
			return err
		}
		if err := tx.Participants().Create(ctx, &domain.Participant{
			TaskID: t.ID, UserID: creatorID, Role: domain.RoleCreator,
		}); err != nil {
			return err
		}
		if _, err := ensureRole(ctx, tx, t.ID, domain.RoleAssignee, in.AssigneeIDs); err != nil {
			return err
		}
		if _, err := ensureRole(ctx, tx, t.ID, domain.RoleObserver, in.ObserverIDs); err != nil {
			return err
		}

		var err error
		if t.Participants, err = tx.Participants().ListByTask(ctx, t.ID); err != nil {
			return err
		}

		return tx.Audit().Record(ctx, domain.NewAuditEntry(creatorID, string(domain.EventTaskCreated), "task", t.ID, t.ID,
			map[string]any{"title": t.Title, "status": t.Status}))
	})
	if err != nil {
		return nil, fmt.Errorf("tasks.Create: %w", err)
	}

	s.publish(ctx, domain.NewEvent(domain.EventTaskCreated, t.ID, creatorID, t))

	return t, nil
}

// Update applies in to the task. A status change must be allowed by the task
// state machine. Assignee and observer sets are reconciled independently and
// never touch the creator row.
func (s *Service) Update(ctx context.Context, taskID, userID int64, in UpdateInput) (*domain.Task, error) {
	var t *domain.Task

	err := s.store.WithTx(ctx, func(tx domain.Repositories) error {
		var err error
		if t, err = loadVisible(ctx, tx, taskID, userID, true); err != nil {
			return err
		}
		if !policy.CanUpdate(userID, t) {
			return domain.NotFoundOrForbidden("task")
		}

		changes := map[string]any{}

		if in.Status != nil && *in.Status != t.Status {
			next, err := domain.TaskStatuses.Transition(t.Status, *in.Status)
			if err != nil {
				return err
			}
			changes["status"] = map[string]any{"from": t.Status, "to": next}
			t.Status = next
		}
		if in.Title != nil && *in.Title != t.Title {
			changes["title"] = *in.Title
			t.Title = *in.Title
		}
		if in.Description != nil && *in.Description != t.Description {
			changes["description"] = true
			t.Description = *in.Description
		}
		switch {
		case in.ClearDueDate:
			if t.DueDate != nil {
				changes["due_date"] = nil
			}
			t.DueDate = nil
		case in.DueDate != nil:
			changes["due_date"] = *in.DueDate
			t.DueDate = in.DueDate
		}

		if err := tx.Tasks().Update(ctx, t); err != nil {
			return err
		}

		if in.AssigneeIDs != nil {
			if err := reconcileRole(ctx, tx, t.ID, domain.RoleAssignee, *in.AssigneeIDs); err != nil {
				return err
			}
			changes["assignee_ids"] = dedupe(*in.AssigneeIDs)
		}
		if in.ObserverIDs != nil {
			if err := reconcileRole(ctx, tx, t.ID, domain.RoleObserver, *in.ObserverIDs); err != nil {
				return err
			}
			changes["observer_ids"] = dedupe(*in.ObserverIDs)
		}

		if t.Participants, err = tx.Participants().ListByTask(ctx, t.ID); err != nil {
			return err
		}
		if t.Comments, err = tx.Comments().ListVisibleByTask(ctx, t.ID); err != nil {
			return err
		}

		return tx.Audit().Record(ctx, domain.NewAuditEntry(userID, string(domain.EventTaskUpdated), "task", t.ID, t.ID, changes))
	})
	if err != nil {
		return nil, fmt.Errorf("tasks.Update: %w", err)
	}

	s.publish(ctx, domain.NewEvent(domain.EventTaskUpdated, t.ID, userID, t))

	return t, nil
}

// Delete removes the task, its participants and its comments. Only the
// creator may delete; other participants get ErrForbidden.
func (s *Service) Delete(ctx context.Context, taskID, userID int64) error {
	err := s.store.WithTx(ctx, func(tx domain.Repositories) error {
		t, err := loadVisible(ctx, tx, taskID, userID, true)
		if err != nil {
			return err
		}
		if !policy.CanDelete(userID, t) {
			return domain.ErrForbidden
		}

		if err := tx.Audit().Record(ctx, domain.NewAuditEntry(userID, string(domain.EventTaskDeleted), "task", t.ID, t.ID,
			map[string]any{"title": t.Title})); err != nil {
			return err
		}

		return tx.Tasks().Delete(ctx, t.ID)
	})
	if err != nil {
		return fmt.Errorf("tasks.Delete: %w", err)
	}

	s.publish(ctx, domain.NewEvent(domain.EventTaskDeleted, taskID, userID, nil))

	return nil
}

// AddParticipant gives participantUserID the role on the task. The creator
// role is fixed at creation: re-adding the creator reports a duplicate, and
// naming anyone else fails with ErrCreatorImmutable.
func (s *Service) AddParticipant(ctx context.Context, taskID, userID, participantUserID int64, role domain.Role) (*domain.Participant, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("tasks.AddParticipant: %w", &domain.InvalidRoleError{Role: string(role)})
	}

	p := &domain.Participant{TaskID: taskID, UserID: participantUserID, Role: role}

	err := s.store.WithTx(ctx, func(tx domain.Repositories) error {
		t, err := loadVisible(ctx, tx, taskID, userID, true)
		if err != nil {
			return err
		}
		if !policy.CanUpdate(userID, t) {
			return domain.NotFoundOrForbidden("task")
		}

		if role == domain.RoleCreator {
			if creatorID, ok := t.CreatorID(); ok && creatorID == participantUserID {
				return domain.ErrDuplicateParticipant
			}
			return domain.ErrCreatorImmutable
		}

		if err := tx.Participants().Create(ctx, p); err != nil {
			return err
		}
		if p.User, err = tx.Users().GetByID(ctx, participantUserID); err != nil {
			return err
		}

		return tx.Audit().Record(ctx, domain.NewAuditEntry(userID, string(domain.EventParticipantAdded), "participant", p.ID, taskID,
			map[string]any{"user_id": participantUserID, "role": role}))
	})
	if err != nil {
		return nil, fmt.Errorf("tasks.AddParticipant: %w", err)
	}

	s.publish(ctx, domain.NewEvent(domain.EventParticipantAdded, taskID, userID, p))

	return p, nil
}

// RemoveParticipant removes one role, or every non-creator role when role is
// nil. The creator role can never be removed. Removing a role the user does
// not hold is not an error.
func (s *Service) RemoveParticipant(ctx context.Context, taskID, userID, participantUserID int64, role *domain.Role) error {
	if role != nil {
		if !role.IsValid() {
			return fmt.Errorf("tasks.RemoveParticipant: %w", &domain.InvalidRoleError{Role: string(*role)})
		}
		if *role == domain.RoleCreator {
			return fmt.Errorf("tasks.RemoveParticipant: %w", domain.ErrCreatorRemovalForbidden)
		}
	}

	var removed int64

	err := s.store.WithTx(ctx, func(tx domain.Repositories) error {
		t, err := loadVisible(ctx, tx, taskID, userID, true)
		if err != nil {
			return err
		}
		if !policy.CanUpdate(userID, t) {
			return domain.NotFoundOrForbidden("task")
		}

		if role == nil {
			if creatorID, ok := t.CreatorID(); ok && creatorID == participantUserID {
				return domain.ErrCreatorRemovalForbidden
			}
			removed, err = tx.Participants().DeleteNonCreatorRoles(ctx, taskID, participantUserID)
		} else {
			removed, err = tx.Participants().DeleteRole(ctx, taskID, participantUserID, *role)
		}
		if err != nil || removed == 0 {
			return err
		}

		details := map[string]any{"user_id": participantUserID}
		if role != nil {
			details["role"] = *role
		}
		return tx.Audit().Record(ctx, domain.NewAuditEntry(userID, string(domain.EventParticipantRemoved), "participant", participantUserID, taskID, details))
	})
	if err != nil {
		return fmt.Errorf("tasks.RemoveParticipant: %w", err)
	}

	if removed > 0 {
		payload := map[string]any{"user_id": participantUserID}
		if role != nil {
			payload["role"] = *role
		}
		s.publish(ctx, domain.NewEvent(domain.EventParticipantRemoved, taskID, userID, payload))
	}

	return nil
}

// CheckAccess reports whether userID may see the task, failing with the same
// AccessError whether the task is missing or hidden.
func (s *Service) CheckAccess(ctx context.Context, taskID, userID int64) error {
	if _, err := loadVisible(ctx, s.store, taskID, userID, false); err != nil {
		return fmt.Errorf("tasks.CheckAccess: %w", err)
	}
	return nil
}

// AvailableTransitions lists the statuses the task can move to next.
func (s *Service) AvailableTransitions(ctx context.Context, taskID, userID int64) ([]domain.TaskStatus, error) {
	t, err := loadVisible(ctx, s.store, taskID, userID, false)
	if err != nil {
		return nil, fmt.Errorf("tasks.AvailableTransitions: %w", err)
	}

	return domain.TaskStatuses.AvailableTransitions(t.Status), nil
}

// Activity returns the task's audit entries, newest first.
func (s *Service) Activity(ctx context.Context, taskID, userID int64, limit int) ([]*domain.AuditEntry, error) {
	if _, err := loadVisible(ctx, s.store, taskID, userID, false); err != nil {
		return nil, fmt.Errorf("tasks.Activity: %w", err)
	}
	if limit <= 0 {
		limit = DefaultActivityLimit
	}

	entries, err := s.store.Audit().ListByTask(ctx, taskID, limit)
	if err != nil {
		return nil, fmt.Errorf("tasks.Activity: %w", err)
	}

	return entries, nil
}

// loadVisible loads the task with participants and checks that userID may
// see it. With lock set the task row stays locked until the transaction ends.
func loadVisible(ctx context.Context, repos domain.Repositories, taskID, userID int64, lock bool) (*domain.Task, error) {
	get := repos.Tasks().GetByID
	if lock {
		get = repos.Tasks().GetForUpdate
	}

	t, err := get(ctx, taskID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFoundOrForbidden("task")
	}
	if err != nil {
		return nil, err
	}

	if t.Participants, err = repos.Participants().ListByTask(ctx, t.ID); err != nil {
		return nil, err
	}
	if !policy.CanView(userID, t) {
		return nil, domain.NotFoundOrForbidden("task")
	}

	return t, nil
}

// ensureRole grants role to every user in ids that does not already hold it.
func ensureRole(ctx context.Context, tx domain.Repositories, taskID int64, role domain.Role, ids []int64) (int, error) {
	created := 0
	for _, id := range dedupe(ids) {
		ok, err := tx.Participants().Ensure(ctx, &domain.Participant{TaskID: taskID, UserID: id, Role: role})
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// reconcileRole makes ids the exact set of users holding role on the task.
func reconcileRole(ctx context.Context, tx domain.Repositories, taskID int64, role domain.Role, ids []int64) error {
	ids = dedupe(ids)
	if _, err := tx.Participants().DeleteRoleExcept(ctx, taskID, role, ids); err != nil {
		return err
	}
	_, err := ensureRole(ctx, tx, taskID, role, ids)
	return err
}

func dedupe(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func (s *Service) publish(ctx context.Context, e *domain.Event) {
	if err := s.events.PublishEvent(ctx, e); err != nil {
		log.Warn().Err(err).
			Str("event", string(e.Type)).
			Int64("task_id", e.TaskID).
			Msg("tasks: failed to publish event")
	}
}
