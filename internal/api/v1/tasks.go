package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/tasktrack/internal/domain"
	"github.com/gosuda/tasktrack/internal/tasks"
)

type CreateTaskInput struct {
	Body struct {
		Title       string     `json:"title" minLength:"1" maxLength:"255" doc:"Task title"`
		Description string     `json:"description" doc:"Task description"`
		Status      string     `json:"status,omitempty" enum:"todo,in_progress,done,closed" doc:"Initial status (default todo)"`
		DueDate     *time.Time `json:"due_date,omitempty" doc:"Optional due date"`
		AssigneeIDs []int64    `json:"assignee_ids,omitempty" doc:"Users to assign"`
		ObserverIDs []int64    `json:"observer_ids,omitempty" doc:"Users to notify"`
	}
}

// TaskView adds the role projections of the participant set to a task.
type TaskView struct {
	*domain.Task
	Creator   *domain.Participant   `json:"creator,omitempty" doc:"Participant holding the creator role"`
	Assignees []*domain.Participant `json:"assignees" doc:"Participants holding the assignee role"`
	Observers []*domain.Participant `json:"observers" doc:"Participants holding the observer role"`
	Roles     []domain.Role         `json:"roles" doc:"Roles the current user holds on the task"`
}

func newTaskView(t *domain.Task, userID int64) *TaskView {
	v := &TaskView{
		Task:      t,
		Creator:   t.Creator(),
		Assignees: t.Assignees(),
		Observers: t.Observers(),
		Roles:     t.RolesOf(userID),
	}
	if v.Roles == nil {
		v.Roles = []domain.Role{}
	}
	if v.Assignees == nil {
		v.Assignees = []*domain.Participant{}
	}
	if v.Observers == nil {
		v.Observers = []*domain.Participant{}
	}
	return v
}

type TaskOutput struct {
	Body *TaskView
}

type ListTasksInput struct {
	Status string `query:"status" doc:"Filter by status"`
}

type ListTasksOutput struct {
	Body []*TaskView
}

type TaskIDInput struct {
	ID int64 `path:"id" minimum:"1" doc:"Task ID"`
}

type UpdateTaskInput struct {
	ID   int64 `path:"id" minimum:"1" doc:"Task ID"`
	Body struct {
		Title        *string    `json:"title,omitempty" minLength:"1" maxLength:"255" doc:"Task title"`
		Description  *string    `json:"description,omitempty" doc:"Task description"`
		Status       *string    `json:"status,omitempty" enum:"todo,in_progress,done,closed" doc:"Target status"`
		DueDate      *time.Time `json:"due_date,omitempty" doc:"New due date"`
		ClearDueDate bool       `json:"clear_due_date,omitempty" doc:"Remove the due date"`
		AssigneeIDs  []int64    `json:"assignee_ids,omitempty" doc:"Replaces the assignee set when present; [] removes all"`
		ObserverIDs  []int64    `json:"observer_ids,omitempty" doc:"Replaces the observer set when present; [] removes all"`
	}
}

type TransitionsOutput struct {
	Body struct {
		Transitions []domain.TaskStatus `json:"transitions"`
	}
}

type ActivityInput struct {
	ID    int64 `path:"id" minimum:"1" doc:"Task ID"`
	Limit int   `query:"limit" minimum:"0" maximum:"500" doc:"Maximum entries (default 100)"`
}

type ActivityOutput struct {
	Body []*domain.AuditEntry
}

func RegisterTaskRoutes(api huma.API, svc TaskService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-task",
		Method:      http.MethodPost,
		Path:        "/tasks",
		Summary:     "Create a new task",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *CreateTaskInput) (*TaskOutput, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		in := tasks.CreateInput{
			Title:       input.Body.Title,
			Description: input.Body.Description,
			DueDate:     input.Body.DueDate,
			AssigneeIDs: input.Body.AssigneeIDs,
			ObserverIDs: input.Body.ObserverIDs,
		}
		if input.Body.Status != "" {
			status := domain.TaskStatus(input.Body.Status)
			in.Status = &status
		}

		t, err := svc.Create(ctx, userID, in)
		if err != nil {
			return nil, toHTTPError(err)
		}

		return &TaskOutput{Body: newTaskView(t, userID)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks",
		Summary:     "List tasks the current user participates in",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *ListTasksInput) (*ListTasksOutput, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		var status *domain.TaskStatus
		if input.Status != "" {
			s := domain.TaskStatus(input.Status)
			status = &s
		}

		list, err := svc.List(ctx, userID, status)
		if err != nil {
			return nil, toHTTPError(err)
		}

		views := make([]*TaskView, len(list))
		for i, t := range list {
			views[i] = newTaskView(t, userID)
		}

		return &ListTasksOutput{Body: views}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/tasks/{id}",
		Summary:     "Get a task with participants and visible comments",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *TaskIDInput) (*TaskOutput, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		t, err := svc.Get(ctx, input.ID, userID)
		if err != nil {
			return nil, toHTTPError(err)
		}

		return &TaskOutput{Body: newTaskView(t, userID)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPut,
		Path:        "/tasks/{id}",
		Summary:     "Update a task",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *UpdateTaskInput) (*TaskOutput, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		in := tasks.UpdateInput{
			Title:        input.Body.Title,
			Description:  input.Body.Description,
			DueDate:      input.Body.DueDate,
			ClearDueDate: input.Body.ClearDueDate,
		}
		if input.Body.Status != nil {
			status := domain.TaskStatus(*input.Body.Status)
			in.Status = &status
		}
		// A present but empty list is distinct from an absent one.
		if input.Body.AssigneeIDs != nil {
			in.AssigneeIDs = &input.Body.AssigneeIDs
		}
		if input.Body.ObserverIDs != nil {
			in.ObserverIDs = &input.Body.ObserverIDs
		}

		t, err := svc.Update(ctx, input.ID, userID, in)
		if err != nil {
			return nil, toHTTPError(err)
		}

		return &TaskOutput{Body: newTaskView(t, userID)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-task",
		Method:      http.MethodDelete,
		Path:        "/tasks/{id}",
		Summary:     "Delete a task (creator only)",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *TaskIDInput) (*struct{}, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		if err := svc.Delete(ctx, input.ID, userID); err != nil {
			return nil, toHTTPError(err)
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-task-transitions",
		Method:      http.MethodGet,
		Path:        "/tasks/{id}/transitions",
		Summary:     "List statuses the task can move to",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *TaskIDInput) (*TransitionsOutput, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		transitions, err := svc.AvailableTransitions(ctx, input.ID, userID)
		if err != nil {
			return nil, toHTTPError(err)
		}

		out := &TransitionsOutput{}
		out.Body.Transitions = transitions
		if out.Body.Transitions == nil {
			out.Body.Transitions = []domain.TaskStatus{}
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-task-activity",
		Method:      http.MethodGet,
		Path:        "/tasks/{id}/activity",
		Summary:     "List a task's audit trail, newest first",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *ActivityInput) (*ActivityOutput, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		entries, err := svc.Activity(ctx, input.ID, userID, input.Limit)
		if err != nil {
			return nil, toHTTPError(err)
		}

		return &ActivityOutput{Body: entries}, nil
	})
}
