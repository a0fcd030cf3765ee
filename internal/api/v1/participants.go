package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/tasktrack/internal/domain"
)

type AddParticipantInput struct {
	ID   int64 `path:"id" minimum:"1" doc:"Task ID"`
	Body struct {
		UserID int64  `json:"user_id" minimum:"1" doc:"User to add"`
		Role   string `json:"role" enum:"creator,assignee,observer" doc:"Participant role"`
	}
}

type ParticipantOutput struct {
	Body *domain.Participant
}

type RemoveParticipantInput struct {
	ID     int64  `path:"id" minimum:"1" doc:"Task ID"`
	UserID int64  `path:"userID" minimum:"1" doc:"Participant user ID"`
	Role   string `query:"role" doc:"Role to remove; every non-creator role when empty"`
}

func RegisterParticipantRoutes(api huma.API, svc TaskService) {
	huma.Register(api, huma.Operation{
		OperationID: "add-participant",
		Method:      http.MethodPost,
		Path:        "/tasks/{id}/participants",
		Summary:     "Add a participant to a task",
		Tags:        []string{"Participants"},
	}, func(ctx context.Context, input *AddParticipantInput) (*ParticipantOutput, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		p, err := svc.AddParticipant(ctx, input.ID, userID, input.Body.UserID, domain.Role(input.Body.Role))
		if err != nil {
			return nil, toHTTPError(err)
		}

		return &ParticipantOutput{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "remove-participant",
		Method:      http.MethodDelete,
		Path:        "/tasks/{id}/participants/{userID}",
		Summary:     "Remove a participant role from a task",
		Tags:        []string{"Participants"},
	}, func(ctx context.Context, input *RemoveParticipantInput) (*struct{}, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		var role *domain.Role
		if input.Role != "" {
			r := domain.Role(input.Role)
			role = &r
		}

		if err := svc.RemoveParticipant(ctx, input.ID, userID, input.UserID, role); err != nil {
			return nil, toHTTPError(err)
		}

		return nil, nil
	})
}
