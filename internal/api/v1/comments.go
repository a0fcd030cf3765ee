package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/tasktrack/internal/comments"
	"github.com/gosuda/tasktrack/internal/domain"
)

type ListCommentsOutput struct {
	Body []*domain.Comment
}

type CreateCommentInput struct {
	ID   int64 `path:"id" minimum:"1" doc:"Task ID"`
	Body struct {
		Content string `json:"content" minLength:"1" maxLength:"5000" doc:"Comment text"`
		Status  string `json:"status,omitempty" enum:"visible,hidden" doc:"Initial status (default visible)"`
	}
}

type CommentOutput struct {
	Body *domain.Comment
}

type CommentIDInput struct {
	ID int64 `path:"id" minimum:"1" doc:"Comment ID"`
}

type UpdateCommentInput struct {
	ID   int64 `path:"id" minimum:"1" doc:"Comment ID"`
	Body struct {
		Content *string `json:"content,omitempty" minLength:"1" maxLength:"5000" doc:"Comment text"`
		Status  *string `json:"status,omitempty" enum:"visible,hidden" doc:"Target status"`
	}
}

func RegisterCommentRoutes(api huma.API, svc CommentService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-comments",
		Method:      http.MethodGet,
		Path:        "/tasks/{id}/comments",
		Summary:     "List a task's visible comments",
		Tags:        []string{"Comments"},
	}, func(ctx context.Context, input *TaskIDInput) (*ListCommentsOutput, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		list, err := svc.List(ctx, input.ID, userID)
		if err != nil {
			return nil, toHTTPError(err)
		}

		return &ListCommentsOutput{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-comment",
		Method:      http.MethodPost,
		Path:        "/tasks/{id}/comments",
		Summary:     "Comment on a task",
		Tags:        []string{"Comments"},
	}, func(ctx context.Context, input *CreateCommentInput) (*CommentOutput, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		in := comments.CreateInput{Content: input.Body.Content}
		if input.Body.Status != "" {
			status := domain.CommentStatus(input.Body.Status)
			in.Status = &status
		}

		c, err := svc.Create(ctx, input.ID, userID, in)
		if err != nil {
			return nil, toHTTPError(err)
		}

		return &CommentOutput{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-comment",
		Method:      http.MethodGet,
		Path:        "/comments/{id}",
		Summary:     "Get a comment",
		Tags:        []string{"Comments"},
	}, func(ctx context.Context, input *CommentIDInput) (*CommentOutput, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		c, err := svc.Get(ctx, input.ID, userID)
		if err != nil {
			return nil, toHTTPError(err)
		}

		return &CommentOutput{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-comment",
		Method:      http.MethodPut,
		Path:        "/comments/{id}",
		Summary:     "Edit or hide/unhide a comment (author only)",
		Tags:        []string{"Comments"},
	}, func(ctx context.Context, input *UpdateCommentInput) (*CommentOutput, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		in := comments.UpdateInput{Content: input.Body.Content}
		if input.Body.Status != nil {
			status := domain.CommentStatus(*input.Body.Status)
			in.Status = &status
		}

		c, err := svc.Update(ctx, input.ID, userID, in)
		if err != nil {
			return nil, toHTTPError(err)
		}

		return &CommentOutput{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-comment",
		Method:      http.MethodDelete,
		Path:        "/comments/{id}",
		Summary:     "Hide a comment (author only)",
		Tags:        []string{"Comments"},
	}, func(ctx context.Context, input *CommentIDInput) (*struct{}, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		if err := svc.Delete(ctx, input.ID, userID); err != nil {
			return nil, toHTTPError(err)
		}

		return nil, nil
	})
}
