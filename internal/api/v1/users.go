package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/tasktrack/internal/domain"
	"github.com/gosuda/tasktrack/internal/server/middleware"
)

type LogoutInput struct {
	Authorization string `header:"Authorization" doc:"Bearer access token being revoked"`
	Body          *struct {
		RefreshToken string `json:"refresh_token,omitempty" doc:"Refresh token to revoke alongside the access token"` //nolint:gosec // G117: token DTO
	} `required:"false"`
}

type GetMeOutput struct {
	Body *domain.User
}

// UserSummary is the public view of a user used by assignee and observer pickers.
type UserSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type ListUsersOutput struct {
	Body []UserSummary
}

// RegisterAccountRoutes registers the endpoints that need an authenticated
// user: logout, the current profile and the user directory.
func RegisterAccountRoutes(api huma.API, authSvc AuthService) {
	huma.Register(api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/auth/logout",
		Summary:     "Revoke the current access token",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *LogoutInput) (*struct{}, error) {
		if _, err := currentUser(ctx); err != nil {
			return nil, err
		}

		tokens := []string{middleware.BearerToken(input.Authorization)}
		if input.Body != nil {
			tokens = append(tokens, input.Body.RefreshToken)
		}

		if err := authSvc.Logout(ctx, tokens...); err != nil {
			return nil, toHTTPError(err)
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-me",
		Method:      http.MethodGet,
		Path:        "/users/me",
		Summary:     "Get the current user",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, _ *struct{}) (*GetMeOutput, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		user, err := authSvc.GetUser(ctx, userID)
		if err != nil {
			return nil, toHTTPError(err)
		}

		return &GetMeOutput{Body: user}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-users",
		Method:      http.MethodGet,
		Path:        "/users",
		Summary:     "List users",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, _ *struct{}) (*ListUsersOutput, error) {
		if _, err := currentUser(ctx); err != nil {
			return nil, err
		}

		users, err := authSvc.ListUsers(ctx)
		if err != nil {
			return nil, toHTTPError(err)
		}

		out := &ListUsersOutput{Body: make([]UserSummary, 0, len(users))}
		for _, u := range users {
			out.Body = append(out.Body, UserSummary{ID: u.ID, Name: u.Name, Email: u.Email})
		}
		return out, nil
	})
}
