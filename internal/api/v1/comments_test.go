package v1_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/gosuda/tasktrack/internal/api/v1"
	"github.com/gosuda/tasktrack/internal/comments"
	"github.com/gosuda/tasktrack/internal/domain"
)

// ---------------------------------------------------------------------------
// GET/POST /tasks/{id}/comments
// ---------------------------------------------------------------------------

func TestListComments(t *testing.T) {
	t.Parallel()

	_, api := humatest.New(t)
	svc := &mockCommentService{
		listFunc: func(_ context.Context, taskID, userID int64) ([]*domain.Comment, error) {
			assert.Equal(t, int64(10), taskID)
			assert.Equal(t, int64(2), userID)
			return []*domain.Comment{
				{ID: 2, TaskID: 10, UserID: 2, Content: "second", Status: domain.CommentStatusVisible},
				{ID: 1, TaskID: 10, UserID: 1, Content: "first", Status: domain.CommentStatusVisible},
			}, nil
		},
	}
	v1.RegisterCommentRoutes(api, svc)

	resp := api.GetCtx(userCtx(2), "/tasks/10/comments")

	require.Equal(t, http.StatusOK, resp.Code)
	var body []domain.Comment
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body, 2)
	assert.Equal(t, "second", body[0].Content)
}

func TestCreateComment(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockCommentService{
			createFunc: func(_ context.Context, taskID, userID int64, in comments.CreateInput) (*domain.Comment, error) {
				assert.Equal(t, int64(10), taskID)
				assert.Equal(t, int64(3), userID)
				assert.Equal(t, "looks good", in.Content)
				assert.Nil(t, in.Status)
				return &domain.Comment{ID: 1, TaskID: taskID, UserID: userID, Content: in.Content, Status: domain.CommentStatusVisible}, nil
			},
		}
		v1.RegisterCommentRoutes(api, svc)

		resp := api.PostCtx(userCtx(3), "/tasks/10/comments", map[string]any{"content": "looks good"})

		require.Equal(t, http.StatusOK, resp.Code)
		var body domain.Comment
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, domain.CommentStatusVisible, body.Status)
	})

	t.Run("explicit_status", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockCommentService{
			createFunc: func(_ context.Context, _, _ int64, in comments.CreateInput) (*domain.Comment, error) {
				require.NotNil(t, in.Status)
				assert.Equal(t, domain.CommentStatusHidden, *in.Status)
				return &domain.Comment{ID: 1, Status: domain.CommentStatusHidden}, nil
			},
		}
		v1.RegisterCommentRoutes(api, svc)

		resp := api.PostCtx(userCtx(3), "/tasks/10/comments", map[string]any{"content": "draft", "status": "hidden"})

		assert.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("content_bounds", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name    string
			content string
		}{
			{name: "empty", content: ""},
			{name: "too_long", content: strings.Repeat("a", 5001)},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				_, api := humatest.New(t)
				v1.RegisterCommentRoutes(api, &mockCommentService{})

				resp := api.PostCtx(userCtx(3), "/tasks/10/comments", map[string]any{"content": tt.content})

				assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
			})
		}
	})

	t.Run("max_length_accepted", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockCommentService{
			createFunc: func(_ context.Context, _, _ int64, in comments.CreateInput) (*domain.Comment, error) {
				return &domain.Comment{ID: 1, Content: in.Content}, nil
			},
		}
		v1.RegisterCommentRoutes(api, svc)

		resp := api.PostCtx(userCtx(3), "/tasks/10/comments", map[string]any{"content": strings.Repeat("a", 5000)})

		assert.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("non_member_is_404", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockCommentService{
			createFunc: func(context.Context, int64, int64, comments.CreateInput) (*domain.Comment, error) {
				return nil, fmt.Errorf("comments.Create: %w", domain.NotFoundOrForbidden("task"))
			},
		}
		v1.RegisterCommentRoutes(api, svc)

		resp := api.PostCtx(userCtx(5), "/tasks/10/comments", map[string]any{"content": "hi"})

		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.Equal(t, "task not found or access denied", decodeDetail(t, resp.Body))
	})
}

// ---------------------------------------------------------------------------
// /comments/{id}
// ---------------------------------------------------------------------------

func TestGetComment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{name: "foreign_task", err: domain.NotFoundOrForbidden("comment"), wantStatus: http.StatusNotFound, wantDetail: "comment not found or access denied"},
		{name: "missing", err: domain.ErrNotFound, wantStatus: http.StatusNotFound, wantDetail: "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, api := humatest.New(t)
			svc := &mockCommentService{
				getFunc: func(context.Context, int64, int64) (*domain.Comment, error) {
					return nil, fmt.Errorf("comments.Get: %w", tt.err)
				},
			}
			v1.RegisterCommentRoutes(api, svc)

			resp := api.GetCtx(userCtx(5), "/comments/7")

			assert.Equal(t, tt.wantStatus, resp.Code)
			assert.Equal(t, tt.wantDetail, decodeDetail(t, resp.Body))
		})
	}
}

func TestUpdateComment(t *testing.T) {
	t.Parallel()

	t.Run("maps_fields", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockCommentService{
			updateFunc: func(_ context.Context, commentID, userID int64, in comments.UpdateInput) (*domain.Comment, error) {
				assert.Equal(t, int64(7), commentID)
				assert.Equal(t, int64(2), userID)
				assert.Nil(t, in.Content)
				require.NotNil(t, in.Status)
				assert.Equal(t, domain.CommentStatusHidden, *in.Status)
				return &domain.Comment{ID: 7, Status: domain.CommentStatusHidden}, nil
			},
		}
		v1.RegisterCommentRoutes(api, svc)

		resp := api.PutCtx(userCtx(2), "/comments/7", map[string]any{"status": "hidden"})

		assert.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("not_owner_is_403", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockCommentService{
			updateFunc: func(context.Context, int64, int64, comments.UpdateInput) (*domain.Comment, error) {
				return nil, fmt.Errorf("comments.Update: %w", domain.ErrNotOwner)
			},
		}
		v1.RegisterCommentRoutes(api, svc)

		resp := api.PutCtx(userCtx(3), "/comments/7", map[string]any{"content": "edited"})

		assert.Equal(t, http.StatusForbidden, resp.Code)
		assert.Equal(t, "not the owner", decodeDetail(t, resp.Body))
	})
}

func TestDeleteComment(t *testing.T) {
	t.Parallel()

	var called bool
	_, api := humatest.New(t)
	svc := &mockCommentService{
		deleteFunc: func(_ context.Context, commentID, userID int64) error {
			called = true
			assert.Equal(t, int64(7), commentID)
			assert.Equal(t, int64(2), userID)
			return nil
		},
	}
	v1.RegisterCommentRoutes(api, svc)

	resp := api.DeleteCtx(userCtx(2), "/comments/7")

	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.True(t, called)
}
