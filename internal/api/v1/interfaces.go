package v1

import (
	"context"

	"github.com/gosuda/tasktrack/internal/auth"
	"github.com/gosuda/tasktrack/internal/comments"
	"github.com/gosuda/tasktrack/internal/domain"
	"github.com/gosuda/tasktrack/internal/tasks"
)

// AuthService abstracts authentication operations for handler testing.
// *auth.Service satisfies this interface.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*auth.Tokens, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, tokens ...string) error
	GetUser(ctx context.Context, userID int64) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
}

// TaskService abstracts task and participant operations for handler testing.
// *tasks.Service satisfies this interface.
type TaskService interface {
	List(ctx context.Context, userID int64, status *domain.TaskStatus) ([]*domain.Task, error)
	Get(ctx context.Context, taskID, userID int64) (*domain.Task, error)
	Create(ctx context.Context, creatorID int64, in tasks.CreateInput) (*domain.Task, error)
	Update(ctx context.Context, taskID, userID int64, in tasks.UpdateInput) (*domain.Task, error)
	Delete(ctx context.Context, taskID, userID int64) error
	AddParticipant(ctx context.Context, taskID, userID, participantUserID int64, role domain.Role) (*domain.Participant, error)
	RemoveParticipant(ctx context.Context, taskID, userID, participantUserID int64, role *domain.Role) error
	AvailableTransitions(ctx context.Context, taskID, userID int64) ([]domain.TaskStatus, error)
	Activity(ctx context.Context, taskID, userID int64, limit int) ([]*domain.AuditEntry, error)
}

// CommentService abstracts comment operations for handler testing.
// *comments.Service satisfies this interface.
type CommentService interface {
	List(ctx context.Context, taskID, userID int64) ([]*domain.Comment, error)
	Get(ctx context.Context, commentID, userID int64) (*domain.Comment, error)
	Create(ctx context.Context, taskID, userID int64, in comments.CreateInput) (*domain.Comment, error)
	Update(ctx context.Context, commentID, userID int64, in comments.UpdateInput) (*domain.Comment, error)
	Delete(ctx context.Context, commentID, userID int64) error
}
