package v1_test

import (
	"context"

	"github.com/gosuda/tasktrack/internal/auth"
	"github.com/gosuda/tasktrack/internal/comments"
	"github.com/gosuda/tasktrack/internal/domain"
	"github.com/gosuda/tasktrack/internal/server/middleware"
	"github.com/gosuda/tasktrack/internal/tasks"
)

// ---------------------------------------------------------------------------
// Context helpers: inject the authenticated user for DoCtx
// ---------------------------------------------------------------------------

func userCtx(userID int64) context.Context {
	return middleware.WithUser(context.Background(), &auth.Claims{UserID: userID})
}

// ---------------------------------------------------------------------------
// Mock AuthService
// ---------------------------------------------------------------------------

type mockAuthService struct {
	registerFunc     func(ctx context.Context, name, email, password string) (*domain.User, error)
	loginFunc        func(ctx context.Context, email, password string) (*auth.Tokens, error)
	refreshTokenFunc func(ctx context.Context, refreshToken string) (string, error)
	logoutFunc       func(ctx context.Context, tokens ...string) error
	getUserFunc      func(ctx context.Context, userID int64) (*domain.User, error)
	listUsersFunc    func(ctx context.Context) ([]*domain.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	return m.registerFunc(ctx, name, email, password)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*auth.Tokens, error) {
	return m.loginFunc(ctx, email, password)
}

func (m *mockAuthService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	return m.refreshTokenFunc(ctx, refreshToken)
}

func (m *mockAuthService) Logout(ctx context.Context, tokens ...string) error {
	return m.logoutFunc(ctx, tokens...)
}

func (m *mockAuthService) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	return m.getUserFunc(ctx, userID)
}

func (m *mockAuthService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return m.listUsersFunc(ctx)
}

// ---------------------------------------------------------------------------
// Mock TaskService
// ---------------------------------------------------------------------------

type mockTaskService struct {
	listFunc                 func(ctx context.Context, userID int64, status *domain.TaskStatus) ([]*domain.Task, error)
	getFunc                  func(ctx context.Context, taskID, userID int64) (*domain.Task, error)
	createFunc               func(ctx context.Context, creatorID int64, in tasks.CreateInput) (*domain.Task, error)
	updateFunc               func(ctx context.Context, taskID, userID int64, in tasks.UpdateInput) (*domain.Task, error)
	deleteFunc               func(ctx context.Context, taskID, userID int64) error
	addParticipantFunc       func(ctx context.Context, taskID, userID, participantUserID int64, role domain.Role) (*domain.Participant, error)
	removeParticipantFunc    func(ctx context.Context, taskID, userID, participantUserID int64, role *domain.Role) error
	availableTransitionsFunc func(ctx context.Context, taskID, userID int64) ([]domain.TaskStatus, error)
	activityFunc             func(ctx context.Context, taskID, userID int64, limit int) ([]*domain.AuditEntry, error)
}

func (m *mockTaskService) List(ctx context.Context, userID int64, status *domain.TaskStatus) ([]*domain.Task, error) {
	return m.listFunc(ctx, userID, status)
}

func (m *mockTaskService) Get(ctx context.Context, taskID, userID int64) (*domain.Task, error) {
	return m.getFunc(ctx, taskID, userID)
}

func (m *mockTaskService) Create(ctx context.Context, creatorID int64, in tasks.CreateInput) (*domain.Task, error) {
	return m.createFunc(ctx, creatorID, in)
}

func (m *mockTaskService) Update(ctx context.Context, taskID, userID int64, in tasks.UpdateInput) (*domain.Task, error) {
	return m.updateFunc(ctx, taskID, userID, in)
}

func (m *mockTaskService) Delete(ctx context.Context, taskID, userID int64) error {
	return m.deleteFunc(ctx, taskID, userID)
}

func (m *mockTaskService) AddParticipant(ctx context.Context, taskID, userID, participantUserID int64, role domain.Role) (*domain.Participant, error) {
	return m.addParticipantFunc(ctx, taskID, userID, participantUserID, role)
}

func (m *mockTaskService) RemoveParticipant(ctx context.Context, taskID, userID, participantUserID int64, role *domain.Role) error {
	return m.removeParticipantFunc(ctx, taskID, userID, participantUserID, role)
}

func (m *mockTaskService) AvailableTransitions(ctx context.Context, taskID, userID int64) ([]domain.TaskStatus, error) {
	return m.availableTransitionsFunc(ctx, taskID, userID)
}

func (m *mockTaskService) Activity(ctx context.Context, taskID, userID int64, limit int) ([]*domain.AuditEntry, error) {
	return m.activityFunc(ctx, taskID, userID, limit)
}

// ---------------------------------------------------------------------------
// Mock CommentService
// ---------------------------------------------------------------------------

type mockCommentService struct {
	listFunc   func(ctx context.Context, taskID, userID int64) ([]*domain.Comment, error)
	getFunc    func(ctx context.Context, commentID, userID int64) (*domain.Comment, error)
	createFunc func(ctx context.Context, taskID, userID int64, in comments.CreateInput) (*domain.Comment, error)
	updateFunc func(ctx context.Context, commentID, userID int64, in comments.UpdateInput) (*domain.Comment, error)
	deleteFunc func(ctx context.Context, commentID, userID int64) error
}

func (m *mockCommentService) List(ctx context.Context, taskID, userID int64) ([]*domain.Comment, error) {
	return m.listFunc(ctx, taskID, userID)
}

func (m *mockCommentService) Get(ctx context.Context, commentID, userID int64) (*domain.Comment, error) {
	return m.getFunc(ctx, commentID, userID)
}

func (m *mockCommentService) Create(ctx context.Context, taskID, userID int64, in comments.CreateInput) (*domain.Comment, error) {
	return m.createFunc(ctx, taskID, userID, in)
}

func (m *mockCommentService) Update(ctx context.Context, commentID, userID int64, in comments.UpdateInput) (*domain.Comment, error) {
	return m.updateFunc(ctx, commentID, userID, in)
}

func (m *mockCommentService) Delete(ctx context.Context, commentID, userID int64) error {
	return m.deleteFunc(ctx, commentID, userID)
}
