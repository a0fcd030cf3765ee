package v1_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/gosuda/tasktrack/internal/api/v1"
	"github.com/gosuda/tasktrack/internal/auth"
	"github.com/gosuda/tasktrack/internal/domain"
)

// ---------------------------------------------------------------------------
// POST /auth/register
// ---------------------------------------------------------------------------

func TestRegister(t *testing.T) {
	t.Parallel()

	fixtureUser := &domain.User{ID: 1, Email: "alice@acme.io", Name: "Alice", PasswordHash: "salt$hash"}
	expiresAt := time.Now().Add(15 * time.Minute).UTC().Truncate(time.Second)

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		authSvc := &mockAuthService{
			registerFunc: func(_ context.Context, name, email, password string) (*domain.User, error) {
				assert.Equal(t, "Alice", name)
				assert.Equal(t, "alice@acme.io", email)
				assert.Equal(t, "secretpw1", password)
				return fixtureUser, nil
			},
			loginFunc: func(_ context.Context, email, _ string) (*auth.Tokens, error) {
				assert.Equal(t, "alice@acme.io", email)
				return &auth.Tokens{AccessToken: "access-tok", RefreshToken: "refresh-tok", ExpiresAt: expiresAt}, nil
			},
		}
		v1.RegisterAuthRoutes(api, authSvc)

		resp := api.Post("/auth/register", map[string]any{
			"name":     "Alice",
			"email":    "alice@acme.io",
			"password": "secretpw1",
		})

		require.Equal(t, http.StatusOK, resp.Code)
		assert.NotContains(t, resp.Body.String(), "salt$hash", "password hash must never be serialized")

		var body struct {
			User         domain.User `json:"user"`
			AccessToken  string      `json:"access_token"`
			RefreshToken string      `json:"refresh_token"`
			ExpiresAt    time.Time   `json:"expires_at"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, int64(1), body.User.ID)
		assert.Equal(t, "access-tok", body.AccessToken)
		assert.Equal(t, "refresh-tok", body.RefreshToken)
		assert.True(t, expiresAt.Equal(body.ExpiresAt))
	})

	t.Run("duplicate_email_is_409", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		authSvc := &mockAuthService{
			registerFunc: func(context.Context, string, string, string) (*domain.User, error) {
				return nil, fmt.Errorf("auth.Register: %w", auth.ErrEmailAlreadyExists)
			},
		}
		v1.RegisterAuthRoutes(api, authSvc)

		resp := api.Post("/auth/register", map[string]any{
			"name":     "Alice",
			"email":    "alice@acme.io",
			"password": "secretpw1",
		})

		assert.Equal(t, http.StatusConflict, resp.Code)
		assert.Equal(t, "email already registered", decodeDetail(t, resp.Body))
	})

	t.Run("shape_validation", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name string
			body map[string]any
		}{
			{name: "short_password", body: map[string]any{"name": "A", "email": "a@b.io", "password": "short"}},
			{name: "bad_email", body: map[string]any{"name": "A", "email": "not-an-email", "password": "secretpw1"}},
			{name: "missing_name", body: map[string]any{"email": "a@b.io", "password": "secretpw1"}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				_, api := humatest.New(t)
				v1.RegisterAuthRoutes(api, &mockAuthService{})

				resp := api.Post("/auth/register", tt.body)

				assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
			})
		}
	})
}

// ---------------------------------------------------------------------------
// POST /auth/login and /auth/refresh
// ---------------------------------------------------------------------------

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		authSvc := &mockAuthService{
			loginFunc: func(_ context.Context, email, password string) (*auth.Tokens, error) {
				assert.Equal(t, "alice@acme.io", email)
				assert.Equal(t, "secretpw1", password)
				return &auth.Tokens{AccessToken: "a", RefreshToken: "r"}, nil
			},
		}
		v1.RegisterAuthRoutes(api, authSvc)

		resp := api.Post("/auth/login", map[string]any{"email": "alice@acme.io", "password": "secretpw1"})

		require.Equal(t, http.StatusOK, resp.Code)
		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "a", body["access_token"])
		assert.Equal(t, "r", body["refresh_token"])
	})

	t.Run("invalid_credentials_is_401", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		authSvc := &mockAuthService{
			loginFunc: func(context.Context, string, string) (*auth.Tokens, error) {
				return nil, fmt.Errorf("auth.Login: %w", auth.ErrInvalidCredentials)
			},
		}
		v1.RegisterAuthRoutes(api, authSvc)

		resp := api.Post("/auth/login", map[string]any{"email": "alice@acme.io", "password": "nope"})

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.Equal(t, "invalid email or password", decodeDetail(t, resp.Body))
	})
}

func TestRefresh(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		authSvc := &mockAuthService{
			refreshTokenFunc: func(_ context.Context, tok string) (string, error) {
				assert.Equal(t, "refresh-tok", tok)
				return "new-access", nil
			},
		}
		v1.RegisterAuthRoutes(api, authSvc)

		resp := api.Post("/auth/refresh", map[string]any{"refresh_token": "refresh-tok"})

		require.Equal(t, http.StatusOK, resp.Code)
		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "new-access", body["access_token"])
	})

	t.Run("rejected_is_401", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		authSvc := &mockAuthService{
			refreshTokenFunc: func(context.Context, string) (string, error) {
				return "", auth.ErrTokenRevoked
			},
		}
		v1.RegisterAuthRoutes(api, authSvc)

		resp := api.Post("/auth/refresh", map[string]any{"refresh_token": "refresh-tok"})

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// Account routes
// ---------------------------------------------------------------------------

func TestLogout(t *testing.T) {
	t.Parallel()

	t.Run("revokes_access_and_refresh", func(t *testing.T) {
		t.Parallel()

		var revoked []string
		_, api := humatest.New(t)
		authSvc := &mockAuthService{
			logoutFunc: func(_ context.Context, tokens ...string) error {
				revoked = tokens
				return nil
			},
		}
		v1.RegisterAccountRoutes(api, authSvc)

		resp := api.PostCtx(userCtx(1), "/auth/logout", "Authorization: Bearer access-tok", map[string]any{
			"refresh_token": "refresh-tok",
		})

		assert.Equal(t, http.StatusNoContent, resp.Code)
		assert.Equal(t, []string{"access-tok", "refresh-tok"}, revoked)
	})

	t.Run("body_is_optional", func(t *testing.T) {
		t.Parallel()

		var revoked []string
		_, api := humatest.New(t)
		authSvc := &mockAuthService{
			logoutFunc: func(_ context.Context, tokens ...string) error {
				revoked = tokens
				return nil
			},
		}
		v1.RegisterAccountRoutes(api, authSvc)

		resp := api.PostCtx(userCtx(1), "/auth/logout", "Authorization: Bearer access-tok")

		assert.Equal(t, http.StatusNoContent, resp.Code)
		assert.Equal(t, []string{"access-tok"}, revoked)
	})

	t.Run("revocation_store_down_is_500", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		authSvc := &mockAuthService{
			logoutFunc: func(context.Context, ...string) error {
				return errors.New("dial tcp: connection refused")
			},
		}
		v1.RegisterAccountRoutes(api, authSvc)

		resp := api.PostCtx(userCtx(1), "/auth/logout", "Authorization: Bearer access-tok")

		assert.Equal(t, http.StatusInternalServerError, resp.Code)
	})
}

func TestGetMe(t *testing.T) {
	t.Parallel()

	_, api := humatest.New(t)
	authSvc := &mockAuthService{
		getUserFunc: func(_ context.Context, userID int64) (*domain.User, error) {
			assert.Equal(t, int64(4), userID)
			return &domain.User{ID: 4, Name: "Dana", Email: "dana@acme.io"}, nil
		},
	}
	v1.RegisterAccountRoutes(api, authSvc)

	resp := api.GetCtx(userCtx(4), "/users/me")

	require.Equal(t, http.StatusOK, resp.Code)
	var body domain.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Dana", body.Name)
}

func TestListUsers(t *testing.T) {
	t.Parallel()

	t.Run("summaries_only", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		authSvc := &mockAuthService{
			listUsersFunc: func(context.Context) ([]*domain.User, error) {
				return []*domain.User{
					{ID: 2, Name: "Amy", Email: "amy@acme.io", CreatedAt: time.Now()},
					{ID: 1, Name: "Zed", Email: "zed@acme.io", CreatedAt: time.Now()},
				}, nil
			},
		}
		v1.RegisterAccountRoutes(api, authSvc)

		resp := api.GetCtx(userCtx(1), "/users")

		require.Equal(t, http.StatusOK, resp.Code)
		var body []v1.UserSummary
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, []v1.UserSummary{
			{ID: 2, Name: "Amy", Email: "amy@acme.io"},
			{ID: 1, Name: "Zed", Email: "zed@acme.io"},
		}, body)
		assert.NotContains(t, resp.Body.String(), "created_at")
	})

	t.Run("unauthenticated", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterAccountRoutes(api, &mockAuthService{})

		resp := api.Get("/users")

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}
