package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/tasktrack/internal/auth"
	"github.com/gosuda/tasktrack/internal/comments"
	"github.com/gosuda/tasktrack/internal/config"
	"github.com/gosuda/tasktrack/internal/domain"
	"github.com/gosuda/tasktrack/internal/server"
	"github.com/gosuda/tasktrack/internal/store/memory"
	"github.com/gosuda/tasktrack/internal/tasks"
)

const testSecret = "server-test-secret-at-least-32-chars"

func testConfig() *config.Config {
	return &config.Config{
		Store: config.StoreMemory,
		JWT: config.JWTConfig{
			Secret:     testSecret,
			AccessTTL:  15 * time.Minute,
			RefreshTTL: time.Hour,
		},
		Server: config.ServerConfig{
			Addr:         ":0",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			CORSOrigins:  []string{"https://app.example.com"},
		},
		RateLimit: config.RateLimitConfig{RPS: 1000, Burst: 1000},
	}
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func newTestServer(t *testing.T, checks map[string]server.Pinger) http.Handler {
	t.Helper()

	cfg := testConfig()
	store := memory.New()
	events := domain.NopPublisher{}

	srv := server.New(t.Context(), cfg, server.Deps{
		Auth:     auth.NewService(store.Users(), nil, cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL),
		Tasks:    tasks.NewService(store, events),
		Comments: comments.NewService(store, events),
		Checks:   checks,
	})
	return srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.RemoteAddr = "192.0.2.10:4000"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type session struct {
	ID           int64
	AccessToken  string
	RefreshToken string
}

func register(t *testing.T, h http.Handler, name string) session {
	t.Helper()

	rec := do(t, h, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name":     name,
		"email":    name + "@example.com",
		"password": "correct-horse-battery",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decode[struct {
		User struct {
			ID int64 `json:"id"`
		} `json:"user"`
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}](t, rec)

	return session{ID: out.User.ID, AccessToken: out.AccessToken, RefreshToken: out.RefreshToken}
}

type problem struct {
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

type taskBody struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Status       string `json:"status"`
	Participants []struct {
		UserID int64  `json:"user_id"`
		Role   string `json:"role"`
	} `json:"participants"`
}

// ---------------------------------------------------------------------------
// Health and plumbing
// ---------------------------------------------------------------------------

func TestHealthz(t *testing.T) {
	t.Parallel()

	t.Run("ok", func(t *testing.T) {
		t.Parallel()

		rec := do(t, newTestServer(t, nil), http.MethodGet, "/healthz", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("failing dependency", func(t *testing.T) {
		t.Parallel()

		h := newTestServer(t, map[string]server.Pinger{"postgres": failingPinger{}})
		rec := do(t, h, http.MethodGet, "/healthz", "", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.JSONEq(t, `{"status":"unavailable","component":"postgres"}`, rec.Body.String())
	})
}

func TestWebSocketRouteDisabledWithoutEvents(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, nil)
	alice := register(t, h, "alice")

	rec := do(t, h, http.MethodGet, "/ws/tasks/1", alice.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/tasks", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/tasks", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

// ---------------------------------------------------------------------------
// Account flow
// ---------------------------------------------------------------------------

func TestAccountFlow(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, nil)
	alice := register(t, h, "alice")

	t.Run("duplicate email conflicts", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
			"name":     "Alice Again",
			"email":    "ALICE@example.com",
			"password": "another-password",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"email":    "alice@example.com",
			"password": "nope",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("protected route needs a token", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/api/v1/users/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("me", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/api/v1/users/me", alice.AccessToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		me := decode[struct {
			ID    int64  `json:"id"`
			Email string `json:"email"`
		}](t, rec)
		assert.Equal(t, alice.ID, me.ID)
		assert.Equal(t, "alice@example.com", me.Email)
		assert.NotContains(t, rec.Body.String(), "password")
	})

	t.Run("refresh", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
			"refresh_token": alice.RefreshToken,
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, decode[map[string]any](t, rec)["access_token"])
	})

	t.Run("logout revokes both tokens", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/v1/auth/logout", alice.AccessToken, map[string]string{
			"refresh_token": alice.RefreshToken,
		})
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		rec = do(t, h, http.MethodGet, "/api/v1/users/me", alice.AccessToken, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = do(t, h, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
			"refresh_token": alice.RefreshToken,
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

// ---------------------------------------------------------------------------
// Task, participant and comment flow
// ---------------------------------------------------------------------------

func TestTaskFlow(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, nil)
	alice := register(t, h, "alice")
	bob := register(t, h, "bob")
	carol := register(t, h, "carol")

	rec := do(t, h, http.MethodPost, "/api/v1/tasks", alice.AccessToken, map[string]any{
		"title":        "Ship release",
		"description":  "Cut the tag and publish notes",
		"assignee_ids": []int64{bob.ID},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	task := decode[taskBody](t, rec)
	assert.Equal(t, "todo", task.Status)
	require.Len(t, task.Participants, 2)

	taskPath := fmt.Sprintf("/api/v1/tasks/%d", task.ID)

	t.Run("assignee can read", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, taskPath, bob.AccessToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Ship release", decode[taskBody](t, rec).Title)
	})

	t.Run("outsider and missing task look the same", func(t *testing.T) {
		hidden := do(t, h, http.MethodGet, taskPath, carol.AccessToken, nil)
		missing := do(t, h, http.MethodGet, "/api/v1/tasks/99999", carol.AccessToken, nil)

		require.Equal(t, http.StatusNotFound, hidden.Code)
		require.Equal(t, http.StatusNotFound, missing.Code)
		assert.Equal(t, decode[problem](t, missing).Detail, decode[problem](t, hidden).Detail)
	})

	t.Run("outsider list is empty", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/api/v1/tasks", carol.AccessToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decode[[]taskBody](t, rec))
	})

	t.Run("invalid transition is rejected", func(t *testing.T) {
		rec := do(t, h, http.MethodPut, taskPath, alice.AccessToken, map[string]any{"status": "done"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = do(t, h, http.MethodPut, taskPath, alice.AccessToken, map[string]any{"status": "todo"})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("transitions", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, taskPath+"/transitions", bob.AccessToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		out := decode[struct {
			Transitions []string `json:"transitions"`
		}](t, rec)
		assert.ElementsMatch(t, []string{"in_progress", "closed"}, out.Transitions)
	})

	t.Run("add observer then comment", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, taskPath+"/participants", alice.AccessToken, map[string]any{
			"user_id": carol.ID,
			"role":    "observer",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = do(t, h, http.MethodPost, taskPath+"/comments", carol.AccessToken, map[string]any{
			"content": "Watching this one",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		comment := decode[struct {
			ID int64 `json:"id"`
		}](t, rec)

		commentPath := fmt.Sprintf("/api/v1/comments/%d", comment.ID)

		rec = do(t, h, http.MethodPut, commentPath, alice.AccessToken, map[string]any{"content": "edited"})
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = do(t, h, http.MethodDelete, commentPath, carol.AccessToken, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = do(t, h, http.MethodGet, taskPath+"/comments", alice.AccessToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decode[[]map[string]any](t, rec))
	})

	t.Run("activity", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, taskPath+"/activity?limit=50", alice.AccessToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, decode[[]map[string]any](t, rec))
	})

	t.Run("only the creator deletes", func(t *testing.T) {
		rec := do(t, h, http.MethodDelete, taskPath, bob.AccessToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = do(t, h, http.MethodDelete, taskPath, alice.AccessToken, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = do(t, h, http.MethodGet, taskPath, alice.AccessToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestValidationAtBoundary(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, nil)
	alice := register(t, h, "alice")

	tests := []struct {
		name string
		body map[string]any
	}{
		{name: "missing description", body: map[string]any{"title": "x"}},
		{name: "empty title", body: map[string]any{"title": "", "description": "d"}},
		{name: "unknown status", body: map[string]any{"title": "x", "description": "d", "status": "archived"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/v1/tasks", alice.AccessToken, tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		})
	}
}
