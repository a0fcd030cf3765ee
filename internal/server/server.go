package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	v1 "github.com/gosuda/tasktrack/internal/api/v1"
	"github.com/gosuda/tasktrack/internal/api/ws"
	"github.com/gosuda/tasktrack/internal/config"
	"github.com/gosuda/tasktrack/internal/server/middleware"
)

// AuthService is what the server needs from the auth layer: the account
// operations behind /auth and /users plus bearer token authentication.
// *auth.Service satisfies this interface.
type AuthService interface {
	v1.AuthService
	middleware.Authenticator
}

// TaskService is what the server needs from the task layer.
// *tasks.Service satisfies this interface.
type TaskService interface {
	v1.TaskService
	ws.TaskAccess
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Deps are the services the HTTP layer is wired to.
type Deps struct {
	Auth     AuthService
	Tasks    TaskService
	Comments v1.CommentService

	// Events streams task events to WebSocket clients. Nil disables /ws.
	Events ws.Subscriber

	// Checks are pinged by /healthz, keyed by component name.
	Checks map[string]Pinger
}

// Server is the HTTP server that wires all application routes and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	cfg        *config.Config
}

// New creates a Server with all routes wired. ctx bounds the lifetime of
// the rate limiter cleanup goroutines.
func New(ctx context.Context, cfg *config.Config, deps Deps) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	s := &Server{
		router: router,
		cfg:    cfg,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	rps, burst := cfg.RateLimit.RPS, cfg.RateLimit.Burst

	// Mount API routes on /api/v1 with two sub-groups:
	// 1. Unauthenticated group for register, login and refresh.
	// 2. Authenticated group for everything else.
	router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(ctx, rps, burst))

			authConfig := huma.DefaultConfig("TaskTrack Auth API", "1.0.0")
			authConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			authAPI := humachi.New(r, authConfig)
			registerAuthRoutes(authAPI, deps.Auth)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(deps.Auth))
			r.Use(middleware.RateLimit(ctx, rps, burst))

			apiConfig := huma.DefaultConfig("TaskTrack API", "1.0.0")
			apiConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			api := humachi.New(r, apiConfig)
			registerAPIRoutes(api, deps)
		})
	})

	// Live task feed, only when an event bus is configured.
	if deps.Events != nil {
		hub := ws.NewHub(deps.Events, deps.Tasks)
		router.Route("/ws", func(r chi.Router) {
			r.Use(middleware.Auth(deps.Auth))
			registerWSRoutes(r, hub)
		})
	}

	// Health check (unauthenticated).
	router.Get("/healthz", healthHandler(deps.Checks))

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func healthHandler(checks map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		for name, p := range checks {
			if err := p.Ping(ctx); err != nil {
				log.Warn().Err(err).Str("component", name).Msg("health check failed")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = fmt.Fprintf(w, `{"status":"unavailable","component":%q}`, name)
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
