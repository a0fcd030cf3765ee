package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/gosuda/tasktrack/internal/api/v1"
	"github.com/gosuda/tasktrack/internal/api/ws"
)

func registerAuthRoutes(api huma.API, authSvc v1.AuthService) {
	v1.RegisterAuthRoutes(api, authSvc)
}

func registerAPIRoutes(api huma.API, deps Deps) {
	v1.RegisterAccountRoutes(api, deps.Auth)
	v1.RegisterTaskRoutes(api, deps.Tasks)
	v1.RegisterParticipantRoutes(api, deps.Tasks)
	v1.RegisterCommentRoutes(api, deps.Comments)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/tasks/{taskID}", hub.ServeTask)
}
