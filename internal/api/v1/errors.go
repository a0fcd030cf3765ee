package v1

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/tasktrack/internal/auth"
	"github.com/gosuda/tasktrack/internal/domain"
	"github.com/gosuda/tasktrack/internal/server/middleware"
)

// errorStatuses maps service errors to HTTP statuses. Order matters:
// ErrNotFoundOrForbidden must be checked before ErrNotFound.
var errorStatuses = []struct {
	target error
	status int
}{
	{domain.ErrNotFoundOrForbidden, http.StatusNotFound},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrNotOwner, http.StatusForbidden},
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrInvalidStatus, http.StatusUnprocessableEntity},
	{domain.ErrInvalidTransition, http.StatusUnprocessableEntity},
	{domain.ErrInvalidRole, http.StatusUnprocessableEntity},
	{domain.ErrUnknownUser, http.StatusUnprocessableEntity},
	{domain.ErrCreatorRemovalForbidden, http.StatusUnprocessableEntity},
	{domain.ErrCreatorImmutable, http.StatusUnprocessableEntity},
	{domain.ErrDuplicateParticipant, http.StatusConflict},
	{domain.ErrConflict, http.StatusConflict},
	{auth.ErrEmailAlreadyExists, http.StatusConflict},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized},
	{auth.ErrInvalidToken, http.StatusUnauthorized},
	{auth.ErrTokenRevoked, http.StatusUnauthorized},
	{auth.ErrUserNotFound, http.StatusUnauthorized},
	{domain.ErrUnauthorized, http.StatusUnauthorized},
}

// toHTTPError converts a service error into a huma status error. Unknown
// errors become an opaque 500 and are logged.
func toHTTPError(err error) error {
	for _, m := range errorStatuses {
		if errors.Is(err, m.target) {
			return huma.NewError(m.status, publicMessage(err, m.target))
		}
	}

	log.Error().Err(err).Msg("api: unhandled error")
	return huma.Error500InternalServerError("internal server error")
}

// publicMessage prefers the context-carrying typed errors and falls back to
// the sentinel text without its package prefix.
func publicMessage(err, target error) string {
	var (
		accessErr     *domain.AccessError
		statusErr     *domain.InvalidStatusError
		transitionErr *domain.InvalidTransitionError
		roleErr       *domain.InvalidRoleError
	)

	switch {
	case errors.As(err, &accessErr):
		return accessErr.Error()
	case errors.As(err, &statusErr):
		return statusErr.Error()
	case errors.As(err, &transitionErr):
		return transitionErr.Error()
	case errors.As(err, &roleErr):
		return roleErr.Error()
	}

	msg := target.Error()
	if _, rest, ok := strings.Cut(msg, ": "); ok {
		return rest
	}
	return msg
}

// currentUser returns the authenticated user id placed in ctx by middleware.Auth.
func currentUser(ctx context.Context) (int64, error) {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		return 0, huma.Error401Unauthorized("authentication required")
	}
	return userID, nil
}
