package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/tasktrack/internal/auth"
)

// Authenticator resolves a bearer access token to its claims.
// *auth.Service implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*auth.Claims, error)
}

func Auth(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := extractBearer(r)
			if tok == "" {
				http.Error(w, `{"title":"Unauthorized","status":401,"detail":"missing or invalid credentials"}`, http.StatusUnauthorized)
				return
			}

			claims, err := authenticator.Authenticate(r.Context(), tok)
			if err != nil {
				// Revocation lookups failing is an outage, not a bad token.
				if !errors.Is(err, auth.ErrInvalidToken) && !errors.Is(err, auth.ErrTokenRevoked) {
					log.Error().Err(err).Msg("auth: token check failed")
					http.Error(w, `{"title":"Internal Server Error","status":500,"detail":"authentication unavailable"}`, http.StatusInternalServerError)
					return
				}
				http.Error(w, `{"title":"Unauthorized","status":401,"detail":"missing or invalid credentials"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims)))
		})
	}
}

// BearerToken returns the token from an "Authorization: Bearer" header, or "".
func BearerToken(header string) string {
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func extractBearer(r *http.Request) string {
	return BearerToken(r.Header.Get("Authorization"))
}
