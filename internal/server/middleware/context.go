package middleware

import (
	"context"

	"github.com/gosuda/tasktrack/internal/auth"
)

type contextKey string

const (
	ContextKeyUserID contextKey = "user_id"
	ContextKeyClaims contextKey = "claims"
)

// WithUser returns ctx carrying the authenticated user's token claims.
func WithUser(ctx context.Context, claims *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, ContextKeyUserID, claims.UserID)
	return context.WithValue(ctx, ContextKeyClaims, claims)
}

func UserIDFromContext(ctx context.Context) (int64, bool) {
	v, ok := ctx.Value(ContextKeyUserID).(int64)
	return v, ok && v > 0
}

func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	v, ok := ctx.Value(ContextKeyClaims).(*auth.Claims)
	return v, ok
}
