package middleware

import (
	"context"

	"github.com/projectnexus/nexus/internal/domain"
)

type contextKey string

const userContextKey contextKey = "user_id"

// WithUserID stores the authenticated user in ctx.
func WithUserID(ctx context.Context, userID domain.UserID) context.Context {
	return context.WithValue(ctx, userContextKey, userID)
}

// UserIDFromContext returns the authenticated user, if any.
func UserIDFromContext(ctx context.Context) (domain.UserID, bool) {
	id, ok := ctx.Value(userContextKey).(domain.UserID)
	return id, ok && !id.IsZero()
}
