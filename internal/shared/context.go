package shared

import (
	"context"

	"github.com/google/uuid"
)

type userContextKey struct{}

// ContextWithUser stores the authenticated user id in context. The id is
// supplied by the upstream authentication gateway; the core trusts it for
// stamping journal entries, stock movements and activity records.
func ContextWithUser(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userContextKey{}, userID)
}

// UserFromContext extracts the authenticated user id from context. Returns
// uuid.Nil when no identity was attached.
func UserFromContext(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(userContextKey{}).(uuid.UUID)
	return id
}
