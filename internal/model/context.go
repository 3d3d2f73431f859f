package model

import (
	"context"

	"github.com/google/uuid"
)

// ContextManager carries the authenticated identity through request contexts.
type ContextManager interface {
	SetIdentityToContext(ctx context.Context, userID uuid.UUID, role Role) context.Context
	GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool)
	GetRoleFromContext(ctx context.Context) (Role, bool)
}
