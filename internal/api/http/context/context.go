// Package context carries the authenticated identity through HTTP request
// contexts.
package context

import (
	"context"

	"github.com/google/uuid"

	"github.com/classhub/classhub-server/internal/model"
)

type contextKey string

const (
	userIDKey contextKey = "user_id"
	roleKey   contextKey = "role"
)

// Manager stores and retrieves the authenticated identity using context
// values. It implements model.ContextManager.
type Manager struct{}

// NewManager creates a new context Manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// SetIdentityToContext returns a context carrying the user ID and role.
func (m *Manager) SetIdentityToContext(ctx context.Context, userID uuid.UUID, role model.Role) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, roleKey, role)
}

// GetUserIDFromContext retrieves the authenticated user ID from the context.
func (m *Manager) GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(userIDKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}

// GetRoleFromContext retrieves the authenticated user's role from the context.
func (m *Manager) GetRoleFromContext(ctx context.Context) (model.Role, bool) {
	role, ok := ctx.Value(roleKey).(model.Role)
	if !ok || !role.Valid() {
		return "", false
	}
	return role, true
}

var _ model.ContextManager = (*Manager)(nil)
