package context

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classhub/classhub-server/internal/model"
)

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager()
	userID := uuid.New()

	ctx := m.SetIdentityToContext(context.Background(), userID, model.RoleTeacher)

	gotID, ok := m.GetUserIDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, userID, gotID)

	gotRole, ok := m.GetRoleFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, model.RoleTeacher, gotRole)
}

func TestManager_EmptyContext(t *testing.T) {
	m := NewManager()

	_, ok := m.GetUserIDFromContext(context.Background())
	assert.False(t, ok)

	_, ok = m.GetRoleFromContext(context.Background())
	assert.False(t, ok)
}

func TestManager_NilUserID(t *testing.T) {
	m := NewManager()

	ctx := m.SetIdentityToContext(context.Background(), uuid.Nil, model.RoleStudent)

	_, ok := m.GetUserIDFromContext(ctx)
	assert.False(t, ok)
}
