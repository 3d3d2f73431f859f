package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	// RefreshSessionTTL is the validity window of a refresh session.
	RefreshSessionTTL = 7 * 24 * time.Hour
	// ResetTokenTTL is the validity window of a password reset token.
	// Reset tokens live in the same mapping as refresh sessions, keyed by
	// the opaque token with the requesting user as owner.
	ResetTokenTTL = 30 * time.Minute
)

// SessionStore is an expiring token→owner mapping backing refresh-token
// validity. A missing or expired token surfaces as ErrNotFound.
type SessionStore interface {
	Create(ctx context.Context, userID uuid.UUID, token string, ttl time.Duration) error
	Get(ctx context.Context, token string) (Session, error)
	// Delete is idempotent and reports whether the session existed.
	Delete(ctx context.Context, token string) (bool, error)
	// Refresh slides the expiry without changing the token value.
	Refresh(ctx context.Context, token string, ttl time.Duration) error
	GetAllByUser(ctx context.Context, userID uuid.UUID) ([]Session, error)
	// DeleteAllByUser revokes every session owned by the user and returns
	// how many were removed.
	DeleteAllByUser(ctx context.Context, userID uuid.UUID) (int, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
}

// Session binds an opaque refresh token to its owning user for its validity
// window. It exists only in the expiring store, never as a relational row.
type Session struct {
	Token     string
	UserID    uuid.UUID
	ExpiresAt time.Time
}
