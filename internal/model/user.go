package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role is a portal user role.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Valid reports whether the role is one of the known portal roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// UserStore defines persistence operations for users.
// Email lookups are case-insensitive; uniqueness is enforced on the
// normalized email.
type UserStore interface {
	Create(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	Update(ctx context.Context, user User) (User, error)
}

// User represents a portal user. PasswordHash is nil for users provisioned
// through an identity provider who never set a password; such users must keep
// at least one linked provider account.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash *string
	Name         string
	Role         Role
	Suspended    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether the user has a password credential.
func (u User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
