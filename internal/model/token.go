package model

import (
	"time"

	"github.com/google/uuid"
)

// TokenManager signs and validates access tokens and mints opaque refresh
// tokens. Refresh tokens carry no claims; their validity lives entirely in
// the SessionStore.
type TokenManager interface {
	GenerateAccessToken(userID uuid.UUID, role Role) (string, error)
	VerifyAccessToken(token string) (TokenPayload, error)
	GenerateRefreshToken() (string, error)
}

// TokenPayload is the claim set embedded in access tokens.
type TokenPayload struct {
	UserID   uuid.UUID
	Role     Role
	IssuedAt time.Time
	ExpireAt time.Time
}

// TokenPair is an access/refresh token pair issued on login or callback.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
