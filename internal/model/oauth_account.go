package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OAuthAccountStore defines persistence operations for provider identities.
// One (provider, subject id) pair maps to exactly one local user.
type OAuthAccountStore interface {
	Create(ctx context.Context, account OAuthAccount) (OAuthAccount, error)
	GetByProviderSubject(ctx context.Context, provider, subjectID string) (OAuthAccount, error)
	GetByUserProvider(ctx context.Context, userID uuid.UUID, provider string) (OAuthAccount, error)
	GetAllByUser(ctx context.Context, userID uuid.UUID) ([]OAuthAccount, error)
	UpdateTokens(ctx context.Context, id uuid.UUID, tokens ProviderTokens) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
}

// OAuthAccount links a local user to an external identity provider account.
type OAuthAccount struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	Provider          string
	ProviderSubjectID string
	AccessToken       string
	RefreshToken      string
	IDToken           string
	ExpiresAt         *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ProviderProfile is the normalized profile a provider adapter resolves from
// a callback. SubjectID is the provider's stable identifier for the account.
type ProviderProfile struct {
	Provider  string
	SubjectID string
	Email     string
	Name      string
}

// ProviderTokens is the token material returned by a provider on callback.
type ProviderTokens struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	ExpiresAt    *time.Time
}
