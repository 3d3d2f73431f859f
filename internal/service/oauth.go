package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/classhub/classhub-server/internal/logger"
	"github.com/classhub/classhub-server/internal/model"
)

// OAuth links local users to external identity provider accounts and signs
// callers in through provider callbacks. It issues token pairs exactly like
// password login but never persists the session itself; that stays with the
// caller, keeping this service stateless relative to Auth.
type OAuth struct {
	users    model.UserStore
	accounts model.OAuthAccountStore
	tokens   model.TokenManager
	logger   *logger.Logger
}

func NewOAuth(
	users model.UserStore,
	accounts model.OAuthAccountStore,
	tokens model.TokenManager,
	logger *logger.Logger,
) *OAuth {
	return &OAuth{
		users:    users,
		accounts: accounts,
		tokens:   tokens,
		logger:   logger,
	}
}

// CallbackResult is the outcome of a provider callback.
type CallbackResult struct {
	User      model.User
	Tokens    model.TokenPair
	IsNewUser bool
}

// HandleProviderCallback signs a user in (or up) from a provider callback.
//
// A known (provider, subject) pair authenticates its owner and refreshes the
// stored token material. An unknown pair attaches to an existing passwordless
// user with the same email, or provisions a new student account. If the email
// belongs to a password-holding user the callback is refused: silently
// linking would let whoever controls that mailbox at the provider take over
// the password account.
//
// The provider-supplied email is trusted as proof of ownership; no
// email-verified flag from the provider is consulted.
func (o *OAuth) HandleProviderCallback(ctx context.Context, profile model.ProviderProfile, tokens model.ProviderTokens) (CallbackResult, error) {
	if profile.Provider == "" || profile.SubjectID == "" {
		return CallbackResult{}, fmt.Errorf("%w: provider profile incomplete", model.ErrInvalidState)
	}
	email := NormalizeEmail(profile.Email)
	if email == "" {
		return CallbackResult{}, fmt.Errorf("%w: provider profile has no email", model.ErrInvalidState)
	}

	account, err := o.accounts.GetByProviderSubject(ctx, profile.Provider, profile.SubjectID)
	if err == nil {
		return o.callbackForKnownAccount(ctx, account, tokens)
	}
	if !errors.Is(err, model.ErrNotFound) {
		return CallbackResult{}, fmt.Errorf("failed to look up oauth account: %w", err)
	}

	user, isNew, err := o.resolveCallbackUser(ctx, profile, email)
	if err != nil {
		return CallbackResult{}, err
	}

	if _, err := o.accounts.Create(ctx, model.OAuthAccount{
		UserID:            user.ID,
		Provider:          profile.Provider,
		ProviderSubjectID: profile.SubjectID,
		AccessToken:       tokens.AccessToken,
		RefreshToken:      tokens.RefreshToken,
		IDToken:           tokens.IDToken,
		ExpiresAt:         tokens.ExpiresAt,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}); err != nil {
		return CallbackResult{}, fmt.Errorf("failed to create oauth account: %w", err)
	}

	pair, err := o.issuePair(user)
	if err != nil {
		return CallbackResult{}, err
	}

	o.logger.Info("OAuth service: callback completed",
		"user_id", user.ID, "provider", profile.Provider, "new_user", isNew)

	return CallbackResult{User: user, Tokens: pair, IsNewUser: isNew}, nil
}

func (o *OAuth) callbackForKnownAccount(ctx context.Context, account model.OAuthAccount, tokens model.ProviderTokens) (CallbackResult, error) {
	user, err := o.users.GetByID(ctx, account.UserID)
	if errors.Is(err, model.ErrNotFound) {
		// Dangling link row; remove it so it cannot accumulate.
		if delErr := o.accounts.Delete(ctx, account.ID); delErr != nil && !errors.Is(delErr, model.ErrNotFound) {
			o.logger.Error("OAuth service: failed to delete orphaned oauth account",
				"account_id", account.ID, "error", delErr.Error())
		}
		return CallbackResult{}, model.ErrNotFound
	}
	if err != nil {
		return CallbackResult{}, fmt.Errorf("failed to get user: %w", err)
	}

	if err := o.accounts.UpdateTokens(ctx, account.ID, tokens); err != nil {
		return CallbackResult{}, fmt.Errorf("failed to refresh oauth tokens: %w", err)
	}

	if user.Suspended {
		return CallbackResult{}, model.ErrForbidden
	}

	pair, err := o.issuePair(user)
	if err != nil {
		return CallbackResult{}, err
	}

	return CallbackResult{User: user, Tokens: pair}, nil
}

func (o *OAuth) resolveCallbackUser(ctx context.Context, profile model.ProviderProfile, email string) (model.User, bool, error) {
	user, err := o.users.GetByEmail(ctx, email)
	if err == nil {
		if user.HasPassword() {
			o.logger.Info("OAuth service: refusing to auto-link password account",
				"user_id", user.ID, "provider", profile.Provider)
			return model.User{}, false, fmt.Errorf(
				"%w: account has a password, sign in with it before linking %s",
				model.ErrInvalidCredentials, profile.Provider)
		}
		if user.Suspended {
			return model.User{}, false, model.ErrForbidden
		}
		// Provisioned earlier by another provider; safe to attach.
		return user, false, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.User{}, false, fmt.Errorf("failed to get user by email: %w", err)
	}

	created, err := o.users.Create(ctx, model.User{
		ID:        uuid.New(),
		Email:     email,
		Name:      profile.Name,
		Role:      model.RoleStudent,
		Suspended: false,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	})
	if err != nil {
		return model.User{}, false, fmt.Errorf("failed to provision user: %w", err)
	}

	o.logger.Info("OAuth service: provisioned new user",
		"user_id", created.ID, "provider", profile.Provider)

	return created, true, nil
}

// LinkOAuthAccount attaches a provider identity to an already-authenticated
// user who explicitly consented to the link.
func (o *OAuth) LinkOAuthAccount(ctx context.Context, userID uuid.UUID, profile model.ProviderProfile, tokens model.ProviderTokens) (model.OAuthAccount, error) {
	if profile.Provider == "" || profile.SubjectID == "" {
		return model.OAuthAccount{}, fmt.Errorf("%w: provider profile incomplete", model.ErrInvalidState)
	}

	if _, err := o.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.OAuthAccount{}, model.ErrNotFound
		}
		return model.OAuthAccount{}, fmt.Errorf("failed to get user: %w", err)
	}

	_, err := o.accounts.GetByUserProvider(ctx, userID, profile.Provider)
	if err == nil {
		return model.OAuthAccount{}, model.ErrAlreadyExists
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.OAuthAccount{}, fmt.Errorf("failed to check existing link: %w", err)
	}

	existing, err := o.accounts.GetByProviderSubject(ctx, profile.Provider, profile.SubjectID)
	if err == nil && existing.UserID != userID {
		return model.OAuthAccount{}, model.ErrAlreadyExists
	}
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return model.OAuthAccount{}, fmt.Errorf("failed to check provider identity: %w", err)
	}

	account, err := o.accounts.Create(ctx, model.OAuthAccount{
		UserID:            userID,
		Provider:          profile.Provider,
		ProviderSubjectID: profile.SubjectID,
		AccessToken:       tokens.AccessToken,
		RefreshToken:      tokens.RefreshToken,
		IDToken:           tokens.IDToken,
		ExpiresAt:         tokens.ExpiresAt,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	})
	if err != nil {
		return model.OAuthAccount{}, fmt.Errorf("failed to create oauth account: %w", err)
	}

	o.logger.Info("OAuth service: account linked",
		"user_id", userID, "provider", profile.Provider)

	return account, nil
}

// UnlinkOAuthAccount detaches a provider identity. The last authentication
// method cannot be removed: a passwordless user with a single linked
// provider would be locked out of their own account.
func (o *OAuth) UnlinkOAuthAccount(ctx context.Context, userID uuid.UUID, provider string) error {
	account, err := o.accounts.GetByUserProvider(ctx, userID, provider)
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get oauth account: %w", err)
	}

	user, err := o.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !user.HasPassword() {
		count, err := o.accounts.CountByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to count oauth accounts: %w", err)
		}
		if count <= 1 {
			return fmt.Errorf("%w: cannot unlink the only authentication method", model.ErrInvalidState)
		}
	}

	if err := o.accounts.Delete(ctx, account.ID); err != nil {
		return fmt.Errorf("failed to delete oauth account: %w", err)
	}

	o.logger.Info("OAuth service: account unlinked", "user_id", userID, "provider", provider)

	return nil
}

// GetUserOAuthAccounts lists the provider identities linked to a user.
func (o *OAuth) GetUserOAuthAccounts(ctx context.Context, userID uuid.UUID) ([]model.OAuthAccount, error) {
	accounts, err := o.accounts.GetAllByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list oauth accounts: %w", err)
	}
	return accounts, nil
}

func (o *OAuth) issuePair(user model.User) (model.TokenPair, error) {
	access, err := o.tokens.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := o.tokens.GenerateRefreshToken()
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
