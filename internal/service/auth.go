package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/classhub/classhub-server/internal/logger"
	"github.com/classhub/classhub-server/internal/model"
	"github.com/classhub/classhub-server/internal/password"
)

// Auth orchestrates registration, login, token refresh and password
// lifecycle. All state lives in the injected stores; the service itself is
// safe for concurrent use without locking.
type Auth struct {
	users    model.UserStore
	sessions model.SessionStore
	tokens   model.TokenManager
	hasher   *password.Hasher
	logger   *logger.Logger
}

func NewAuth(
	users model.UserStore,
	sessions model.SessionStore,
	tokens model.TokenManager,
	hasher *password.Hasher,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		hasher:   hasher,
		logger:   logger,
	}
}

// RegisterParams describes a registration candidate. Password may be empty
// for users that will authenticate only through an identity provider.
type RegisterParams struct {
	Email    string
	Password string
	Name     string
	Role     model.Role
}

// NormalizeEmail lowercases and trims an email for case-insensitive matching.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new user. The email must not be taken, compared
// case-insensitively.
func (a *Auth) Register(ctx context.Context, params RegisterParams) (model.User, error) {
	email := NormalizeEmail(params.Email)
	if email == "" {
		return model.User{}, fmt.Errorf("%w: email must not be empty", model.ErrInvalidState)
	}
	if !params.Role.Valid() {
		return model.User{}, fmt.Errorf("%w: unknown role %q", model.ErrInvalidState, params.Role)
	}

	_, err := a.users.GetByEmail(ctx, email)
	if err == nil {
		a.logger.Info("Auth service: registration rejected, email taken", "email", email)
		return model.User{}, model.ErrAlreadyExists
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.User{}, fmt.Errorf("failed to check existing user: %w", err)
	}

	var hash *string
	if params.Password != "" {
		encoded, err := a.hasher.Hash(params.Password)
		if err != nil {
			return model.User{}, fmt.Errorf("failed to hash password: %w", err)
		}
		hash = &encoded
	}

	user, err := a.users.Create(ctx, model.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Name:         params.Name,
		Role:         params.Role,
		Suspended:    false,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	})
	if err != nil {
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	a.logger.Info("Auth service: user registered", "user_id", user.ID, "role", user.Role)

	return user, nil
}

// Login authenticates by email and password and opens a fresh session.
// An unknown email and a wrong password are indistinguishable to the caller.
func (a *Auth) Login(ctx context.Context, email, pass string) (model.User, model.TokenPair, error) {
	email = NormalizeEmail(email)

	user, err := a.users.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return model.User{}, model.TokenPair{}, model.ErrInvalidCredentials
	}
	if err != nil {
		return model.User{}, model.TokenPair{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if !user.HasPassword() {
		return model.User{}, model.TokenPair{}, model.ErrInvalidCredentials
	}

	ok, err := a.hasher.Verify(pass, *user.PasswordHash)
	if err != nil {
		return model.User{}, model.TokenPair{}, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return model.User{}, model.TokenPair{}, model.ErrInvalidCredentials
	}

	if user.Suspended {
		a.logger.Info("Auth service: login rejected, user suspended", "user_id", user.ID)
		return model.User{}, model.TokenPair{}, model.ErrForbidden
	}

	pair, err := a.issueTokens(ctx, user)
	if err != nil {
		return model.User{}, model.TokenPair{}, err
	}

	a.logger.Info("Auth service: user logged in", "user_id", user.ID)

	return user, pair, nil
}

// Logout deletes the session for the refresh token. An already absent
// session is not an error.
func (a *Auth) Logout(ctx context.Context, refreshToken string) error {
	if _, err := a.sessions.Delete(ctx, refreshToken); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// RefreshAccessToken exchanges a refresh token for a new access token.
// With rotate the refresh token is replaced; the delete-then-create pair is
// two store calls, so two concurrent rotations of one token can race and one
// of them loses with ErrUnauthorized.
func (a *Auth) RefreshAccessToken(ctx context.Context, refreshToken string, rotate bool) (model.TokenPair, error) {
	session, err := a.sessions.Get(ctx, refreshToken)
	if errors.Is(err, model.ErrNotFound) {
		return model.TokenPair{}, model.ErrUnauthorized
	}
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to get session: %w", err)
	}

	user, err := a.users.GetByID(ctx, session.UserID)
	if errors.Is(err, model.ErrNotFound) {
		// The owner is gone; drop the orphaned session.
		if _, delErr := a.sessions.Delete(ctx, refreshToken); delErr != nil {
			a.logger.Error("Auth service: failed to delete orphaned session",
				"user_id", session.UserID, "error", delErr.Error())
		}
		return model.TokenPair{}, model.ErrUnauthorized
	}
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to get user: %w", err)
	}

	if user.Suspended {
		if _, delErr := a.sessions.Delete(ctx, refreshToken); delErr != nil {
			a.logger.Error("Auth service: failed to delete suspended user session",
				"user_id", user.ID, "error", delErr.Error())
		}
		return model.TokenPair{}, model.ErrForbidden
	}

	access, err := a.tokens.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to generate access token: %w", err)
	}

	if !rotate {
		if err := a.sessions.Refresh(ctx, refreshToken, model.RefreshSessionTTL); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.TokenPair{}, model.ErrUnauthorized
			}
			return model.TokenPair{}, fmt.Errorf("failed to extend session: %w", err)
		}
		return model.TokenPair{AccessToken: access, RefreshToken: refreshToken}, nil
	}

	newRefresh, err := a.tokens.GenerateRefreshToken()
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if _, err := a.sessions.Delete(ctx, refreshToken); err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to delete rotated session: %w", err)
	}
	if err := a.sessions.Create(ctx, user.ID, newRefresh, model.RefreshSessionTTL); err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to create rotated session: %w", err)
	}

	return model.TokenPair{AccessToken: access, RefreshToken: newRefresh}, nil
}

// VerifyToken validates an access token. Expired and malformed tokens are
// logged as distinct kinds but both surface as ErrUnauthorized so a caller
// cannot probe which way verification failed.
func (a *Auth) VerifyToken(accessToken string) (model.TokenPayload, error) {
	payload, err := a.tokens.VerifyAccessToken(accessToken)
	if err != nil {
		a.logger.Debug("Auth service: access token rejected", "kind", err.Error())
		return model.TokenPayload{}, model.ErrUnauthorized
	}
	return payload, nil
}

// ChangePassword verifies the current password and swaps in the new one.
// With revokeAll every live session of the user is deleted, forcing every
// device to log in again.
func (a *Auth) ChangePassword(ctx context.Context, userID uuid.UUID, current, newPassword string, revokeAll bool) error {
	user, err := a.users.GetByID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !user.HasPassword() {
		return model.ErrInvalidCredentials
	}
	ok, err := a.hasher.Verify(current, *user.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return model.ErrInvalidCredentials
	}

	encoded, err := a.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = &encoded

	if _, err := a.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	if revokeAll {
		count, err := a.sessions.DeleteAllByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to revoke sessions: %w", err)
		}
		a.logger.Info("Auth service: password changed, sessions revoked",
			"user_id", userID, "revoked", count)
	}

	return nil
}

// RequestPasswordReset mints a short-lived opaque reset token keyed to the
// user. Delivering the token to the user is the caller's concern.
func (a *Auth) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := a.users.GetByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, model.ErrNotFound) {
		return "", model.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get user by email: %w", err)
	}

	token, err := a.tokens.GenerateRefreshToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}

	if err := a.sessions.Create(ctx, user.ID, token, model.ResetTokenTTL); err != nil {
		return "", fmt.Errorf("failed to store reset token: %w", err)
	}

	a.logger.Info("Auth service: password reset requested", "user_id", user.ID)

	return token, nil
}

// ResetPassword consumes a reset token, sets the new password and revokes
// every other session of the owning user.
func (a *Auth) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	session, err := a.sessions.Get(ctx, resetToken)
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrUnauthorized
	}
	if err != nil {
		return fmt.Errorf("failed to get reset token: %w", err)
	}

	user, err := a.users.GetByID(ctx, session.UserID)
	if errors.Is(err, model.ErrNotFound) {
		if _, delErr := a.sessions.Delete(ctx, resetToken); delErr != nil {
			a.logger.Error("Auth service: failed to delete orphaned reset token",
				"user_id", session.UserID, "error", delErr.Error())
		}
		return model.ErrUnauthorized
	}
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	encoded, err := a.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = &encoded

	if _, err := a.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	if _, err := a.sessions.Delete(ctx, resetToken); err != nil {
		return fmt.Errorf("failed to delete reset token: %w", err)
	}
	if _, err := a.sessions.DeleteAllByUser(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	a.logger.Info("Auth service: password reset completed", "user_id", user.ID)

	return nil
}

// RevokeAllSessions deletes every session owned by the user and returns how
// many were removed.
func (a *Auth) RevokeAllSessions(ctx context.Context, userID uuid.UUID) (int, error) {
	count, err := a.sessions.DeleteAllByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke sessions: %w", err)
	}
	return count, nil
}

// GetActiveSessions lists the user's live sessions.
func (a *Auth) GetActiveSessions(ctx context.Context, userID uuid.UUID) ([]model.Session, error) {
	sessions, err := a.sessions.GetAllByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// GetSessionCount returns the number of live sessions owned by the user.
func (a *Auth) GetSessionCount(ctx context.Context, userID uuid.UUID) (int, error) {
	count, err := a.sessions.CountByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

// SetSuspended toggles suspension. Sessions are deliberately left alone:
// suspension is enforced the next time anything re-touches the user record,
// so an access token issued before suspension stays valid for the remainder
// of its lifetime.
func (a *Auth) SetSuspended(ctx context.Context, userID uuid.UUID, suspended bool) (model.User, error) {
	user, err := a.users.GetByID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return model.User{}, model.ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to get user: %w", err)
	}

	user.Suspended = suspended
	updated, err := a.users.Update(ctx, user)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to update user: %w", err)
	}

	a.logger.Info("Auth service: suspension updated", "user_id", userID, "suspended", suspended)

	return updated, nil
}

func (a *Auth) issueTokens(ctx context.Context, user model.User) (model.TokenPair, error) {
	access, err := a.tokens.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to generate access token: %w", err)
	}

	refresh, err := a.tokens.GenerateRefreshToken()
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if err := a.sessions.Create(ctx, user.ID, refresh, model.RefreshSessionTTL); err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to create session: %w", err)
	}

	return model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
