package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/classhub/classhub-server/internal/logger"
	"github.com/classhub/classhub-server/internal/model"
	"github.com/classhub/classhub-server/internal/service"
)

// AuthService defines registration, login and password lifecycle operations.
type AuthService interface {
	Register(ctx context.Context, params service.RegisterParams) (model.User, error)
	Login(ctx context.Context, email, password string) (model.User, model.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	RefreshAccessToken(ctx context.Context, refreshToken string, rotate bool) (model.TokenPair, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, current, newPassword string, revokeAll bool) error
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
	RevokeAllSessions(ctx context.Context, userID uuid.UUID) (int, error)
	GetActiveSessions(ctx context.Context, userID uuid.UUID) ([]model.Session, error)
}

// Auth handles HTTP endpoints for authentication.
type Auth struct {
	authService    AuthService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(authService AuthService, contextManager model.ContextManager, logger *logger.Logger) *Auth {
	return &Auth{
		authService:    authService,
		contextManager: contextManager,
		logger:         logger,
	}
}

type userResponse struct {
	ID    uuid.UUID  `json:"id"`
	Email string     `json:"email"`
	Name  string     `json:"name"`
	Role  model.Role `json:"role"`
}

func toUserResponse(user model.User) userResponse {
	return userResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type registerRequest struct {
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Name     string     `json:"name"`
	Role     model.Role `json:"role"`
}

// Register creates a new user account.
func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeBadRequest(w, "email and password are required")
		return
	}
	if req.Role == "" {
		req.Role = model.RoleStudent
	}

	user, err := h.authService.Register(r.Context(), service.RegisterParams{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     req.Role,
	})
	if err != nil {
		h.logger.Error("Auth handler: registration failed", "error", err.Error())
		writeError(w, err)
		return
	}

	h.logger.Info("Auth handler: registration completed", "user_id", user.ID)

	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User   userResponse  `json:"user"`
	Tokens tokenResponse `json:"tokens"`
}

// Login authenticates by email and password.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	user, pair, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Debug("Auth handler: login failed", "error", err.Error())
		writeError(w, err)
		return
	}

	h.logger.Info("Auth handler: login completed", "user_id", user.ID)

	writeJSON(w, http.StatusOK, loginResponse{
		User: toUserResponse(user),
		Tokens: tokenResponse{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
		},
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Logout deletes the session for the refresh token.
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if err := h.authService.Logout(r.Context(), req.RefreshToken); err != nil {
		h.logger.Error("Auth handler: logout failed", "error", err.Error())
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}

// Refresh exchanges a refresh token for a new token pair. The refresh token
// is rotated on every exchange.
func (h *Auth) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	pair, err := h.authService.RefreshAccessToken(r.Context(), req.RefreshToken, true)
	if err != nil {
		h.logger.Debug("Auth handler: refresh failed", "error", err.Error())
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword swaps the caller's password and revokes every session.
func (h *Auth) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.NewPassword == "" {
		writeBadRequest(w, "new password is required")
		return
	}

	if err := h.authService.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword, true); err != nil {
		h.logger.Debug("Auth handler: password change failed", "user_id", userID, "error", err.Error())
		writeError(w, err)
		return
	}

	h.logger.Info("Auth handler: password changed", "user_id", userID)

	writeJSON(w, http.StatusNoContent, nil)
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword mints a password reset token. The response never reveals
// whether the email exists; the token itself goes out through the mail
// delivery pipeline, not this endpoint.
func (h *Auth) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Email == "" {
		writeBadRequest(w, "email is required")
		return
	}

	if _, err := h.authService.RequestPasswordReset(r.Context(), req.Email); err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			h.logger.Error("Auth handler: password reset request failed", "error", err.Error())
			writeError(w, err)
			return
		}
		h.logger.Debug("Auth handler: password reset requested for unknown email")
	}

	writeJSON(w, http.StatusAccepted, nil)
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ResetPassword consumes a reset token and sets the new password.
func (h *Auth) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Token == "" || req.NewPassword == "" {
		writeBadRequest(w, "token and new password are required")
		return
	}

	if err := h.authService.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		h.logger.Debug("Auth handler: password reset failed", "error", err.Error())
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}

type sessionResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
}

// Sessions lists the caller's live sessions. Tokens stay server-side; only
// expiry metadata goes out.
func (h *Auth) Sessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	sessions, err := h.authService.GetActiveSessions(r.Context(), userID)
	if err != nil {
		h.logger.Error("Auth handler: session listing failed", "user_id", userID, "error", err.Error())
		writeError(w, err)
		return
	}

	resp := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		resp = append(resp, sessionResponse{ExpiresAt: s.ExpiresAt})
	}

	writeJSON(w, http.StatusOK, resp)
}

type revokeSessionsResponse struct {
	Revoked int `json:"revoked"`
}

// RevokeSessions deletes every session of the caller.
func (h *Auth) RevokeSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	count, err := h.authService.RevokeAllSessions(r.Context(), userID)
	if err != nil {
		h.logger.Error("Auth handler: session revocation failed", "user_id", userID, "error", err.Error())
		writeError(w, err)
		return
	}

	h.logger.Info("Auth handler: sessions revoked", "user_id", userID, "revoked", count)

	writeJSON(w, http.StatusOK, revokeSessionsResponse{Revoked: count})
}
