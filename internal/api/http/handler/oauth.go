package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/classhub/classhub-server/internal/logger"
	"github.com/classhub/classhub-server/internal/model"
	"github.com/classhub/classhub-server/internal/provider"
	"github.com/classhub/classhub-server/internal/service"
)

const (
	stateCookieName = "oauth_state"
	stateCookieTTL  = 10 * time.Minute
)

// OAuthService defines provider sign-in and account linking operations.
type OAuthService interface {
	HandleProviderCallback(ctx context.Context, profile model.ProviderProfile, tokens model.ProviderTokens) (service.CallbackResult, error)
	LinkOAuthAccount(ctx context.Context, userID uuid.UUID, profile model.ProviderProfile, tokens model.ProviderTokens) (model.OAuthAccount, error)
	UnlinkOAuthAccount(ctx context.Context, userID uuid.UUID, provider string) error
	GetUserOAuthAccounts(ctx context.Context, userID uuid.UUID) ([]model.OAuthAccount, error)
}

// OAuth handles HTTP endpoints for OAuth sign-in and account linking.
type OAuth struct {
	oauthService   OAuthService
	providers      provider.Registry
	sessions       model.SessionStore
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewOAuth creates a new OAuth handler.
func NewOAuth(
	oauthService OAuthService,
	providers provider.Registry,
	sessions model.SessionStore,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *OAuth {
	return &OAuth{
		oauthService:   oauthService,
		providers:      providers,
		sessions:       sessions,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Authorize redirects to the provider's consent page with a state token
// pinned in a short-lived cookie.
func (h *OAuth) Authorize(w http.ResponseWriter, r *http.Request) {
	adapter, ok := h.providers.Get(chi.URLParam(r, "provider"))
	if !ok {
		writeError(w, model.ErrNotFound)
		return
	}

	state, err := newState()
	if err != nil {
		h.logger.Error("OAuth handler: failed to generate state", "error", err.Error())
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/api/auth/oauth",
		MaxAge:   int(stateCookieTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, adapter.AuthURL(state), http.StatusFound)
}

type callbackResponse struct {
	User      userResponse  `json:"user"`
	Tokens    tokenResponse `json:"tokens"`
	IsNewUser bool          `json:"is_new_user"`
}

// Callback completes the provider flow: it verifies the state, exchanges the
// code, signs the user in (or up) and opens a session for the refresh token.
func (h *OAuth) Callback(w http.ResponseWriter, r *http.Request) {
	adapter, ok := h.providers.Get(chi.URLParam(r, "provider"))
	if !ok {
		writeError(w, model.ErrNotFound)
		return
	}

	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(stateCookieName)
	if state == "" || err != nil || cookie.Value != state {
		h.logger.Debug("OAuth handler: state mismatch", "provider", adapter.Name())
		writeError(w, model.ErrUnauthorized)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeBadRequest(w, "code is required")
		return
	}

	profile, providerTokens, err := adapter.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("OAuth handler: code exchange failed",
			"provider", adapter.Name(), "error", err.Error())
		writeError(w, err)
		return
	}

	result, err := h.oauthService.HandleProviderCallback(r.Context(), profile, providerTokens)
	if err != nil {
		h.logger.Error("OAuth handler: callback failed",
			"provider", adapter.Name(), "error", err.Error())
		writeError(w, err)
		return
	}

	if err := h.sessions.Create(r.Context(), result.User.ID, result.Tokens.RefreshToken, model.RefreshSessionTTL); err != nil {
		h.logger.Error("OAuth handler: failed to create session",
			"user_id", result.User.ID, "error", err.Error())
		writeError(w, err)
		return
	}

	h.logger.Info("OAuth handler: callback completed",
		"user_id", result.User.ID, "provider", adapter.Name(), "new_user", result.IsNewUser)

	writeJSON(w, http.StatusOK, callbackResponse{
		User: toUserResponse(result.User),
		Tokens: tokenResponse{
			AccessToken:  result.Tokens.AccessToken,
			RefreshToken: result.Tokens.RefreshToken,
		},
		IsNewUser: result.IsNewUser,
	})
}

type linkRequest struct {
	Code string `json:"code"`
}

type oauthAccountResponse struct {
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
}

// Link attaches a provider identity to the authenticated caller.
func (h *OAuth) Link(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	adapter, found := h.providers.Get(chi.URLParam(r, "provider"))
	if !found {
		writeError(w, model.ErrNotFound)
		return
	}

	var req linkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Code == "" {
		writeBadRequest(w, "code is required")
		return
	}

	profile, providerTokens, err := adapter.Exchange(r.Context(), req.Code)
	if err != nil {
		h.logger.Error("OAuth handler: code exchange failed",
			"provider", adapter.Name(), "error", err.Error())
		writeError(w, err)
		return
	}

	account, err := h.oauthService.LinkOAuthAccount(r.Context(), userID, profile, providerTokens)
	if err != nil {
		h.logger.Debug("OAuth handler: link failed",
			"user_id", userID, "provider", adapter.Name(), "error", err.Error())
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, oauthAccountResponse{
		Provider:  account.Provider,
		CreatedAt: account.CreatedAt,
	})
}

// Unlink detaches a provider identity from the authenticated caller.
func (h *OAuth) Unlink(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	providerName := chi.URLParam(r, "provider")
	if err := h.oauthService.UnlinkOAuthAccount(r.Context(), userID, providerName); err != nil {
		h.logger.Debug("OAuth handler: unlink failed",
			"user_id", userID, "provider", providerName, "error", err.Error())
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}

// Accounts lists the provider identities linked to the authenticated caller.
func (h *OAuth) Accounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	accounts, err := h.oauthService.GetUserOAuthAccounts(r.Context(), userID)
	if err != nil {
		h.logger.Error("OAuth handler: account listing failed",
			"user_id", userID, "error", err.Error())
		writeError(w, err)
		return
	}

	resp := make([]oauthAccountResponse, 0, len(accounts))
	for _, a := range accounts {
		resp = append(resp, oauthAccountResponse{Provider: a.Provider, CreatedAt: a.CreatedAt})
	}

	writeJSON(w, http.StatusOK, resp)
}

func newState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
