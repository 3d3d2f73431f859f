package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/classhub/classhub-server/internal/config"
	"github.com/classhub/classhub-server/internal/model"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type googleAdapter struct {
	conf        *oauth2.Config
	httpClient  *http.Client
	userInfoURL string
}

// NewGoogle creates a Google OAuth adapter from provider credentials.
func NewGoogle(cfg config.Provider) Adapter {
	return &googleAdapter{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		userInfoURL: googleUserInfoURL,
	}
}

func (a *googleAdapter) Name() string {
	return "google"
}

func (a *googleAdapter) AuthURL(state string) string {
	return a.conf.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func (a *googleAdapter) Exchange(ctx context.Context, code string) (model.ProviderProfile, model.ProviderTokens, error) {
	tok, err := a.conf.Exchange(ctx, code)
	if err != nil {
		return model.ProviderProfile{}, model.ProviderTokens{},
			fmt.Errorf("%w: code exchange failed", model.ErrInvalidCredentials)
	}

	user, err := a.fetchUser(ctx, tok.AccessToken)
	if err != nil {
		return model.ProviderProfile{}, model.ProviderTokens{},
			fmt.Errorf("failed to fetch google user: %w", err)
	}
	if user.Email == "" {
		return model.ProviderProfile{}, model.ProviderTokens{},
			fmt.Errorf("%w: google profile has no email", model.ErrInvalidState)
	}

	profile := model.ProviderProfile{
		Provider:  a.Name(),
		SubjectID: user.ID,
		Email:     user.Email,
		Name:      user.Name,
	}

	return profile, providerTokens(tok), nil
}

func (a *googleAdapter) fetchUser(ctx context.Context, accessToken string) (*googleUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google api returned status %d", resp.StatusCode)
	}

	var user googleUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

type googleUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// providerTokens converts an oauth2 token into stored token material.
func providerTokens(tok *oauth2.Token) model.ProviderTokens {
	tokens := model.ProviderTokens{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}
	if idToken, ok := tok.Extra("id_token").(string); ok {
		tokens.IDToken = idToken
	}
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry
		tokens.ExpiresAt = &expiry
	}
	return tokens
}

var _ Adapter = (*googleAdapter)(nil)
