package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/classhub/classhub-server/internal/config"
	"github.com/classhub/classhub-server/internal/model"
)

const githubAPIBaseURL = "https://api.github.com"

type githubAdapter struct {
	conf       *oauth2.Config
	httpClient *http.Client
	apiBaseURL string
}

// NewGitHub creates a GitHub OAuth adapter from provider credentials.
func NewGitHub(cfg config.Provider) Adapter {
	return &githubAdapter{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiBaseURL: githubAPIBaseURL,
	}
}

func (a *githubAdapter) Name() string {
	return "github"
}

func (a *githubAdapter) AuthURL(state string) string {
	return a.conf.AuthCodeURL(state)
}

func (a *githubAdapter) Exchange(ctx context.Context, code string) (model.ProviderProfile, model.ProviderTokens, error) {
	tok, err := a.conf.Exchange(ctx, code)
	if err != nil {
		return model.ProviderProfile{}, model.ProviderTokens{},
			fmt.Errorf("%w: code exchange failed", model.ErrInvalidCredentials)
	}

	user, err := a.fetchUser(ctx, tok.AccessToken)
	if err != nil {
		return model.ProviderProfile{}, model.ProviderTokens{},
			fmt.Errorf("failed to fetch github user: %w", err)
	}

	email := user.Email
	if email == "" {
		// The profile email is often hidden; the emails endpoint lists the
		// primary address regardless.
		email, err = a.fetchPrimaryEmail(ctx, tok.AccessToken)
		if err != nil {
			return model.ProviderProfile{}, model.ProviderTokens{},
				fmt.Errorf("failed to fetch github emails: %w", err)
		}
	}
	if email == "" {
		return model.ProviderProfile{}, model.ProviderTokens{},
			fmt.Errorf("%w: github profile has no email", model.ErrInvalidState)
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}

	profile := model.ProviderProfile{
		Provider:  a.Name(),
		SubjectID: strconv.FormatInt(user.ID, 10),
		Email:     email,
		Name:      name,
	}

	return profile, providerTokens(tok), nil
}

func (a *githubAdapter) fetchUser(ctx context.Context, accessToken string) (*githubUser, error) {
	var user githubUser
	if err := a.getJSON(ctx, accessToken, "/user", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *githubAdapter) fetchPrimaryEmail(ctx context.Context, accessToken string) (string, error) {
	var emails []githubEmail
	if err := a.getJSON(ctx, accessToken, "/user/emails", &emails); err != nil {
		return "", err
	}

	for _, e := range emails {
		if e.Primary {
			return e.Email, nil
		}
	}
	for _, e := range emails {
		if e.Email != "" {
			return e.Email, nil
		}
	}
	return "", nil
}

func (a *githubAdapter) getJSON(ctx context.Context, accessToken, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.apiBaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github api returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

type githubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type githubEmail struct {
	Email   string `json:"email"`
	Primary bool   `json:"primary"`
}

var _ Adapter = (*githubAdapter)(nil)
