// Google OAuth2 login
//
// Authorization code flow against accounts.google.com plus the userinfo endpoint for identity.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/desertthunder/ytcat/internal/models"
	"github.com/desertthunder/ytcat/internal/shared"
)

const (
	googleAuthURL     = "https://accounts.google.com/o/oauth2/auth"
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

	youtubeReadonlyScope = "https://www.googleapis.com/auth/youtube.readonly"
)

// GoogleUser is the subset of the userinfo response ytcat keeps.
type GoogleUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// GoogleAuth implements [Authenticator] for Google accounts.
type GoogleAuth struct {
	config      *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

// GoogleAuthOption configures a [GoogleAuth].
type GoogleAuthOption func(*GoogleAuth)

// WithGoogleEndpoints overrides the authorization, token and userinfo URLs.
func WithGoogleEndpoints(authURL, tokenURL, userInfoURL string) GoogleAuthOption {
	return func(g *GoogleAuth) {
		g.config.Endpoint = oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL}
		g.userInfoURL = userInfoURL
	}
}

// WithGoogleHTTPClient sets the client used for the token exchange and userinfo calls.
func WithGoogleHTTPClient(c *http.Client) GoogleAuthOption {
	return func(g *GoogleAuth) { g.httpClient = c }
}

// NewGoogleAuth creates a [GoogleAuth] from the configured OAuth client.
func NewGoogleAuth(cfg shared.GoogleConfig, opts ...GoogleAuthOption) (*GoogleAuth, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: missing google client_id", shared.ErrMissingCredentials)
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing google client_secret", shared.ErrMissingCredentials)
	}
	if cfg.RedirectURI == "" {
		return nil, fmt.Errorf("%w: missing google redirect_uri", shared.ErrMissingCredentials)
	}

	g := &GoogleAuth{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{"openid", "email", "profile", youtubeReadonlyScope},
			Endpoint: oauth2.Endpoint{
				AuthURL:  googleAuthURL,
				TokenURL: googleTokenURL,
			},
		},
		userInfoURL: googleUserInfoURL,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// RedirectURL returns the configured OAuth callback.
func (g *GoogleAuth) RedirectURL() string {
	return g.config.RedirectURL
}

// AuthURL returns the consent page URL; offline access asks for a refresh token.
func (g *GoogleAuth) AuthURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for tokens.
func (g *GoogleAuth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: missing authorization code", shared.ErrAuthFailed)
	}

	token, err := g.config.Exchange(g.clientContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange auth code: %w", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// Profile loads the signed-in user's identity with token.
func (g *GoogleAuth) Profile(ctx context.Context, token *oauth2.Token) (*GoogleUser, error) {
	client := g.config.Client(g.clientContext(ctx), token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: userinfo status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var user GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo: %w", err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: userinfo response has no id", shared.ErrAuthFailed)
	}
	return &user, nil
}

// Login exchanges code and loads the profile, producing everything needed to upsert the user.
func (g *GoogleAuth) Login(ctx context.Context, code string) (*models.LoginProfile, error) {
	token, err := g.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	user, err := g.Profile(ctx, token)
	if err != nil {
		return nil, err
	}

	return &models.LoginProfile{
		ExternalID:   user.ID,
		Email:        user.Email,
		Name:         user.Name,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}, nil
}

func (g *GoogleAuth) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)
}
