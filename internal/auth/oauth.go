package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// GitHubUser is the part of GET /user Gitcord stores.
type GitHubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"` // empty when hidden in GitHub settings
	AvatarURL string `json:"avatar_url"`
}

// GitHubProvider wraps golang.org/x/oauth2 for GitHub's authorization code flow.
//
// The code-for-token exchange is server to server using the client secret,
// so the GitHub access token never reaches the browser. Gitcord keeps it
// (sealed, see Vault) to call the REST API on the user's behalf.
type GitHubProvider struct {
	config *oauth2.Config
	apiURL string
}

// NewGitHubProvider builds a provider. apiURL is the REST base used to fetch
// the signed-in user ("https://api.github.com" in production).
//
// Scopes:
//   - "read:user"  public profile
//   - "user:email" email addresses
//   - "read:org"   organization membership for the org dashboards
func NewGitHubProvider(clientID, clientSecret, callbackURL, apiURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email", "read:org"},
			Endpoint:     github.Endpoint,
		},
		apiURL: strings.TrimRight(apiURL, "/"),
	}
}

// WithEndpoint overrides the OAuth endpoints; tests point it at httptest.
func (p *GitHubProvider) WithEndpoint(ep oauth2.Endpoint) *GitHubProvider {
	p.config.Endpoint = ep
	return p
}

// AuthURL returns the GitHub authorization URL. state is echoed back on the
// callback and compared against the state cookie to block CSRF logins.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the authorization code for an access token and loads the
// GitHub profile it belongs to.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*GitHubUser, *oauth2.Token, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	// config.Client adds "Authorization: Bearer <token>" to every request.
	client := p.config.Client(ctx, oauthToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiURL+"/user", nil)
	if err != nil {
		return nil, nil, fmt.Errorf("auth: building /user request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("auth: calling GitHub /user API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("auth: GitHub /user API returned status %d", resp.StatusCode)
	}

	var ghUser GitHubUser
	if err := json.NewDecoder(resp.Body).Decode(&ghUser); err != nil {
		return nil, nil, fmt.Errorf("auth: decoding GitHub /user response: %w", err)
	}
	if ghUser.ID == 0 {
		return nil, nil, fmt.Errorf("auth: GitHub returned an invalid user (ID = 0)")
	}

	return &ghUser, oauthToken, nil
}
