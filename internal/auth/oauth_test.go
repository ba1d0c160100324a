package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fakeGitHub serves the OAuth token endpoint and GET /user.
func fakeGitHub(t *testing.T, user GitHubUser) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"bad_verification_code"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token": "gho_test", "token_type": "bearer",
		})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer gho_test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(user)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestProvider(srv *httptest.Server) *GitHubProvider {
	return NewGitHubProvider("client", "secret", "http://localhost/cb", srv.URL).
		WithEndpoint(oauth2.Endpoint{
			AuthURL:   srv.URL + "/login/oauth/authorize",
			TokenURL:  srv.URL + "/login/oauth/access_token",
			AuthStyle: oauth2.AuthStyleInParams,
		})
}

func TestExchange(t *testing.T) {
	srv := fakeGitHub(t, GitHubUser{ID: 42, Login: "octocat", Name: "The Octocat"})
	p := newTestProvider(srv)

	user, token, err := p.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, int64(42), user.ID)
	assert.Equal(t, "octocat", user.Login)
	assert.Equal(t, "gho_test", token.AccessToken)
}

func TestExchange_BadCode(t *testing.T) {
	srv := fakeGitHub(t, GitHubUser{ID: 42, Login: "octocat"})

	_, _, err := newTestProvider(srv).Exchange(context.Background(), "bad-code")
	assert.Error(t, err)
}

func TestExchange_ZeroID(t *testing.T) {
	srv := fakeGitHub(t, GitHubUser{Login: "ghost"})

	_, _, err := newTestProvider(srv).Exchange(context.Background(), "good-code")
	assert.Error(t, err)
}

func TestAuthURL_CarriesState(t *testing.T) {
	srv := fakeGitHub(t, GitHubUser{ID: 1})

	raw := newTestProvider(srv).AuthURL("state-123")
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "state-123", u.Query().Get("state"))
	assert.Equal(t, "client", u.Query().Get("client_id"))
}
