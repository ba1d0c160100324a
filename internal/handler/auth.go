package handler

import (
	"net/http"

	"github.com/rs/xid"
	"go.uber.org/zap"

	"github.com/sakif/gitcord/internal/apperror"
	"github.com/sakif/gitcord/internal/auth"
	"github.com/sakif/gitcord/internal/service"
)

const stateCookieName = "oauth_state"

// AuthHandler runs the GitHub OAuth login flow and session endpoints.
//
//	GET  /auth/github/login     redirect to GitHub with a state cookie
//	GET  /auth/github/callback  exchange code, upsert user, set session cookie
//	POST /auth/logout           clear the cookie, drop the workspace
//	GET  /api/me                the signed-in account
type AuthHandler struct {
	responder
	github       *auth.GitHubProvider
	auth         *service.AuthService
	users        *service.UserService
	dashboard    *service.DashboardService
	tokens       *auth.TokenService
	cookieSecure bool
}

func NewAuthHandler(
	github *auth.GitHubProvider,
	authSvc *service.AuthService,
	users *service.UserService,
	dashboard *service.DashboardService,
	tokens *auth.TokenService,
	cookieSecure bool,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		responder:    responder{logger: logger.Named("auth")},
		github:       github,
		auth:         authSvc,
		users:        users,
		dashboard:    dashboard,
		tokens:       tokens,
		cookieSecure: cookieSecure,
	}
}

// HandleGitHubLogin redirects to GitHub. The random state is kept in a
// short-lived HttpOnly cookie and checked on callback.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		h.writeError(w, apperror.ValidationFailed("state", "invalid OAuth state"))
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: authorization denied", zap.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.writeError(w, apperror.MissingFields("code"))
		return
	}

	ghUser, ghToken, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", zap.Error(err))
		h.writeError(w, apperror.Upstream("github", err))
		return
	}

	result, err := h.auth.LoginOrRegisterGitHub(r.Context(), ghUser, ghToken)
	if err != nil {
		h.writeError(w, err)
		return
	}
	// A live workspace still holds the previous GitHub token; the next
	// request rebuilds it with the one just stored.
	h.dashboard.EndSession(result.User.ID)

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    result.Token,
		Path:     "/",
		MaxAge:   int(h.tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout clears the session cookie. A still-valid cookie also drops
// the user's workspace so its stores are released immediately.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(auth.CookieName); err == nil {
		if userID, err := h.auth.ValidateToken(c.Value); err == nil {
			h.dashboard.EndSession(userID)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	h.writeSuccess(w, http.StatusOK, nil)
}

func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	account, err := h.users.Account(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeSuccess(w, http.StatusOK, account)
}
