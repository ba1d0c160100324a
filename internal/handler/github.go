package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sakif/gitcord/internal/auth"
	"github.com/sakif/gitcord/internal/dashboard"
	"github.com/sakif/gitcord/internal/github"
	"github.com/sakif/gitcord/internal/model"
	"github.com/sakif/gitcord/internal/service"
	"github.com/sakif/gitcord/internal/store"
)

// GitHubHandler exposes the workspace stores. Each endpoint runs the store's
// fetch for one key and answers with the resulting store state:
//
//	{"data": <payload|null>, "loading": false, "error": <string|null>}
//
// GitHub failures land in "error" with status 200, the same way a dashboard
// panel shows them. Only Gitcord's own rules (session, privacy) produce
// error statuses.
type GitHubHandler struct {
	responder
	dashboard *service.DashboardService
}

func NewGitHubHandler(dashboard *service.DashboardService, logger *zap.Logger) *GitHubHandler {
	return &GitHubHandler{responder: responder{logger: logger.Named("github")}, dashboard: dashboard}
}

// serveStore fetches key from the store pick selects in the caller's
// workspace and writes the entry. With ?refresh=true the cached GitHub
// response is dropped first.
func serveStore[T any](h *GitHubHandler, w http.ResponseWriter, r *http.Request,
	pick func(*dashboard.Workspace) *store.Store[T], key string) (store.Entry[T], bool) {
	userID, _ := auth.UserIDFromContext(r.Context())
	ws, err := h.dashboard.Workspace(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return store.Entry[T]{}, false
	}
	s := pick(ws)
	if r.URL.Query().Get("refresh") == "true" {
		if err := ws.Invalidate(r.Context(), s.Name(), key); err != nil {
			h.logger.Warn("cache invalidation failed", zap.String("store", s.Name()), zap.Error(err))
		}
	}
	entry, err := s.Fetch(r.Context(), key)
	if err != nil {
		h.writeError(w, err)
		return entry, false
	}
	h.writeJSON(w, http.StatusOK, entry)
	return entry, true
}

// visibleUser applies the privacy rule for the {username} route parameter.
func (h *GitHubHandler) visibleUser(w http.ResponseWriter, r *http.Request) (string, *model.User, bool) {
	username := chi.URLParam(r, "username")
	viewerID, _ := auth.UserIDFromContext(r.Context())
	owner, err := h.dashboard.CheckVisible(r.Context(), viewerID, username)
	if err != nil {
		h.writeError(w, err)
		return "", nil, false
	}
	return username, owner, true
}

func (h *GitHubHandler) HandleUserProfile(w http.ResponseWriter, r *http.Request) {
	username, owner, ok := h.visibleUser(w, r)
	if !ok {
		return
	}
	entry, ok := serveStore(h, w, r, func(ws *dashboard.Workspace) *store.Store[github.User] { return ws.UserProfile }, username)
	if ok && entry.Data != nil {
		viewerID, _ := auth.UserIDFromContext(r.Context())
		h.dashboard.RecordView(r.Context(), viewerID, owner)
	}
}

func (h *GitHubHandler) HandleUserRepos(w http.ResponseWriter, r *http.Request) {
	if username, _, ok := h.visibleUser(w, r); ok {
		serveStore(h, w, r, func(ws *dashboard.Workspace) *store.Store[[]github.Repo] { return ws.UserRepos }, username)
	}
}

func (h *GitHubHandler) HandleUserOrgs(w http.ResponseWriter, r *http.Request) {
	if username, _, ok := h.visibleUser(w, r); ok {
		serveStore(h, w, r, func(ws *dashboard.Workspace) *store.Store[[]github.SimpleUser] { return ws.UserOrgs }, username)
	}
}

func (h *GitHubHandler) HandleUserEvents(w http.ResponseWriter, r *http.Request) {
	if username, _, ok := h.visibleUser(w, r); ok {
		serveStore(h, w, r, func(ws *dashboard.Workspace) *store.Store[[]github.Event] { return ws.UserEvents }, username)
	}
}

func (h *GitHubHandler) HandleContributions(w http.ResponseWriter, r *http.Request) {
	if username, _, ok := h.visibleUser(w, r); ok {
		serveStore(h, w, r, func(ws *dashboard.Workspace) *store.Store[github.Contributions] { return ws.Contributions }, username)
	}
}

// HandleOverview returns profile, repos, orgs and events in one response.
func (h *GitHubHandler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	username, owner, ok := h.visibleUser(w, r)
	if !ok {
		return
	}
	viewerID, _ := auth.UserIDFromContext(r.Context())
	ws, err := h.dashboard.Workspace(r.Context(), viewerID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	ov, err := ws.Overview(r.Context(), username)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if ov.Profile.Data != nil {
		h.dashboard.RecordView(r.Context(), viewerID, owner)
	}
	h.writeJSON(w, http.StatusOK, ov)
}

func (h *GitHubHandler) HandleOrgProfile(w http.ResponseWriter, r *http.Request) {
	serveStore(h, w, r, func(ws *dashboard.Workspace) *store.Store[github.Org] { return ws.OrgProfile }, chi.URLParam(r, "org"))
}

func (h *GitHubHandler) HandleOrgRepos(w http.ResponseWriter, r *http.Request) {
	serveStore(h, w, r, func(ws *dashboard.Workspace) *store.Store[[]github.Repo] { return ws.OrgRepos }, chi.URLParam(r, "org"))
}

func (h *GitHubHandler) HandleOrgMembers(w http.ResponseWriter, r *http.Request) {
	serveStore(h, w, r, func(ws *dashboard.Workspace) *store.Store[[]github.SimpleUser] { return ws.OrgMembers }, chi.URLParam(r, "org"))
}

func repoKey(r *http.Request) string {
	return dashboard.RepoKey(chi.URLParam(r, "owner"), chi.URLParam(r, "repo"))
}

func (h *GitHubHandler) HandleRepo(w http.ResponseWriter, r *http.Request) {
	serveStore(h, w, r, func(ws *dashboard.Workspace) *store.Store[github.Repo] { return ws.RepoDetails }, repoKey(r))
}

func (h *GitHubHandler) HandleRepoLanguages(w http.ResponseWriter, r *http.Request) {
	serveStore(h, w, r, func(ws *dashboard.Workspace) *store.Store[github.Languages] { return ws.RepoLanguages }, repoKey(r))
}

func (h *GitHubHandler) HandleRepoCommits(w http.ResponseWriter, r *http.Request) {
	serveStore(h, w, r, func(ws *dashboard.Workspace) *store.Store[[]github.Commit] { return ws.RepoCommits }, repoKey(r))
}

func (h *GitHubHandler) HandleCommitActivity(w http.ResponseWriter, r *http.Request) {
	serveStore(h, w, r, func(ws *dashboard.Workspace) *store.Store[[]github.WeekActivity] { return ws.CommitActivity }, repoKey(r))
}
