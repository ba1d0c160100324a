// Package dashboard assembles the analytics stores of one signed-in user.
//
// A Workspace owns one store per dashboard panel. Every store is registered
// with the workspace's Registry, loads through the shared response cache, and
// calls GitHub with the user's own access token.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/gitcord/internal/apperror"
	"github.com/sakif/gitcord/internal/cache"
	"github.com/sakif/gitcord/internal/github"
	"github.com/sakif/gitcord/internal/store"
)

// GitHubAPI is the part of *github.Client the stores call.
type GitHubAPI interface {
	GetUser(ctx context.Context, username string) (*github.User, error)
	ListUserRepos(ctx context.Context, username string) ([]github.Repo, error)
	ListUserOrgs(ctx context.Context, username string) ([]github.SimpleUser, error)
	ListUserEvents(ctx context.Context, username string) ([]github.Event, error)
	GetOrg(ctx context.Context, org string) (*github.Org, error)
	ListOrgRepos(ctx context.Context, org string) ([]github.Repo, error)
	ListOrgMembers(ctx context.Context, org string) ([]github.SimpleUser, error)
	GetRepo(ctx context.Context, owner, repo string) (*github.Repo, error)
	ListLanguages(ctx context.Context, owner, repo string) (github.Languages, error)
	ListCommits(ctx context.Context, owner, repo string) ([]github.Commit, error)
	CommitActivity(ctx context.Context, owner, repo string) ([]github.WeekActivity, error)
}

type ContributionsAPI interface {
	Get(ctx context.Context, username string) (*github.Contributions, error)
}

// Store names, also used as cache entities and JSON keys.
const (
	StoreUserProfile    = "userProfile"
	StoreUserRepos      = "userRepos"
	StoreUserOrgs       = "userOrgs"
	StoreUserEvents     = "userEvents"
	StoreContributions  = "contributions"
	StoreOrgProfile     = "orgProfile"
	StoreOrgRepos       = "orgRepos"
	StoreOrgMembers     = "orgMembers"
	StoreRepoDetails    = "repoDetails"
	StoreRepoLanguages  = "repoLanguages"
	StoreRepoCommits    = "repoCommits"
	StoreCommitActivity = "commitActivity"
)

type Workspace struct {
	UserID   string
	Registry *store.Registry
	Router   *store.RouteWatcher

	UserProfile   *store.Store[github.User]
	UserRepos     *store.Store[[]github.Repo]
	UserOrgs      *store.Store[[]github.SimpleUser]
	UserEvents    *store.Store[[]github.Event]
	Contributions *store.Store[github.Contributions]

	OrgProfile *store.Store[github.Org]
	OrgRepos   *store.Store[[]github.Repo]
	OrgMembers *store.Store[[]github.SimpleUser]

	RepoDetails    *store.Store[github.Repo]
	RepoLanguages  *store.Store[github.Languages]
	RepoCommits    *store.Store[[]github.Commit]
	CommitActivity *store.Store[[]github.WeekActivity]

	cache    *cache.Cache
	lastSeen atomic.Int64
}

// NewWorkspace wires every store for userID. onReset runs after each
// route-driven reset.
func NewWorkspace(userID string, gh GitHubAPI, contrib ContributionsAPI, c *cache.Cache, onReset func()) *Workspace {
	reg := store.NewRegistry()
	w := &Workspace{
		UserID:   userID,
		Registry: reg,
		Router:   store.NewRouteWatcher(reg, onReset),
		cache:    c,
	}

	w.UserProfile = store.New(reg, StoreUserProfile, cached(c, StoreUserProfile, userID,
		func(ctx context.Context, u string) (github.User, error) { return deref(gh.GetUser(ctx, u)) }))
	w.UserRepos = store.New(reg, StoreUserRepos, cached(c, StoreUserRepos, userID, gh.ListUserRepos))
	w.UserOrgs = store.New(reg, StoreUserOrgs, cached(c, StoreUserOrgs, userID, gh.ListUserOrgs))
	w.UserEvents = store.New(reg, StoreUserEvents, cached(c, StoreUserEvents, userID, gh.ListUserEvents))
	w.Contributions = store.New(reg, StoreContributions, cached(c, StoreContributions, userID,
		func(ctx context.Context, u string) (github.Contributions, error) { return deref(contrib.Get(ctx, u)) }))

	w.OrgProfile = store.New(reg, StoreOrgProfile, cached(c, StoreOrgProfile, userID,
		func(ctx context.Context, o string) (github.Org, error) { return deref(gh.GetOrg(ctx, o)) }))
	w.OrgRepos = store.New(reg, StoreOrgRepos, cached(c, StoreOrgRepos, userID, gh.ListOrgRepos))
	w.OrgMembers = store.New(reg, StoreOrgMembers, cached(c, StoreOrgMembers, userID, gh.ListOrgMembers))

	w.RepoDetails = store.New(reg, StoreRepoDetails, cached(c, StoreRepoDetails, userID,
		byRepo(func(ctx context.Context, o, r string) (github.Repo, error) { return deref(gh.GetRepo(ctx, o, r)) })))
	w.RepoLanguages = store.New(reg, StoreRepoLanguages, cached(c, StoreRepoLanguages, userID, byRepo(gh.ListLanguages)))
	w.RepoCommits = store.New(reg, StoreRepoCommits, cached(c, StoreRepoCommits, userID, byRepo(gh.ListCommits)))
	w.CommitActivity = store.New(reg, StoreCommitActivity, cached(c, StoreCommitActivity, userID, byRepo(gh.CommitActivity)))

	w.Touch()
	return w
}

// RepoKey is the store key for a repository.
func RepoKey(owner, repo string) string {
	return owner + "/" + repo
}

// Touch marks the workspace as used now.
func (w *Workspace) Touch() {
	w.lastSeen.Store(time.Now().UnixNano())
}

func (w *Workspace) LastSeen() time.Time {
	return time.Unix(0, w.lastSeen.Load())
}

// Invalidate drops the cached response behind one store key, so the next
// fetch of that key goes to GitHub.
func (w *Workspace) Invalidate(ctx context.Context, storeName, key string) error {
	return w.cache.Invalidate(ctx, cache.Key{Entity: storeName, Query: key, Viewer: w.UserID})
}

// Purge drops every cached response fetched with this user's token.
func (w *Workspace) Purge(ctx context.Context) error {
	for _, name := range w.Registry.Names() {
		if err := w.cache.InvalidateEntity(ctx, name, w.UserID); err != nil {
			return fmt.Errorf("dashboard: purging %s: %w", name, err)
		}
	}
	return nil
}

// Overview is the combined state of a user's four profile panels.
type Overview struct {
	Profile store.Entry[github.User]         `json:"profile"`
	Repos   store.Entry[[]github.Repo]       `json:"repos"`
	Orgs    store.Entry[[]github.SimpleUser] `json:"orgs"`
	Events  store.Entry[[]github.Event]      `json:"events"`
}

// Overview fetches profile, repos, orgs and events concurrently. Per-store
// failures land in each entry's Error; only cancellation fails the call.
func (w *Workspace) Overview(ctx context.Context, username string) (*Overview, error) {
	var out Overview
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) { out.Profile, err = w.UserProfile.Fetch(gctx, username); return err })
	g.Go(func() (err error) { out.Repos, err = w.UserRepos.Fetch(gctx, username); return err })
	g.Go(func() (err error) { out.Orgs, err = w.UserOrgs.Fetch(gctx, username); return err })
	g.Go(func() (err error) { out.Events, err = w.UserEvents.Fetch(gctx, username); return err })

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

func cached[T any](c *cache.Cache, entity, viewer string, load func(ctx context.Context, key string) (T, error)) store.Loader[T] {
	return func(ctx context.Context, key string) (T, error) {
		return cache.Remember(ctx, c, cache.Key{Entity: entity, Query: key, Viewer: viewer},
			func(ctx context.Context) (T, error) { return load(ctx, key) })
	}
}

// byRepo adapts an (owner, repo) call to a "owner/repo" store key.
func byRepo[T any](fn func(ctx context.Context, owner, repo string) (T, error)) func(ctx context.Context, key string) (T, error) {
	return func(ctx context.Context, key string) (T, error) {
		owner, repo, ok := strings.Cut(key, "/")
		if !ok || owner == "" || repo == "" {
			var zero T
			return zero, apperror.ValidationFailed("repo", "repository must be owner/name")
		}
		return fn(ctx, owner, repo)
	}
}

func deref[T any](v *T, err error) (T, error) {
	if err != nil || v == nil {
		var zero T
		return zero, err
	}
	return *v, nil
}
