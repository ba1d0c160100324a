package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sakif/gitcord/internal/apperror"
	"github.com/sakif/gitcord/internal/cache"
	"github.com/sakif/gitcord/internal/dashboard"
	"github.com/sakif/gitcord/internal/github"
	"github.com/sakif/gitcord/internal/metrics"
)

// stubGitHub answers every call with a small fixed payload.
type stubGitHub struct{}

func (stubGitHub) GetUser(_ context.Context, u string) (*github.User, error) {
	return &github.User{Login: u}, nil
}
func (stubGitHub) ListUserRepos(context.Context, string) ([]github.Repo, error) { return nil, nil }
func (stubGitHub) ListUserOrgs(context.Context, string) ([]github.SimpleUser, error) { return nil, nil }
func (stubGitHub) ListUserEvents(context.Context, string) ([]github.Event, error) { return nil, nil }
func (stubGitHub) GetOrg(_ context.Context, o string) (*github.Org, error) { return &github.Org{Login: o}, nil }
func (stubGitHub) ListOrgRepos(context.Context, string) ([]github.Repo, error) { return nil, nil }
func (stubGitHub) ListOrgMembers(context.Context, string) ([]github.SimpleUser, error) { return nil, nil }
func (stubGitHub) GetRepo(_ context.Context, o, r string) (*github.Repo, error) {
	return &github.Repo{FullName: o + "/" + r}, nil
}
func (stubGitHub) ListLanguages(context.Context, string, string) (github.Languages, error) {
	return github.Languages{}, nil
}
func (stubGitHub) ListCommits(context.Context, string, string) ([]github.Commit, error) {
	return nil, nil
}
func (stubGitHub) CommitActivity(context.Context, string, string) ([]github.WeekActivity, error) {
	return nil, nil
}

type stubContributions struct{}

func (stubContributions) Get(_ context.Context, u string) (*github.Contributions, error) {
	return github.Placeholder(u, time.Now()), nil
}

// fakeWorkspaces is a WorkspaceProvider without eviction.
type fakeWorkspaces struct {
	cache      *cache.Cache
	workspaces map[string]*dashboard.Workspace
	resets     int
}

func newFakeWorkspaces() *fakeWorkspaces {
	return &fakeWorkspaces{
		cache:      cache.New(cache.NewMemory(), time.Minute, metrics.NewNop()),
		workspaces: make(map[string]*dashboard.Workspace),
	}
}

func (f *fakeWorkspaces) Workspace(_ context.Context, userID string) (*dashboard.Workspace, error) {
	if w, ok := f.workspaces[userID]; ok {
		return w, nil
	}
	w := dashboard.NewWorkspace(userID, stubGitHub{}, stubContributions{}, f.cache, func() { f.resets++ })
	f.workspaces[userID] = w
	return w, nil
}

func (f *fakeWorkspaces) Reset(userID string) {
	if w, ok := f.workspaces[userID]; ok {
		w.Registry.ResetAll()
	}
}

func (f *fakeWorkspaces) Drop(userID string) { delete(f.workspaces, userID) }

func TestDashboardService_CheckVisible(t *testing.T) {
	db := newTestStore(t)
	svc := NewDashboardService(newFakeWorkspaces(), db.Users(), db.Accounts(), zap.NewNop())
	ctx := context.Background()

	owner := createUser(t, db, 1, "hidden", false)
	require.NoError(t, db.Users().SetPrivacy(ctx, owner.ID, true))
	stranger := createUser(t, db, 2, "stranger", false)
	mod := createUser(t, db, 3, "mod", true)

	tests := []struct {
		name    string
		viewer  string
		target  string
		wantErr error
		wantNil bool
	}{
		{"owner sees own private profile", owner.ID, "hidden", nil, false},
		{"moderator sees private profile", mod.ID, "hidden", nil, false},
		{"stranger gets not found", stranger.ID, "hidden", apperror.ErrNotFound, true},
		{"public gitcord user", owner.ID, "stranger", nil, false},
		{"unregistered github user", stranger.ID, "torvalds", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := svc.CheckVisible(ctx, tt.viewer, tt.target)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantNil, u == nil)
		})
	}
}

func TestDashboardService_RecordView(t *testing.T) {
	db := newTestStore(t)
	svc := NewDashboardService(newFakeWorkspaces(), db.Users(), db.Accounts(), zap.NewNop())
	ctx := context.Background()

	owner := createUser(t, db, 1, "octocat", false)
	viewer := createUser(t, db, 2, "fan", false)

	svc.RecordView(ctx, viewer.ID, owner)
	svc.RecordView(ctx, viewer.ID, owner)
	svc.RecordView(ctx, owner.ID, owner)
	svc.RecordView(ctx, viewer.ID, nil)

	stats, err := db.Accounts().Stats(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.ProfileViews)
}

func TestDashboardService_NavigateResetsStores(t *testing.T) {
	db := newTestStore(t)
	ws := newFakeWorkspaces()
	svc := NewDashboardService(ws, db.Users(), db.Accounts(), zap.NewNop())
	ctx := context.Background()

	changed, err := svc.Navigate(ctx, "u1", "/user/octocat")
	require.NoError(t, err)
	assert.True(t, changed)

	w, _ := svc.Workspace(ctx, "u1")
	_, err = w.UserProfile.Fetch(ctx, "octocat")
	require.NoError(t, err)

	changed, _ = svc.Navigate(ctx, "u1", "/user/octocat?tab=repos")
	assert.False(t, changed)
	assert.Equal(t, 1, w.Registry.Size())

	changed, _ = svc.Navigate(ctx, "u1", "/org/golang")
	assert.True(t, changed)
	assert.Equal(t, 0, w.Registry.Size())
	assert.Equal(t, 2, ws.resets)

	snap, err := svc.Snapshot(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, snap, 12)

	svc.EndSession("u1")
	assert.Empty(t, ws.workspaces)
}
