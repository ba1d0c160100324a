package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sakif/gitcord/internal/model"
	"github.com/sakif/gitcord/internal/repository/sqlite"
)

// newTestStore returns a fresh in-memory database closed at test end.
func newTestStore(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createUser(t *testing.T, db *sqlite.DB, githubID int64, username string, moderator bool) *model.User {
	t.Helper()
	ctx := context.Background()
	u := &model.User{GitHubID: githubID, Username: username}
	require.NoError(t, db.Users().Upsert(ctx, u))
	if moderator {
		require.NoError(t, db.Users().SetModerator(ctx, u.ID, true))
		u.IsModerator = true
	}
	return u
}

func ptr[T any](v T) *T { return &v }
