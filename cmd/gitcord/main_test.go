package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/gitcord/internal/model"
	"github.com/sakif/gitcord/internal/repository/sqlite"
)

func setupCLI(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	dbPath := filepath.Join(dir, "data", "gitcord.db")
	t.Setenv("GITCORD_AUTH_JWT_SECRET", "test-secret-at-least-16-chars!!")
	t.Setenv("GITCORD_DATABASE_PATH", dbPath)
	t.Setenv("GITCORD_LOG_LEVEL", "error")
	return dbPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestUserCommands(t *testing.T) {
	dbPath := setupCLI(t)

	// The first run creates the database; seed a user through it.
	_, err := run(t, "user", "promote", "octocat")
	require.Error(t, err)

	db, err := sqlite.New(dbPath)
	require.NoError(t, err)
	require.NoError(t, db.Users().Upsert(context.Background(), &model.User{GitHubID: 1, Username: "octocat"}))
	require.NoError(t, db.Close())

	out, err := run(t, "user", "promote", "octocat")
	require.NoError(t, err)
	assert.Equal(t, "octocat: moderator=true private=false\n", out)

	out, err = run(t, "user", "privacy", "octocat", "--private")
	require.NoError(t, err)
	assert.Equal(t, "octocat: moderator=true private=true\n", out)

	out, err = run(t, "user", "demote", "octocat")
	require.NoError(t, err)
	assert.Equal(t, "octocat: moderator=false private=true\n", out)
}

func TestUserCommand_RequiresUsername(t *testing.T) {
	setupCLI(t)
	_, err := run(t, "user", "promote")
	assert.Error(t, err)
}
