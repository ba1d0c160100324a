package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/sakif/gitcord/internal/model"
	"github.com/sakif/gitcord/internal/repository"
)

// The tests in this file build query documents only and need no server.

func applyFind(t *testing.T, b *options.FindOptionsBuilder) options.FindOptions {
	t.Helper()
	var fo options.FindOptions
	for _, set := range b.Opts {
		require.NoError(t, set(&fo))
	}
	return fo
}

func TestFindPage(t *testing.T) {
	tests := []struct {
		name      string
		opts      repository.ListOptions
		wantLimit int64
		wantSkip  int64
	}{
		{"defaults", repository.ListOptions{}, 20, 0},
		{"explicit", repository.ListOptions{Limit: 5, Offset: 10}, 5, 10},
		{"limit capped", repository.ListOptions{Limit: 500}, 100, 0},
		{"negative offset", repository.ListOptions{Limit: 3, Offset: -4}, 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fo := applyFind(t, findPage(tt.opts))
			require.NotNil(t, fo.Limit)
			require.NotNil(t, fo.Skip)
			assert.Equal(t, tt.wantLimit, *fo.Limit)
			assert.Equal(t, tt.wantSkip, *fo.Skip)
			assert.Equal(t, bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}, fo.Sort)
		})
	}
}

func TestUpsertUpdate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("with email", func(t *testing.T) {
		u := &model.User{GitHubID: 7, Username: "OctoCat", Email: "o@example.com", IsPrivate: true}
		update := upsertUpdate(u, now, "id-1")

		set := update["$set"].(bson.M)
		assert.Equal(t, "OctoCat", set["username"])
		assert.Equal(t, "octocat", set["username_lower"])
		assert.Equal(t, "o@example.com", set["email"])
		assert.Equal(t, now, set["updated_at"])
		assert.NotContains(t, update, "$unset")

		onInsert := update["$setOnInsert"].(bson.M)
		assert.Equal(t, "id-1", onInsert["_id"])
		assert.Equal(t, int64(7), onInsert["github_id"])
		assert.Equal(t, model.RoleUser, onInsert["role"])
		assert.Equal(t, true, onInsert["is_private"])
		assert.Equal(t, now, onInsert["created_at"])
	})

	t.Run("without email", func(t *testing.T) {
		u := &model.User{GitHubID: 8, Username: "ghost", Role: model.RoleAdmin}
		update := upsertUpdate(u, now, "id-2")

		assert.NotContains(t, update["$set"].(bson.M), "email")
		assert.Equal(t, bson.M{"email": ""}, update["$unset"])
		assert.Equal(t, model.RoleAdmin, update["$setOnInsert"].(bson.M)["role"])
	})

	t.Run("owned fields only on insert", func(t *testing.T) {
		u := &model.User{GitHubID: 9, Username: "mod", IsModerator: true}
		set := upsertUpdate(u, now, "id-3")["$set"].(bson.M)
		for _, owned := range []string{"_id", "github_id", "role", "is_moderator", "is_private", "created_at"} {
			assert.NotContains(t, set, owned)
		}
	})
}

func TestConsumeFilter(t *testing.T) {
	f := consumeFilter("code-1")
	assert.Equal(t, "code-1", f["_id"])
	assert.Equal(t, bson.M{"$lt": bson.A{"$used_count", "$usage_limit"}}, f["$expr"])
}
