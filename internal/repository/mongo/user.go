package mongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/sakif/gitcord/internal/apperror"
	"github.com/sakif/gitcord/internal/model"
	"github.com/sakif/gitcord/internal/repository"
)

var _ repository.UserRepository = (*UserStore)(nil)

type UserStore struct {
	coll *mongo.Collection
}

// Upsert matches on github_id. Fields Gitcord owns (id, role, flags) are only
// written on insert.
func (s *UserStore) Upsert(ctx context.Context, user *model.User) error {
	update := upsertUpdate(user, time.Now().UTC(), xid.New().String())

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var stored model.User
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"github_id": user.GitHubID}, update, opts).Decode(&stored)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict("user", user.Username)
		}
		return fmt.Errorf("mongo: upserting user (githubID=%d): %w", user.GitHubID, err)
	}
	*user = stored
	return nil
}

// upsertUpdate builds the update document for Upsert. An empty email is
// removed rather than stored so the partial unique index on email skips it.
func upsertUpdate(user *model.User, now time.Time, newID string) bson.M {
	role := user.Role
	if role == "" {
		role = model.RoleUser
	}

	set := bson.M{
		"username":       user.Username,
		"username_lower": strings.ToLower(user.Username),
		"name":           user.Name,
		"avatar_url":     user.AvatarURL,
		"updated_at":     now,
	}
	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"_id":          newID,
			"github_id":    user.GitHubID,
			"role":         role,
			"is_moderator": user.IsModerator,
			"is_private":   user.IsPrivate,
			"created_at":   now,
		},
	}
	if user.Email != "" {
		set["email"] = user.Email
	} else {
		update["$unset"] = bson.M{"email": ""}
	}
	return update
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.findOne(ctx, bson.M{"_id": id}, id)
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.findOne(ctx, bson.M{"username_lower": strings.ToLower(username)}, username)
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M, label string) (*model.User, error) {
	var user model.User
	if err := s.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		if isNoDocuments(err) {
			return nil, apperror.NotFound("user", label)
		}
		return nil, fmt.Errorf("mongo: getting user %s: %w", label, err)
	}
	return &user, nil
}

func (s *UserStore) SetPrivacy(ctx context.Context, id string, private bool) error {
	return s.set(ctx, id, bson.M{"is_private": private})
}

func (s *UserStore) SetModerator(ctx context.Context, id string, moderator bool) error {
	return s.set(ctx, id, bson.M{"is_moderator": moderator})
}

func (s *UserStore) SetGitHubToken(ctx context.Context, id string, sealed []byte) error {
	return s.set(ctx, id, bson.M{"github_token": sealed})
}

func (s *UserStore) set(ctx context.Context, id string, fields bson.M) error {
	fields["updated_at"] = time.Now().UTC()
	res, err := s.coll.UpdateByID(ctx, id, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("mongo: updating user %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

func (s *UserStore) GitHubToken(ctx context.Context, id string) ([]byte, error) {
	var doc struct {
		Token []byte `bson:"github_token"`
	}
	opts := options.FindOne().SetProjection(bson.M{"github_token": 1})
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("mongo: reading github token for %s: %w", id, err)
	}
	return doc.Token, nil
}

func (s *UserStore) Count(ctx context.Context) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("mongo: counting users: %w", err)
	}
	return n, nil
}
