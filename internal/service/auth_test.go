package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/sakif/gitcord/internal/apperror"
	"github.com/sakif/gitcord/internal/auth"
	"github.com/sakif/gitcord/internal/model"
)

// fakeUserRepo is an in-memory repository.UserRepository. A hand-written
// fake keeps it obvious what each call does.
type fakeUserRepo struct {
	users  map[string]*model.User
	byGHID map[int64]*model.User
	tokens map[string][]byte
	nextID int

	upsertErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:  make(map[string]*model.User),
		byGHID: make(map[int64]*model.User),
		tokens: make(map[string][]byte),
	}
}

func (f *fakeUserRepo) Upsert(_ context.Context, user *model.User) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	if existing, ok := f.byGHID[user.GitHubID]; ok {
		existing.Username = user.Username
		existing.Email = user.Email
		existing.Name = user.Name
		existing.AvatarURL = user.AvatarURL
		existing.UpdatedAt = time.Now()
		*user = *existing
		return nil
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	user.Role = model.RoleUser
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	f.users[user.ID] = &stored
	f.byGHID[user.GitHubID] = &stored
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (f *fakeUserRepo) SetPrivacy(_ context.Context, id string, private bool) error {
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.IsPrivate = private
	return nil
}

func (f *fakeUserRepo) SetModerator(_ context.Context, id string, moderator bool) error {
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.IsModerator = moderator
	return nil
}

func (f *fakeUserRepo) SetGitHubToken(_ context.Context, id string, sealed []byte) error {
	if _, ok := f.users[id]; !ok {
		return apperror.NotFound("user", id)
	}
	f.tokens[id] = sealed
	return nil
}

func (f *fakeUserRepo) GitHubToken(_ context.Context, id string) ([]byte, error) {
	if _, ok := f.users[id]; !ok {
		return nil, apperror.NotFound("user", id)
	}
	return f.tokens[id], nil
}

func (f *fakeUserRepo) Count(_ context.Context) (int64, error) {
	return int64(len(f.users)), nil
}

const testSecret = "test-secret-at-least-16-chars!!"

func newTestAuthService(t *testing.T, repo *fakeUserRepo) *AuthService {
	t.Helper()
	ts, err := auth.NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)
	vault, err := auth.NewVault(testSecret)
	require.NoError(t, err)
	return NewAuthService(repo, ts, vault, zap.NewNop())
}

func TestLoginOrRegisterGitHub_NewUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	gh := &auth.GitHubUser{ID: 12345, Login: "octocat", Email: "octocat@github.com", Name: "The Octocat"}
	result, err := svc.LoginOrRegisterGitHub(context.Background(), gh, &oauth2.Token{AccessToken: "gho_abc"})
	require.NoError(t, err)

	assert.NotEmpty(t, result.User.ID)
	assert.Equal(t, "octocat", result.User.Username)
	assert.Equal(t, "The Octocat", result.User.Name)
	assert.NotEmpty(t, result.Token)
	assert.Len(t, repo.users, 1)

	userID, err := svc.ValidateToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, userID)
}

func TestLoginOrRegisterGitHub_ReturningUserKeepsID(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	ctx := context.Background()

	first, err := svc.LoginOrRegisterGitHub(ctx, &auth.GitHubUser{ID: 1, Login: "old-name"}, nil)
	require.NoError(t, err)
	second, err := svc.LoginOrRegisterGitHub(ctx, &auth.GitHubUser{ID: 1, Login: "new-name"}, nil)
	require.NoError(t, err)

	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Equal(t, "new-name", second.User.Username)
	assert.Len(t, repo.users, 1)
}

func TestLoginOrRegisterGitHub_TokenSealedAtRest(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	ctx := context.Background()

	result, err := svc.LoginOrRegisterGitHub(ctx, &auth.GitHubUser{ID: 7, Login: "octocat"}, &oauth2.Token{AccessToken: "gho_secret"})
	require.NoError(t, err)

	assert.NotContains(t, string(repo.tokens[result.User.ID]), "gho_secret")

	token, err := svc.GitHubToken(ctx, result.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "gho_secret", token)
}

func TestGitHubToken_NoneStored(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	ctx := context.Background()

	result, err := svc.LoginOrRegisterGitHub(ctx, &auth.GitHubUser{ID: 7, Login: "octocat"}, nil)
	require.NoError(t, err)

	token, err := svc.GitHubToken(ctx, result.User.ID)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestLoginOrRegisterGitHub_Errors(t *testing.T) {
	t.Run("nil user", func(t *testing.T) {
		svc := newTestAuthService(t, newFakeUserRepo())
		_, err := svc.LoginOrRegisterGitHub(context.Background(), nil, nil)
		assert.Error(t, err)
	})

	t.Run("repository failure", func(t *testing.T) {
		repo := newFakeUserRepo()
		repo.upsertErr = errors.New("disk full")
		svc := newTestAuthService(t, repo)

		_, err := svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{ID: 1, Login: "x"}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
	})
}

func TestGetUserByID(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	ctx := context.Background()

	result, err := svc.LoginOrRegisterGitHub(ctx, &auth.GitHubUser{ID: 1, Login: "octocat"}, nil)
	require.NoError(t, err)

	u, err := svc.GetUserByID(ctx, result.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "octocat", u.Username)

	_, err = svc.GetUserByID(ctx, "")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = svc.GetUserByID(ctx, "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())
	_, err := svc.ValidateToken("not.a.jwt")
	assert.Error(t, err)
}
