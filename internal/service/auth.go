// Package service holds Gitcord's business rules.
//
// Handlers parse HTTP and call services; services validate, enforce
// permissions and call repositories. Nothing here knows about HTTP: failures
// are *apperror.AppError values the handler layer maps to status codes.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/sakif/gitcord/internal/apperror"
	"github.com/sakif/gitcord/internal/auth"
	"github.com/sakif/gitcord/internal/model"
	"github.com/sakif/gitcord/internal/repository"
)

// AuthService turns a completed GitHub OAuth exchange into a Gitcord session.
//
//	AuthHandler (HTTP) -> AuthService -> UserRepository
//	                                 \-> TokenService (JWT), Vault (GitHub token)
type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenService
	vault  *auth.Vault
	logger *zap.Logger
}

func NewAuthService(users repository.UserRepository, tokens *auth.TokenService, vault *auth.Vault, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		vault:  vault,
		logger: logger.Named("auth"),
	}
}

// AuthResult bundles the user and the issued session JWT so the handler can
// set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// LoginOrRegisterGitHub upserts the user on GitHubID, stores the sealed
// GitHub access token and issues a session token.
//
// Upsert keeps the internal ID stable across logins and refreshes the profile
// fields in case they changed on GitHub. Role and flags are never touched here.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser, ghToken *oauth2.Token) (*AuthResult, error) {
	if ghUser == nil {
		return nil, errors.New("service/auth: GitHub user must not be nil")
	}

	user := &model.User{
		GitHubID:  ghUser.ID,
		Username:  ghUser.Login,
		Email:     ghUser.Email,
		Name:      ghUser.Name,
		AvatarURL: ghUser.AvatarURL,
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", ghUser.ID, err)
	}

	if ghToken != nil && ghToken.AccessToken != "" {
		sealed, err := s.vault.Seal(ghToken.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("service/auth: sealing github token: %w", err)
		}
		if err := s.users.SetGitHubToken(ctx, user.ID, sealed); err != nil {
			return nil, fmt.Errorf("service/auth: storing github token for %s: %w", user.ID, err)
		}
	}

	s.logger.Info("user authenticated via GitHub",
		zap.String("user_id", user.ID),
		zap.String("username", user.Username),
	)

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// GetUserByID returns the session's user record.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.Unauthorized("Unauthorized")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}
	return user, nil
}

// ValidateToken returns the user id a session JWT encodes.
func (s *AuthService) ValidateToken(tokenStr string) (string, error) {
	userID, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return "", fmt.Errorf("service/auth: %w", err)
	}
	return userID, nil
}

// GitHubToken returns the user's plaintext GitHub access token, or "" when
// none was stored. It satisfies dashboard.TokenSource.
func (s *AuthService) GitHubToken(ctx context.Context, userID string) (string, error) {
	sealed, err := s.users.GitHubToken(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("service/auth: loading github token for %s: %w", userID, err)
	}
	if len(sealed) == 0 {
		return "", nil
	}
	token, err := s.vault.Open(sealed)
	if err != nil {
		return "", fmt.Errorf("service/auth: opening github token for %s: %w", userID, err)
	}
	return token, nil
}
