package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sakif/gitcord/internal/apperror"
	"github.com/sakif/gitcord/internal/model"
	"github.com/sakif/gitcord/internal/repository"
)

type UserService struct {
	users    repository.UserRepository
	accounts repository.AccountRepository
	logger   *zap.Logger
}

func NewUserService(users repository.UserRepository, accounts repository.AccountRepository, logger *zap.Logger) *UserService {
	return &UserService{users: users, accounts: accounts, logger: logger.Named("users")}
}

// RequireModerator loads the session user and fails with Forbidden unless
// it is a moderator. A session whose user no longer exists is also Forbidden.
func (s *UserService) RequireModerator(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Forbidden("Forbidden")
		}
		return nil, fmt.Errorf("service/user: loading %s: %w", userID, err)
	}
	if !user.IsModerator {
		return nil, apperror.Forbidden("Forbidden")
	}
	return user, nil
}

// UpdatePrivacy sets the caller's own privacy flag and returns the new value.
func (s *UserService) UpdatePrivacy(ctx context.Context, userID string, private bool) (bool, error) {
	if err := s.users.SetPrivacy(ctx, userID, private); err != nil {
		return false, fmt.Errorf("service/user: updating privacy of %s: %w", userID, err)
	}
	return private, nil
}

// Account returns the user together with premium and stats.
func (s *UserService) Account(ctx context.Context, userID string) (*model.Account, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/user: loading %s: %w", userID, err)
	}
	premium, err := s.accounts.Premium(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/user: loading premium of %s: %w", userID, err)
	}
	stats, err := s.accounts.Stats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/user: loading stats of %s: %w", userID, err)
	}
	return &model.Account{User: user, Premium: premium, Stats: stats}, nil
}

// SetModerator grants or revokes the moderator flag by username. Used by the
// command line; there is no HTTP route for it.
func (s *UserService) SetModerator(ctx context.Context, username string, moderator bool) (*model.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("service/user: loading %s: %w", username, err)
	}
	if err := s.users.SetModerator(ctx, user.ID, moderator); err != nil {
		return nil, fmt.Errorf("service/user: setting moderator on %s: %w", username, err)
	}
	user.IsModerator = moderator
	s.logger.Info("moderator flag changed", zap.String("username", user.Username), zap.Bool("moderator", moderator))
	return user, nil
}

// SetPrivacyByUsername is the command line counterpart of UpdatePrivacy.
func (s *UserService) SetPrivacyByUsername(ctx context.Context, username string, private bool) (*model.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("service/user: loading %s: %w", username, err)
	}
	if err := s.users.SetPrivacy(ctx, user.ID, private); err != nil {
		return nil, fmt.Errorf("service/user: updating privacy of %s: %w", username, err)
	}
	user.IsPrivate = private
	return user, nil
}
