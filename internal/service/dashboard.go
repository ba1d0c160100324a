package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sakif/gitcord/internal/apperror"
	"github.com/sakif/gitcord/internal/dashboard"
	"github.com/sakif/gitcord/internal/model"
	"github.com/sakif/gitcord/internal/repository"
)

// WorkspaceProvider is satisfied by *dashboard.Manager.
type WorkspaceProvider interface {
	Workspace(ctx context.Context, userID string) (*dashboard.Workspace, error)
	Reset(userID string)
	Drop(userID string)
}

// DashboardService applies Gitcord's own rules (privacy, view counting) on
// top of the per-user GitHub workspaces.
type DashboardService struct {
	workspaces WorkspaceProvider
	users      repository.UserRepository
	accounts   repository.AccountRepository
	logger     *zap.Logger
}

func NewDashboardService(workspaces WorkspaceProvider, users repository.UserRepository,
	accounts repository.AccountRepository, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		workspaces: workspaces,
		users:      users,
		accounts:   accounts,
		logger:     logger.Named("dashboard"),
	}
}

func (s *DashboardService) Workspace(ctx context.Context, userID string) (*dashboard.Workspace, error) {
	return s.workspaces.Workspace(ctx, userID)
}

// CheckVisible decides whether viewerID may see username's profile panels.
//
// It returns the matching Gitcord user, or nil when username never signed in
// to Gitcord (plain GitHub users are always visible). A private profile reads
// as not found for everyone except its owner and moderators.
func (s *DashboardService) CheckVisible(ctx context.Context, viewerID, username string) (*model.User, error) {
	owner, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("service/dashboard: loading %s: %w", username, err)
	}
	if !owner.IsPrivate || owner.ID == viewerID {
		return owner, nil
	}

	viewer, err := s.users.GetByID(ctx, viewerID)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/dashboard: loading viewer %s: %w", viewerID, err)
	}
	if viewer != nil && viewer.IsModerator {
		return owner, nil
	}
	return nil, apperror.NotFound("user", username)
}

// RecordView counts a profile view of owner by viewerID. Owners viewing
// themselves do not count. Failures are logged only.
func (s *DashboardService) RecordView(ctx context.Context, viewerID string, owner *model.User) {
	if owner == nil || owner.ID == viewerID {
		return
	}
	if err := s.accounts.IncrementProfileViews(ctx, owner.ID); err != nil {
		s.logger.Warn("counting profile view failed", zap.String("user_id", owner.ID), zap.Error(err))
	}
}

// Navigate reports a route change; all stores reset when the path differs
// from the last one.
func (s *DashboardService) Navigate(ctx context.Context, userID, path string) (bool, error) {
	w, err := s.workspaces.Workspace(ctx, userID)
	if err != nil {
		return false, err
	}
	return w.Router.Navigate(path), nil
}

func (s *DashboardService) Snapshot(ctx context.Context, userID string) (map[string]any, error) {
	w, err := s.workspaces.Workspace(ctx, userID)
	if err != nil {
		return nil, err
	}
	return w.Registry.Snapshot(), nil
}

func (s *DashboardService) ResetStores(userID string) {
	s.workspaces.Reset(userID)
}

// PurgeCache drops the user's cached GitHub responses so the next fetches
// bypass the cache.
func (s *DashboardService) PurgeCache(ctx context.Context, userID string) error {
	w, err := s.workspaces.Workspace(ctx, userID)
	if err != nil {
		return err
	}
	return w.Purge(ctx)
}

// EndSession discards the user's workspace.
func (s *DashboardService) EndSession(userID string) {
	s.workspaces.Drop(userID)
}
