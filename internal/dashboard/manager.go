package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sakif/gitcord/internal/cache"
	"github.com/sakif/gitcord/internal/github"
	"github.com/sakif/gitcord/internal/metrics"
)

// TokenSource resolves a user's GitHub access token (plaintext).
type TokenSource interface {
	GitHubToken(ctx context.Context, userID string) (string, error)
}

// Manager owns the live workspaces, one per signed-in user, and drops the
// ones that sit idle longer than the configured TTL.
type Manager struct {
	gh      *github.Client
	contrib ContributionsAPI
	cache   *cache.Cache
	tokens  TokenSource
	idleTTL time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

func NewManager(gh *github.Client, contrib ContributionsAPI, c *cache.Cache, tokens TokenSource,
	idleTTL time.Duration, m *metrics.Metrics, logger *zap.Logger) *Manager {
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	return &Manager{
		gh:         gh,
		contrib:    contrib,
		cache:      c,
		tokens:     tokens,
		idleTTL:    idleTTL,
		metrics:    m,
		logger:     logger.Named("workspaces"),
		workspaces: make(map[string]*Workspace),
	}
}

// Workspace returns the user's workspace, creating it on first use.
func (m *Manager) Workspace(ctx context.Context, userID string) (*Workspace, error) {
	m.mu.Lock()
	w, ok := m.workspaces[userID]
	m.mu.Unlock()
	if ok {
		w.Touch()
		return w, nil
	}

	// Token lookup hits the database; do it outside the lock.
	token, err := m.tokens.GitHubToken(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("dashboard: resolving github token: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.workspaces[userID]; ok {
		w.Touch()
		return w, nil
	}
	w = NewWorkspace(userID, m.gh.WithToken(token), m.contrib, m.cache, m.metrics.StoreResets.Inc)
	m.workspaces[userID] = w
	m.metrics.ActiveSessions.Set(float64(len(m.workspaces)))
	m.logger.Debug("workspace created", zap.String("user_id", userID))
	return w, nil
}

// Reset clears every store of the user's workspace, if it exists.
func (m *Manager) Reset(userID string) {
	m.mu.Lock()
	w, ok := m.workspaces[userID]
	m.mu.Unlock()
	if ok {
		w.Registry.ResetAll()
		m.metrics.StoreResets.Inc()
	}
}

// Drop discards the user's workspace, e.g. on logout.
func (m *Manager) Drop(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.workspaces[userID]; ok {
		delete(m.workspaces, userID)
		m.metrics.ActiveSessions.Set(float64(len(m.workspaces)))
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workspaces)
}

// Evict drops workspaces idle since before now-idleTTL and returns how many.
func (m *Manager) Evict(now time.Time) int {
	cutoff := now.Add(-m.idleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, w := range m.workspaces {
		if w.LastSeen().Before(cutoff) {
			delete(m.workspaces, id)
			n++
		}
	}
	m.metrics.ActiveSessions.Set(float64(len(m.workspaces)))
	return n
}

// Run evicts idle workspaces every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := m.Evict(now); n > 0 {
				m.logger.Info("evicted idle workspaces", zap.Int("count", n))
			}
		}
	}
}

