package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sakif/gitcord/internal/metrics"
)

func newTestContributions(t *testing.T, h http.HandlerFunc) *ContributionsClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewContributionsClient(srv.URL+"/v4", time.Second, metrics.NewNop(), zap.NewNop())
	c.now = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestContributions_FromAPI(t *testing.T) {
	c := newTestContributions(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v4/octocat", r.URL.Path)
		assert.Equal(t, "last", r.URL.Query().Get("y"))
		_, _ = w.Write([]byte(`{"total":{"lastYear":5},"contributions":[{"date":"2026-03-14","count":5,"level":2}]}`))
	})

	got, err := c.Get(context.Background(), "octocat")
	require.NoError(t, err)
	assert.False(t, got.Placeholder)
	assert.Equal(t, 5, got.Total)
	assert.Len(t, got.Days, 1)
}

func TestContributions_FallbackOnFailure(t *testing.T) {
	c := newTestContributions(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	got, err := c.Get(context.Background(), "octocat")
	require.NoError(t, err)
	assert.True(t, got.Placeholder)
	assert.Equal(t, "2026-03-15", got.Days[len(got.Days)-1].Date)
}

func TestContributions_CanceledContext(t *testing.T) {
	c := newTestContributions(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Get(ctx, "octocat")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPlaceholder_Deterministic(t *testing.T) {
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	a := Placeholder("Octocat", now)
	b := Placeholder("octocat", now)
	other := Placeholder("hubot", now)

	assert.Equal(t, a.Days, b.Days)
	assert.NotEqual(t, a.Days, other.Days)
	assert.Len(t, a.Days, 365)
	assert.Equal(t, "2025-03-16", a.Days[0].Date)

	sum := 0
	for _, d := range a.Days {
		sum += d.Count
		assert.Equal(t, levelFor(d.Count), d.Level)
	}
	assert.Equal(t, sum, a.Total)
}
