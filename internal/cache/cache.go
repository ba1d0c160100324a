// Package cache is the explicit response cache in front of GitHub.
//
// Entries are keyed by entity (which store the data belongs to), query (the
// store key, e.g. "octocat" or "golang/go") and viewer (the signed-in user,
// because responses depend on the token's visibility). Three operations:
//
//   - read:       Get
//   - fetch:      Remember (read, else call the loader and store its result)
//   - invalidate: Invalidate / InvalidateEntity
//
// Values are stored as JSON so the Redis and in-memory backends behave the
// same.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/gitcord/internal/metrics"
)

const prefix = "gitcord:"

// Key identifies one cached response.
type Key struct {
	Entity string
	Query  string
	Viewer string
}

func (k Key) String() string {
	return prefix + k.Entity + ":" + k.Viewer + ":" + strings.ToLower(k.Query)
}

// Backend stores raw JSON bytes with a TTL.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}

type Cache struct {
	backend Backend
	ttl     time.Duration
	metrics *metrics.Metrics
}

func New(backend Backend, ttl time.Duration, m *metrics.Metrics) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{backend: backend, ttl: ttl, metrics: m}
}

// Get decodes the cached value for key into dst and reports whether it was
// present.
func (c *Cache) Get(ctx context.Context, key Key, dst any) (bool, error) {
	raw, ok, err := c.backend.Get(ctx, key.String())
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		// A value we cannot decode is as good as absent.
		_ = c.backend.Delete(ctx, key.String())
		return false, nil
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key Key, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encoding %s: %w", key, err)
	}
	return c.backend.Set(ctx, key.String(), raw, c.ttl)
}

func (c *Cache) Invalidate(ctx context.Context, key Key) error {
	return c.backend.Delete(ctx, key.String())
}

// InvalidateEntity drops every cached response of one entity for one viewer.
func (c *Cache) InvalidateEntity(ctx context.Context, entity, viewer string) error {
	return c.backend.DeletePrefix(ctx, prefix+entity+":"+viewer+":")
}

// Remember returns the cached value for key, or calls load and caches a
// successful result. Backend errors never fail the call: the cache is an
// optimisation and the loader is the source of truth.
func Remember[T any](ctx context.Context, c *Cache, key Key, load func(ctx context.Context) (T, error)) (T, error) {
	var cached T
	if ok, err := c.Get(ctx, key, &cached); err == nil && ok {
		c.metrics.CacheLookups.WithLabelValues(key.Entity, "hit").Inc()
		return cached, nil
	}
	c.metrics.CacheLookups.WithLabelValues(key.Entity, "miss").Inc()

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	_ = c.Set(ctx, key, v)
	return v, nil
}
