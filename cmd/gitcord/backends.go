package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/sakif/gitcord/internal/cache"
	"github.com/sakif/gitcord/internal/config"
	"github.com/sakif/gitcord/internal/logger"
	"github.com/sakif/gitcord/internal/repository"
	"github.com/sakif/gitcord/internal/repository/mongo"
	"github.com/sakif/gitcord/internal/repository/sqlite"
)

// setup loads configuration and builds the process logger.
func setup(configPath string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// openStore opens the configured repository backend.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (repository.Store, error) {
	switch cfg.Driver {
	case "mongo":
		db, err := mongo.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("opening mongo: %w", err)
		}
		return db, nil
	default:
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
			}
		}
		db, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite: %w", err)
		}
		return db, nil
	}
}

// openCacheBackend returns Redis when an address is configured and the
// in-memory backend otherwise. closeFn releases the Redis connection.
func openCacheBackend(ctx context.Context, cfg config.RedisConfig) (backend cache.Backend, memory *cache.Memory, closeFn func() error, err error) {
	if cfg.Addr == "" {
		m := cache.NewMemory()
		return m, m, func() error { return nil }, nil
	}
	client, err := cache.NewRedisClient(ctx, cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		return nil, nil, nil, err
	}
	return cache.NewRedis(client), nil, client.Close, nil
}
