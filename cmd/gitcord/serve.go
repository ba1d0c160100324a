package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sakif/gitcord/internal/auth"
	"github.com/sakif/gitcord/internal/cache"
	"github.com/sakif/gitcord/internal/github"
	"github.com/sakif/gitcord/internal/metrics"
	"github.com/sakif/gitcord/internal/server"
)

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, log, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			store, err := openStore(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer store.Close()

			backend, memory, closeCache, err := openCacheBackend(ctx, cfg.Redis)
			if err != nil {
				return err
			}
			defer closeCache() //nolint:errcheck

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			m := metrics.New(reg)

			deps := server.Deps{
				Store: store,
				Cache: cache.New(backend, cfg.Cache.TTL, m),
				GitHub: github.NewClient(github.Options{
					BaseURL:           cfg.GitHub.APIURL,
					Timeout:           cfg.GitHub.Timeout,
					RequestsPerSecond: cfg.GitHub.RequestsPerSecond,
					MaxCommitPages:    cfg.GitHub.MaxCommitPages,
				}, m, log),
				Contributions: github.NewContributionsClient(cfg.GitHub.ContributionsURL, cfg.GitHub.Timeout, m, log),
				OAuth:         auth.NewGitHubProvider(cfg.GitHub.ClientID, cfg.GitHub.ClientSecret, cfg.GitHub.CallbackURL, cfg.GitHub.APIURL),
				Metrics:       m,
				Gatherer:      reg,
				Logger:        log,
			}
			if memory != nil {
				deps.Sweeper = memory
			}
			if cfg.GitHub.ClientID == "" {
				log.Warn("github.client_id is empty; sign-in will fail until it is configured")
			}

			srv, err := server.New(cfg, deps)
			if err != nil {
				return err
			}
			log.Info("backends ready",
				zap.String("database", cfg.Database.Driver),
				zap.Bool("redis_cache", cfg.Redis.Addr != ""),
			)
			return srv.Start(ctx)
		},
	}
}
