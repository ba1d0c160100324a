// Package server wires Gitcord's dependency graph and HTTP routes.
//
// New is the composition root: it receives the already-opened backends
// (repository store, cache, GitHub clients) from cmd/ and builds services,
// handlers and the chi router on top of them. Start runs the HTTP server and
// the background janitors until the context ends, then shuts down gracefully.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sakif/gitcord/internal/auth"
	"github.com/sakif/gitcord/internal/cache"
	"github.com/sakif/gitcord/internal/config"
	"github.com/sakif/gitcord/internal/dashboard"
	"github.com/sakif/gitcord/internal/github"
	"github.com/sakif/gitcord/internal/handler"
	"github.com/sakif/gitcord/internal/metrics"
	"github.com/sakif/gitcord/internal/middleware"
	"github.com/sakif/gitcord/internal/model"
	"github.com/sakif/gitcord/internal/repository"
	"github.com/sakif/gitcord/internal/service"
)

const janitorInterval = time.Minute

// Deps are the long-lived backends the server is built on. cmd/ opens them
// and owns their shutdown; the server only uses them.
type Deps struct {
	Store         repository.Store
	Cache         *cache.Cache
	GitHub        *github.Client
	Contributions dashboard.ContributionsAPI
	OAuth         *auth.GitHubProvider
	Metrics       *metrics.Metrics
	Gatherer      prometheus.Gatherer
	// Sweeper, when set, is called periodically to drop expired cache
	// entries (the in-memory backend has no expiry of its own).
	Sweeper interface{ Sweep() int }
	Logger  *zap.Logger
}

type Server struct {
	cfg     *config.Config
	deps    Deps
	router  *chi.Mux
	manager *dashboard.Manager
	logger  *zap.Logger
}

func New(cfg *config.Config, deps Deps) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("server: token service: %w", err)
	}
	vault, err := auth.NewVault(cfg.Auth.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("server: token vault: %w", err)
	}

	st := deps.Store
	logger := deps.Logger

	authSvc := service.NewAuthService(st.Users(), tokens, vault, logger)
	userSvc := service.NewUserService(st.Users(), st.Accounts(), logger)
	codeSvc := service.NewCodeService(st.Codes(), st.Accounts(), logger)
	messageSvc := service.NewMessageService(st.Users(), st.Messages())
	feedbackSvc := service.NewFeedbackService(st.Feedback())
	auditSvc := service.NewAuditService(st.AuditLogs(), deps.Metrics, logger)

	manager := dashboard.NewManager(deps.GitHub, deps.Contributions, deps.Cache, authSvc,
		cfg.Session.IdleTTL, deps.Metrics, logger)
	dashSvc := service.NewDashboardService(manager, st.Users(), st.Accounts(), logger)

	s := &Server{
		cfg:     cfg,
		deps:    deps,
		router:  chi.NewRouter(),
		manager: manager,
		logger:  logger,
	}

	h := handlers{
		auth:     handler.NewAuthHandler(deps.OAuth, authSvc, userSvc, dashSvc, tokens, cfg.Auth.CookieSecure, logger),
		code:     handler.NewCodeHandler(codeSvc, logger),
		message:  handler.NewMessageHandler(messageSvc, logger),
		user:     handler.NewUserHandler(userSvc, logger),
		feedback: handler.NewFeedbackHandler(feedbackSvc, logger),
		github:   handler.NewGitHubHandler(dashSvc, logger),
		session:  handler.NewSessionHandler(dashSvc, logger),
		audit:    handler.NewAuditHandler(auditSvc, logger),
	}
	s.routes(h, tokens, userSvc, auditSvc)
	return s, nil
}

type handlers struct {
	auth     *handler.AuthHandler
	code     *handler.CodeHandler
	message  *handler.MessageHandler
	user     *handler.UserHandler
	feedback *handler.FeedbackHandler
	github   *handler.GitHubHandler
	session  *handler.SessionHandler
	audit    *handler.AuditHandler
}

// routes mounts every endpoint. Middleware order: request id, real ip,
// logging, metrics, panic recovery; then per-group session, audit and
// moderator checks. Audit wraps the moderator check so refused attempts are
// recorded too.
func (s *Server) routes(h handlers, tokens *auth.TokenService, users *service.UserService, audit *service.AuditService) {
	r := s.router
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger.Named("http")))
	r.Use(middleware.Metrics(s.deps.Metrics))
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", handler.HandleHealth(s.deps.Store, s.logger))
	r.Handle("/metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/auth", func(r chi.Router) {
		r.Get("/github/login", h.auth.HandleGitHubLogin)
		r.Get("/github/callback", h.auth.HandleGitHubCallback)
		r.Post("/logout", h.auth.HandleLogout)
	})

	moderator := middleware.RequireModerator(users, s.logger)
	audited := func(action model.LogAction) func(http.Handler) http.Handler {
		return middleware.Audit(audit, action)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))

		r.Get("/me", h.auth.HandleMe)

		r.Route("/code", func(r chi.Router) {
			r.With(audited(model.ActionCreateCode), moderator).Post("/create", h.code.HandleCreate)
			r.With(audited(model.ActionDeleteCode), moderator).Delete("/delete", h.code.HandleDelete)
			r.With(audited(model.ActionListCodes), moderator).Get("/getAll", h.code.HandleList)
			r.With(audited(model.ActionRedeemCode)).Post("/redeem", h.code.HandleRedeem)
		})

		r.Route("/message", func(r chi.Router) {
			r.With(audited(model.ActionViewMessageStats), moderator).Get("/get-stats", h.message.HandleStats)
			r.With(audited(model.ActionSendMessage), moderator).Post("/send", h.message.HandleSend)
			r.Get("/inbox", h.message.HandleInbox)
			r.Post("/read", h.message.HandleRead)
		})

		r.With(audited(model.ActionUpdatePrivacy)).Post("/user/updatePrivacy", h.user.HandleUpdatePrivacy)

		r.With(audited(model.ActionSubmitFeedback)).Post("/feedback", h.feedback.HandleSubmit)
		r.With(moderator).Get("/feedback", h.feedback.HandleList)
		r.With(moderator).Get("/logs", h.audit.HandleList)

		r.Route("/github", func(r chi.Router) {
			r.Route("/users/{username}", func(r chi.Router) {
				r.Get("/", h.github.HandleUserProfile)
				r.Get("/repos", h.github.HandleUserRepos)
				r.Get("/orgs", h.github.HandleUserOrgs)
				r.Get("/events", h.github.HandleUserEvents)
				r.Get("/contributions", h.github.HandleContributions)
				r.Get("/overview", h.github.HandleOverview)
			})
			r.Route("/orgs/{org}", func(r chi.Router) {
				r.Get("/", h.github.HandleOrgProfile)
				r.Get("/repos", h.github.HandleOrgRepos)
				r.Get("/members", h.github.HandleOrgMembers)
			})
			r.Route("/repos/{owner}/{repo}", func(r chi.Router) {
				r.Get("/", h.github.HandleRepo)
				r.Get("/languages", h.github.HandleRepoLanguages)
				r.Get("/commits", h.github.HandleRepoCommits)
				r.Get("/commit-activity", h.github.HandleCommitActivity)
			})
		})

		r.Route("/session", func(r chi.Router) {
			r.Post("/navigate", h.session.HandleNavigate)
			r.Get("/stores", h.session.HandleStores)
			r.Delete("/stores", h.session.HandleReset)
		})
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves HTTP until ctx is canceled, then drains in-flight requests
// within the configured shutdown timeout.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("server starting",
			zap.Int("port", s.cfg.Server.Port),
			zap.String("url", s.cfg.Server.BaseURL),
			zap.String("database", s.cfg.Database.Driver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: listening: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		s.manager.Run(gctx, janitorInterval)
		return nil
	})

	if s.deps.Sweeper != nil {
		g.Go(func() error {
			ticker := time.NewTicker(janitorInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					if n := s.deps.Sweeper.Sweep(); n > 0 {
						s.logger.Debug("swept expired cache entries", zap.Int("count", n))
					}
				}
			}
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown: %w", err)
		}
		s.logger.Info("server stopped gracefully")
		return nil
	})

	return g.Wait()
}
