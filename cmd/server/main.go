package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"entra-demo/internal/audit"
	"entra-demo/internal/config"
	internaldb "entra-demo/internal/db"
	"entra-demo/internal/db/repository"
	"entra-demo/internal/graph"
	"entra-demo/internal/identity"
	"entra-demo/internal/middleware"
	"entra-demo/internal/service/downstream"
	"entra-demo/internal/session"
	"entra-demo/internal/ui"
)

func main() {
	ctx := context.Background()

	// Load .env file (if present)
	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Warn("could not load .env", "error", err)
	}

	cfg := config.LoadFromEnv()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	for _, warning := range cfg.Warnings {
		logger.Warn(warning)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Session store: Redis when configured, in-memory otherwise.
	var store session.Store
	if cfg.RedisURL != "" {
		redisStore, err := session.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("redis session store", "error", err)
			os.Exit(1)
		}
		defer redisStore.Close() //nolint:errcheck
		store = redisStore
		logger.Info("using redis session store")
	} else {
		store = session.NewMemoryStore()
		logger.Info("using in-memory session store (sessions do not survive restarts)")
	}
	sessions := session.NewManager(store, cfg.IsProduction())

	// Audit schema migration is best-effort: an unreachable database must not
	// prevent the login flow from serving.
	if cfg.HasDBConfig() {
		if pool, err := internaldb.OpenPostgres(cfg.PostgresDSN()); err != nil {
			logger.Warn("audit database unavailable, skipping migrations", "error", err)
		} else {
			if err := internaldb.RunMigrations(pool); err != nil {
				logger.Warn("audit migrations failed", "error", err)
			}
			_ = pool.Close()
		}
	}

	// The recorder dials per insert, so it is constructed even when the
	// database is down or unconfigured; failures are logged and swallowed.
	recorder := audit.NewRecorder(
		repository.NewLoginRepo(cfg.PostgresDSN()),
		logger.With("component", "audit"),
	)

	// Identity gateway requires client credentials and a reachable authority.
	// Without credentials the routes serve the config-error page instead.
	var gateway ui.AuthGateway
	var downstreamSvc ui.DownstreamService
	if cfg.HasClientCredentials() {
		gw, err := identity.New(ctx, identity.Config{
			Authority:    cfg.Authority,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL(),
			Scopes:       config.Scopes,
		}, logger.With("component", "identity"))
		if err != nil {
			logger.Error("identity provider discovery", "authority", cfg.Authority, "error", err)
			os.Exit(1)
		}
		gateway = gw
		downstreamSvc = downstream.NewService(
			gw,
			recorder,
			graph.NewClient(config.DownstreamEndpoint),
			config.Scopes,
			logger.With("component", "downstream"),
		)
	}

	handler := ui.NewHandler(gateway, downstreamSvc, sessions, cfg, logger.With("component", "ui"))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Logger)
	r.Use(middleware.Recoverer(logger, ui.RenderError))
	ui.MountRoutes(r, handler)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr, "authority", cfg.Authority)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
