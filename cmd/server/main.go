package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"Feedsync/internal/api/middleware"
	"Feedsync/internal/api/routes"
	"Feedsync/internal/config"
	"Feedsync/internal/core/analytics"
	"Feedsync/internal/core/features"
	"Feedsync/internal/core/session"
	"Feedsync/internal/db/migrations"
	"Feedsync/internal/db/postgres"
	"Feedsync/internal/transport/graphql"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	// Upstream GraphQL API
	clientCfg := graphql.DefaultClientConfig(cfg.GraphQLURL)
	clientCfg.Timeout = cfg.RequestTimeout
	clientCfg.RetryMax = cfg.RetryMax
	api := graphql.NewPostsAPI(graphql.NewClient(clientCfg, logger))

	// Per-session engines
	flags := features.NewStaticFlags(cfg.FeatureFlags...)
	var events analytics.Logger = analytics.NewSlogLogger(logger)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.Ping(); err != nil {
			logger.Error("failed to ping database", "error", err)
			os.Exit(1)
		}
		if err := migrations.Up(db); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
		logger.Info("analytics events persisted to postgres")

		writer := analytics.NewAsyncLogger(postgres.NewAnalyticsRepository(db), analytics.DefaultQueueSize, logger)
		defer writer.Close()
		events = analytics.Multi{events, writer}
	}
	registry := session.NewRegistry(cfg.MaxSessions, cfg.SessionTTL, func(id string) (*session.Engine, error) {
		return session.NewEngine(id, api, session.Options{
			Flags:        flags,
			Analytics:    events,
			Logger:       logger,
			CacheEntries: cfg.CacheEntries,
		})
	}, logger)
	defer registry.Close()

	sessionMiddleware := middleware.NewSessionMiddleware(
		middleware.NewCookieStore(cfg.SessionSecret), registry, cfg.SessionTTL, cfg.SecureCookies, logger)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	defer rateLimiter.Stop()

	r := chi.NewRouter()

	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(sessionMiddleware.Attach)
		r.Use(rateLimiter.Middleware)

		routes.RegisterFeedRoutes(r)
		routes.RegisterPostRoutes(r)
		routes.RegisterCardRoutes(r)
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("feedsync starting", "port", cfg.Port, "graphql_url", cfg.GraphQLURL, "flags", cfg.FeatureFlags)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
