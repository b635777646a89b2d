package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/herbal-board/internal/api/router"
	"github.com/wolfman30/herbal-board/internal/app/bootstrap"
	"github.com/wolfman30/herbal-board/internal/archive"
	"github.com/wolfman30/herbal-board/internal/board"
	appconfig "github.com/wolfman30/herbal-board/internal/config"
	"github.com/wolfman30/herbal-board/internal/feed"
	"github.com/wolfman30/herbal-board/internal/http/handlers"
	"github.com/wolfman30/herbal-board/internal/observability/metrics"
	"github.com/wolfman30/herbal-board/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.Default().Warn("failed to read .env", "error", err)
	}
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting herbal board API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"owner_key", cfg.OwnerKey,
		"timezone", cfg.Location().String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := bootstrap.BuildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect storage", "error", err)
		os.Exit(1)
	}
	defer storage.Close()

	metricsHandler, boardMetrics := setupMetrics()
	hub := feed.NewHub(logger.Component("feed"), cfg.CORSAllowedOrigins, boardMetrics.SetFeedClients)

	svc := board.NewService(storage.Repo, storage.Cache, storage.Bus, hub,
		feed.NewSuppressor(cfg.SuppressTTL), boardMetrics, logger.Component("board"),
		board.Options{Owner: cfg.OwnerKey, InstanceID: cfg.InstanceID, Now: cfg.Clock()})
	if err := svc.Warm(ctx); err != nil {
		logger.Warn("cache warm-up failed; serving from store only", "error", err)
	}
	mirror := board.NewMirror(svc, storage.Bus, logger.Component("mirror")).WithRetry(cfg.FeedRetryInterval)
	go mirror.Start(ctx)

	store, err := bootstrap.BuildArchive(ctx, cfg, logger.Component("archive"))
	if err != nil {
		logger.Warn("snapshot exports disabled", "error", err)
	}

	r := router.New(&router.Config{
		Logger:  logger,
		Board:   board.NewHandler(svc, exporterOrNil(store), logger),
		Session: handlers.NewSessionHandler(sessionConfig(cfg), boardMetrics, logger),
		Health:  handlers.NewHealthHandler(storage.Checks),
		Feed:    hub,

		MetricsHandler:     metricsHandler,
		SessionSecret:      cfg.SessionJWTSecret,
		OwnerKey:           cfg.OwnerKey,
		LoginRatePerMin:    cfg.LoginRatePerMin,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	logger.Info("server stopped")
}

// setupMetrics registers the board collectors on a fresh registry along with
// the Go runtime collectors.
func setupMetrics() (http.Handler, *metrics.BoardMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewBoardMetrics(reg)
}

func sessionConfig(cfg *appconfig.Config) handlers.SessionConfig {
	return handlers.SessionConfig{
		PasswordHash: cfg.BoardPasswordHash,
		Password:     cfg.BoardPassword,
		Secret:       cfg.SessionJWTSecret,
		OwnerKey:     cfg.OwnerKey,
		TTL:          cfg.SessionTTL,
	}
}

// exporterOrNil keeps a missing store from becoming a non-nil interface.
func exporterOrNil(store *archive.Store) board.Exporter {
	if store == nil {
		return nil
	}
	return store
}
