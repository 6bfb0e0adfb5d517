package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/content-quality/analyzer"
	"github.com/seo-optimizer/content-quality/cache"
	"github.com/seo-optimizer/content-quality/config"
	"github.com/seo-optimizer/content-quality/fetch"
	"github.com/seo-optimizer/content-quality/logging"
	"github.com/seo-optimizer/content-quality/metrics"
	"github.com/seo-optimizer/content-quality/server"
	"github.com/seo-optimizer/content-quality/stats"
)

const defaultConfigPath = "config.yaml"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(config.Path(defaultConfigPath))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	gin.SetMode(cfg.Server.Mode)

	usage, err := stats.NewStorage(cfg.Stats.DataDir, logger.With(logging.String("component", "stats")))
	if err != nil {
		return fmt.Errorf("initialize usage stats: %w", err)
	}
	defer func() {
		if err := usage.Shutdown(); err != nil {
			logger.Error("Failed to save usage stats", logging.Error(err))
		}
	}()

	statistics, err := logging.NewStatistics(filepath.Join(cfg.Stats.DataDir, "statistics.json"), cfg.Server.DevMode)
	if err != nil {
		logger.Warn("Could not load previous statistics", logging.Error(err))
	}
	defer func() {
		if err := statistics.Save(); err != nil {
			logger.Error("Failed to save statistics", logging.Error(err))
		}
	}()

	store, err := cache.New(cfg.Cache, logger)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	defer store.Close()

	srv := server.New(server.Deps{
		Config:   cfg,
		Analyzer: analyzer.New(analyzer.WithLogger(logger.With(logging.String("component", "analyzer")))),
		Cache:    store,
		Fetcher: fetch.New(fetch.Options{
			Timeout:      cfg.Fetch.Timeout,
			UserAgent:    cfg.Fetch.UserAgent,
			MaxBytes:     cfg.Server.MaxDocumentBytes,
			AllowPrivate: cfg.Fetch.AllowPrivateNetworks,
		}),
		Statistics: statistics,
		Usage:      usage,
		Metrics:    metrics.New(),
		Logger:     logger,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go srv.RunJanitor(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			logging.Int("port", cfg.Server.Port),
			logging.String("mode", cfg.Server.Mode),
			logging.String("cache", cfg.Cache.Backend),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
