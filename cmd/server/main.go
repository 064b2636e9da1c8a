package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/connexus-ai/secondbrain/internal/cache"
	"github.com/connexus-ai/secondbrain/internal/config"
	"github.com/connexus-ai/secondbrain/internal/middleware"
	"github.com/connexus-ai/secondbrain/internal/router"
	"github.com/connexus-ai/secondbrain/internal/service"
	"github.com/connexus-ai/secondbrain/internal/store"
)

// Version is the build version reported on /health.
const Version = "0.1.0"

// requestTimeout bounds non-streaming request handlers (upload, search,
// eval). Chat is excluded — a slow LLM generator shouldn't race a fixed
// deadline meant for slow reads.
const requestTimeout = 30 * time.Second

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("main: %w", err)
	}

	ctx := context.Background()
	pool, err := store.NewPool(ctx, cfg.DatabaseURL, 10)
	if err != nil {
		return fmt.Errorf("main: connect database: %w", err)
	}
	defer pool.Close()

	docRepo := store.NewDocumentRepo(pool)
	chunkRepo := store.NewChunkRepo(pool)

	embedder := service.BuildEmbedder(cfg)
	engine := service.NewRetrievalEngine(cfg.DataDir, chunkRepo, embedder)
	if err := engine.LoadOrBuild(ctx); err != nil {
		return fmt.Errorf("main: load_or_build index: %w", err)
	}

	generator := service.BuildGenerator(cfg)
	reranker := service.BuildReranker(cfg)

	queries := cache.New(10 * time.Minute)
	defer queries.Stop()

	embedCache := service.BuildEmbedCache()
	defer embedCache.Stop()

	app := service.New(cfg, docRepo, chunkRepo, engine, generator, reranker, embedder, embedCache, queries)

	reg := prometheus.NewRegistry()
	metrics := middleware.NewMetrics(reg)

	r := router.New(router.Config{
		App:            app,
		DB:             pool,
		Metrics:        metrics,
		MetricsHandler: middleware.MetricsHandler(reg),
		Version:        Version,
		CORSOrigin:     cfg.CORSOrigin,
		DefaultTopK:    cfg.TopK,
		MaxUploadBytes: cfg.MaxUploadBytes,
		RequestTimeout: requestTimeout,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("secondbrain starting", "version", Version, "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("received signal, shutting down gracefully", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}
