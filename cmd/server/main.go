package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"winzap/internal/server/api"
	"winzap/internal/server/catalog"
	"winzap/internal/server/config"
	"winzap/internal/server/service"
	"winzap/internal/server/storage"
)

func main() {
	// Structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	slog.Info("configuration loaded",
		"port", cfg.Port,
		"data_file", cfg.DataFile,
		"upload_dir", cfg.UploadDir,
		"max_file_size", cfg.MaxFileSize,
	)

	// Initialize file storage
	files := storage.NewFileStore(cfg.UploadDir)
	if err := files.EnsureDirs(); err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	slog.Info("file storage initialized", "path", cfg.UploadDir)

	// Open the catalog (never fails; a corrupt document starts empty)
	store := catalog.Open(catalog.NewJSONFile(cfg.DataFile), catalog.Settings{
		SiteName:    cfg.SiteName,
		MaxFileSize: cfg.MaxFileSize,
	})
	slog.Info("catalog loaded", "files", store.Len())

	// Wire service, event hub and router
	hub := api.NewEventHub()
	svc := service.NewCatalogService(store, files, cfg, hub)
	handler := api.NewHandler(svc)
	e := api.SetupRouter(handler, hub, cfg, files.BasePath())

	// Background workers
	workerCtx, workerCancel := context.WithCancel(context.Background())
	sweeper := storage.NewSweeper(store, files, cfg.SweepInterval, cfg.SweepGrace)
	sweeper.Start(workerCtx)
	go periodicFlush(workerCtx, store, cfg.FlushInterval)

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		slog.Info("starting server", "addr", addr, "base_url", cfg.BaseURL)
		if err := e.Start(addr); err != nil {
			slog.Info("server stopped", "reason", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutting down", "signal", sig)

	// Stop accepting new requests, finish in-flight with 30s timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	workerCancel()
	sweeper.Wait()

	// Final persist so counters survive the restart
	if err := store.Flush(); err != nil {
		slog.Error("final catalog flush failed", "error", err)
	}

	slog.Info("server exited cleanly")
}

// periodicFlush persists the catalog on an interval as a safety net on
// top of the persist-on-mutate behavior.
func periodicFlush(ctx context.Context, store *catalog.Store, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := store.Flush(); err != nil {
				slog.Error("periodic catalog flush failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
