package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"savviwell/internal/app"
	"savviwell/internal/config"
	"savviwell/internal/logger"
	"savviwell/internal/server"
)

func main() {
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Development: cfg.IsDevelopment()})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("failed to initialize app", zap.Error(err))
	}
	defer application.Close()

	if cfg.CatalogWatch {
		go func() {
			if err := application.WatchCatalog(ctx); err != nil {
				zl.Error("catalog watcher stopped", zap.Error(err))
			}
		}()
	}

	deps := server.Deps{
		Planner:        application.Planner,
		Profiles:       application.Profiles,
		Conversations:  application.Conversations,
		Pantry:         application.Pantry,
		PantryScanner:  application.PantryScanner,
		PlateScanner:   application.PlateScanner,
		Catalog:        application.Catalog,
		Importer:       application.Clipper,
		Metrics:        application.Collector,
		MetricsHandler: application.Collector.Handler(),
		DataDir:        application.DataDir(),
		Logger:         zl,
	}
	if application.Foods != nil {
		deps.Foods = application.Foods
	}
	srv := server.New(fmt.Sprintf(":%d", cfg.Port), deps)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			zl.Error("server failed", zap.Error(err))
		}
		return
	case <-ctx.Done():
	}
	zl.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
	}
	zl.Info("server exiting")
}
