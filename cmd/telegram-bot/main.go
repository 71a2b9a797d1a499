package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"savviwell/internal/app"
	"savviwell/internal/config"
	"savviwell/internal/logger"
	"savviwell/internal/telegram"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.TelegramBotToken == "" || cfg.TelegramWebhookURL == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN and TELEGRAM_WEBHOOK_URL must be set")
	}

	zl, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Development: cfg.IsDevelopment()})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Initialize Services
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

	svc := telegram.Services{
		Planner:  application.Planner,
		Profiles: application.Profiles,
		Pantry:   application.Pantry,
		Importer: application.Clipper,
		DataDir:  application.DataDir(),
	}
	if application.Ledger != nil {
		svc.Usage = application.Ledger
	}

	// 3. Initialize Telegram Bot
	bot, err := telegram.NewBot(cfg, svc, zl)
	if err != nil {
		zl.Fatal("failed to initialize telegram bot", zap.Error(err))
	}
	application.AddUsageRecorder(bot)

	// 4. Start Server with Graceful Shutdown
	mux := http.NewServeMux()
	bot.RegisterHandlers(mux)
	mux.Handle("/metrics", application.Collector.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Info("telegram bot server listening", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
	}
	zl.Info("server exiting")
}
