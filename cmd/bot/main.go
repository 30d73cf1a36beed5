// cmd/bot/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"xrpl-wallet-bot/internal/config"
	"xrpl-wallet-bot/internal/server"
)

func main() {
	// Load .env
	_ = godotenv.Load()

	logger, err := newLogger(os.Getenv("APP_ENV"))
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	srv, err := server.New(startCtx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal("failed to initialize server", zap.Error(err))
	}

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server stopped unexpectedly", zap.Error(err))
		}
	}()

	logger.Info("xrpl wallet bot started",
		zap.String("addr", cfg.HTTPAddr),
		zap.Bool("webhook_mode", cfg.WebhookMode()),
	)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	logger.Info("bot stopped")
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
