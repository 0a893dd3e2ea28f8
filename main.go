package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"storefront-gateway/app"
	"storefront-gateway/config"
	"storefront-gateway/logger"
)

func main() {
	configPath := flag.String("config", "", "path to an optional config file (yaml, json or toml)")
	flag.Parse()

	// Load .env file in development (ignores error if file doesn't exist)
	// In production, variables should be set directly
	if os.Getenv("ENV") != "production" {
		if err := godotenv.Overload(".env"); err != nil {
			log.Printf("Warning: .env file not found, using system environment variables")
		}
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize application
	application, err := app.Initialize(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("❌ Failed to initialize application", zap.Error(err))
	}
	defer func() {
		if err := application.Close(); err != nil {
			zl.Warn("⚠️ Error while releasing resources", zap.Error(err))
		}
	}()

	server := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      application.Router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		zl.Info("🚀 Server starting",
			zap.String("addr", server.Addr),
			zap.String("environment", cfg.Environment),
			zap.String("cart_api", cfg.CartAPI.BaseURL),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Error("❌ Server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zl.Info("🛑 Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Error("❌ Graceful shutdown failed", zap.Error(err))
	}
}
