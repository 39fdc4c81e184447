package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"perfreview/internal/app/server"
	"perfreview/internal/platform/config"
	"perfreview/internal/platform/logger"
)

// @title           Performance Review API
// @version         1.0
// @description     Review cycles, reviewer assignments and structured feedback.
// @BasePath        /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	logger.Setup(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := server.New(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
		slog.Error("server failed", "err", err)
		stop()
		app.Close()
		os.Exit(1)
	}
}
