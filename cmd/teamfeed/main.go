package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/deusflow/teamfeed/internal/app"
	"github.com/deusflow/teamfeed/internal/config"
	"github.com/deusflow/teamfeed/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init(false, "text")
		logger.Error("Invalid configuration", "error", err)
		os.Exit(2)
	}
	logger.Init(cfg.Debug, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg); err != nil {
		logger.Error("Run failed", "error", err)
		stop()
		os.Exit(1)
	}
}
