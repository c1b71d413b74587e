package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"taskmanager/internal/app"
	"taskmanager/internal/config"
	"taskmanager/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}

	application := app.New(cfg)
	if err := application.Init(ctx); err != nil {
		log.Fatalf("initializing application: %v", err)
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("application stopped with error", err)
		logger.Sync()
		os.Exit(1)
	}
}
