package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/noah-isme/certisched-api/internal/app"
	"github.com/noah-isme/certisched-api/pkg/config"
	"github.com/noah-isme/certisched-api/pkg/logger"
)

// @title Certification Scheduling API
// @version 1.0.0
// @description Scheduling engine for technician certifications: auto and manual booking, improviso handling and D+1 approvals.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logr)
	if err != nil {
		logr.Sugar().Fatalw("bootstrap failed", "error", err)
	}
	defer a.Close()

	if err := a.Serve(ctx); err != nil {
		logr.Sugar().Errorw("server failed", "error", err)
	}
}
