// ABOUTME: Main entry point for the ragchat HTTP API server
// ABOUTME: Loads configuration, wires the engine and serves until SIGINT or SIGTERM
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/harper/ragchat/internal/api"
	"github.com/harper/ragchat/internal/app"
	"github.com/harper/ragchat/internal/config"
	"github.com/harper/ragchat/internal/logging"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (for API keys)
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log := logging.New("info", "json", os.Stderr)
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if envErr != nil {
		log.Debug("no .env file loaded", "error", envErr)
	}

	a, err := app.New(cfg, log)
	if err != nil {
		log.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer func() { _ = a.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := api.NewServer(a).ListenAndServe(ctx, cfg.HTTPAddr); err != nil {
		log.Error("server error", "error", err)
		stop()
		_ = a.Close()
		os.Exit(1)
	}
}
