// If you are AI: This is the main entrypoint for the streamhub server.
// It handles configuration loading, logger setup, server startup, and graceful shutdown.

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"streamhub/internal/config"
	"streamhub/internal/logging"
	"streamhub/internal/server"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "streamhub: %v\n", err)
		os.Exit(1)
	}
}

// run loads configuration, starts the server and blocks until shutdown.
func run() error {
	configPath := flag.String("config", "configs/streamhub.example.yaml", "Path to configuration file")
	envFile := flag.String("env-file", ".env", "Optional dotenv file applied before environment overrides")
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(os.Stderr, cfg.Log)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	srv, err := server.New(cfg, version, logger)
	if err != nil {
		return err
	}

	shutdown := server.NewShutdownHandler(context.Background(), logger)
	defer shutdown.Stop()

	logger.Info("starting streamhub", "version", version, "config", *configPath,
		"rtmp_port", cfg.Server.RTMPPort, "http_port", cfg.Server.HTTPPort, "health_port", cfg.Server.HealthPort)
	if err := srv.Run(shutdown.Context()); err != nil {
		return err
	}
	logger.Info("server shut down cleanly")
	return nil
}
