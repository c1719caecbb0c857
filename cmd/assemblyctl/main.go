package main

import (
	"fmt"
	"os"

	"github.com/johnquangdev/assembly-floor/internal/cli"
	"github.com/johnquangdev/assembly-floor/internal/infrastructure/logging"
	"github.com/johnquangdev/assembly-floor/pkg/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(cfg.Server.Environment, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()

	return cli.NewRootCmd(&cli.Dependencies{Config: cfg, Logger: logger}).Execute()
}
