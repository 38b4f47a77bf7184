package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/titilda/museterm/internal/services"
	"github.com/titilda/museterm/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	client := services.NewClient(services.ClientOpts{
		BaseURL:   config.Server.BaseURL,
		Timeout:   time.Duration(config.Server.TimeoutSeconds) * time.Second,
		RateLimit: config.Server.RateLimit,
	})

	runner := NewRunner(RunnerOpts{
		Config: config,
		Client: client,
		Logger: logger,
	})
	defer runner.Close()

	app := &cli.Command{
		Name:     "museterm",
		Usage:    "Browse and manage Titilda Music playlists from the terminal",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			logger.Error("not signed in, run 'museterm login' first")
			os.Exit(1)
		}
		logger.Fatalf("application error: %v", err)
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize the local database and run migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}
