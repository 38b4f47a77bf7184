package main

import (
	"context"
	"fmt"
	"os"

	"github.com/titilda/museterm/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup initializes the local database and runs migrations, creating a
// config file from the embedded template when none exists.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	r.config = r.resolveConfig(configPath)

	r.logger.Info("initializing database", "path", r.config.Database.Path)
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	cacheDir, err := r.config.CacheDir()
	if err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	r.logger.Info("artwork cache ready", "dir", cacheDir)

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return nil
}

// resolveConfig loads the config at path, writing the template first when the
// file is missing. Any failure falls back to defaults with a warning.
func (r *Runner) resolveConfig(path string) *shared.Config {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		r.logger.Info("config file not found, creating from template", "path", path)
		if err := shared.CreateConfigFile(path); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			return shared.DefaultConfig()
		}
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Warn("failed to load config, using defaults", "error", err)
		return shared.DefaultConfig()
	}
	return config
}
