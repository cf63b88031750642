package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytcat/internal/shared"
	"github.com/desertthunder/ytcat/internal/ui"
)

// Setup writes config.toml from the embedded template when it is missing, then migrates the database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := r.configPath
	if configPath == "" {
		configPath = cmd.String("config")
	}

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.writePlain("%s Created %s\n", ui.Styles.OK("✓"), configPath)
		}
	}

	r.logger.Info("initializing database", "driver", r.config.Database.Driver, "path", r.config.Database.Path)

	db, err := r.database()
	if err != nil {
		return err
	}

	version, err := shared.CurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	r.writePlain("%s Database ready (%s, schema version %d)\n", ui.Styles.OK("✓"), r.config.Database.Driver, version)

	if !r.config.HasGoogleCredentials() {
		r.writePlainln("Next steps:")
		r.writePlain("1. Create an OAuth client at https://console.cloud.google.com/apis/credentials\n")
		r.writePlain("2. Set credentials.google in %s (or YOUTUBE_CLIENT_ID / YOUTUBE_CLIENT_SECRET)\n", configPath)
		r.writePlain("3. Run 'ytcat auth login'\n")
	}
	return nil
}
