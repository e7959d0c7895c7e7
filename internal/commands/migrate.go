package commands

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/reviewd/internal/app"
	"github.com/tildaslashalef/reviewd/internal/database"
	"github.com/tildaslashalef/reviewd/internal/utils"
)

// MigrateCommand returns the CLI command for database migrations
func MigrateCommand() *cli.Command {
	return &cli.Command{
		Name:   "migrate",
		Usage:  "Manage database migrations",
		Hidden: true,
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Apply all pending migrations",
				Action: func(c *cli.Context) error {
					application, ok := c.App.Metadata["app"].(*app.App)
					if !ok {
						return fmt.Errorf("application not initialized")
					}

					utils.PrintInfo("Applying embedded migrations")
					if err := database.Migrate(application.DB(), application.Logger); err != nil {
						utils.PrintError(fmt.Sprintf("Failed to apply migrations: %s", err))
						return fmt.Errorf("failed to apply migrations: %w", err)
					}

					utils.PrintSuccess("Database schema is up-to-date")
					return nil
				},
			},
			{
				Name:  "down",
				Usage: "Revert the last migration",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "steps",
						Usage: "Number of migrations to revert",
						Value: 1,
					},
				},
				Action: func(c *cli.Context) error {
					application, ok := c.App.Metadata["app"].(*app.App)
					if !ok {
						return fmt.Errorf("application not initialized")
					}

					steps := c.Int("steps")
					utils.PrintWarning(fmt.Sprintf("Reverting %d migration(s)", steps))
					if err := database.Revert(application.DB(), application.Logger, steps); err != nil {
						utils.PrintError(fmt.Sprintf("Failed to revert migrations: %s", err))
						return fmt.Errorf("failed to revert migrations: %w", err)
					}

					utils.PrintSuccess("Migration(s) reverted successfully!")
					return nil
				},
			},
		},
	}
}
