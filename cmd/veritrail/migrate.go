package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/veritrail/veritrail/internal/shared/infrastructure/database"
	"github.com/veritrail/veritrail/internal/shared/infrastructure/migrations"
	"github.com/veritrail/veritrail/pkg/config"
)

func newMigrateCmd(cfg *config.Config, logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database schema migrations",
		Long: `Apply the embedded schema migrations to the configured database.
Statements use IF NOT EXISTS, so rerunning against an up-to-date schema
is safe.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := database.NewConnection(cmd.Context(), database.Config{
				Driver:     database.Driver(cfg.DatabaseDriver),
				URL:        cfg.DatabaseURL,
				SQLitePath: cfg.SQLitePath,
			})
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer conn.Close()

			if err := migrations.Run(cmd.Context(), conn); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			logger.Info("migrations applied", "driver", conn.Driver())
			fmt.Println("Schema is up to date.")
			return nil
		},
	}
}
