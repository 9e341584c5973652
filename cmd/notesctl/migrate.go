package main

import (
	"github.com/spf13/cobra"

	"notes-backend/internal/shared/config"
	"notes-backend/internal/shared/storage/db"
	"notes-backend/internal/shared/telemetry"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations for DATABASE_URL",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
		sqlDB, dialect, err := db.Connect(ctx, cfg.DatabaseURL, opts)
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		if err := db.RunMigrations(ctx, sqlDB, dialect); err != nil {
			return err
		}
		telemetry.Info("migrate.done", map[string]any{"dialect": string(dialect)})
		return nil
	},
}
