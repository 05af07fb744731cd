package main

import (
	"context"
	"database/sql"
	"errors"

	"github.com/spf13/cobra"

	"notely-be/internal/config"
	"notely-be/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the PostgreSQL schema",
}

func init() {
	migrateCmd.AddCommand(
		migrationCommand("up", "Apply all pending migrations", database.RunMigrations),
		migrationCommand("down", "Roll back the most recent migration", database.RollbackMigration),
		migrationCommand("status", "Print the state of every migration", database.MigrationStatus),
	)
}

func migrationCommand(use, short string, run func(context.Context, *sql.DB) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.StoreDriver != config.DriverPostgres {
				return errors.New("migrations only apply to the postgres store driver")
			}
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is required")
			}
			db, err := openPostgres(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			return run(cmd.Context(), db)
		},
	}
}
