package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"campusdocs/internal/config"
	"campusdocs/internal/repository/postgres"

	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Long: `Create the tables for the current TABLE_PREFIX if they do not exist.
With --reset every table of the prefix is dropped first (refused in prod).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), reset)
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "Drop all tables of the prefix before migrating")

	return cmd
}

func runMigrate(ctx context.Context, reset bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.StorageDriver != config.StorageDriverPostgres {
		return fmt.Errorf("migrate requires STORAGE_DRIVER=%s", config.StorageDriverPostgres)
	}
	if reset && cfg.Environment == "prod" {
		return fmt.Errorf("refusing to reset tables in prod")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if reset {
		if err := postgres.DropAll(ctx, pool, tables); err != nil {
			return fmt.Errorf("drop tables: %w", err)
		}
		logger.Warn("tables dropped", "prefix", cfg.TablePrefix, "tables", tables.All())
	}

	if err := postgres.Migrate(ctx, pool, tables); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("schema up to date", "prefix", cfg.TablePrefix)
	return nil
}
