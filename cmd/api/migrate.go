package main

import (
	"fmt"

	"foodmart/internal/config"
	"foodmart/internal/database"
	"foodmart/internal/logger"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or inspect database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		log, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer log.Sync()

		dbService, err := database.New(cfg.Database)
		if err != nil {
			return err
		}
		defer dbService.Close()

		return database.RunMigrations(dbService.DB(), cfg.Server.MigrationsDir, log)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		log, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer log.Sync()

		dbService, err := database.New(cfg.Database)
		if err != nil {
			return err
		}
		defer dbService.Close()

		return database.RollbackMigration(dbService.DB(), cfg.Server.MigrationsDir, log)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		dbService, err := database.New(cfg.Database)
		if err != nil {
			return err
		}
		defer dbService.Close()

		return database.GetMigrationStatus(dbService.DB(), cfg.Server.MigrationsDir)
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}
