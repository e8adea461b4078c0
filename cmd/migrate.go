package main

import (
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/duynhne/poker-service/config"
	database "github.com/duynhne/poker-service/internal/core"
	"github.com/duynhne/poker-service/internal/core/repository"
)

func newMigrateCmd(cfg func() *config.Config) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrate(cfg(), true)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back all migrations (postgres only)",
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrate(cfg(), false)
			},
		},
	)
	return migrateCmd
}

func migrate(cfg *config.Config, up bool) error {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		if err := database.Migrate(cfg.Database.URL, up); err != nil {
			return err
		}
	case config.DriverSQLite:
		if !up {
			return errors.New("migrate down is not supported for the sqlite driver")
		}
		// AutoMigrate runs inside OpenSQLite.
		db, err := database.OpenSQLite(cfg.Database.SQLitePath, repository.GormModels()...)
		if err != nil {
			return err
		}
		if err := database.CloseSQLite(db); err != nil {
			return err
		}
	}

	log.Info().
		Str("driver", cfg.Database.Driver).
		Bool("up", up).
		Msg("Migrations applied")
	return nil
}
