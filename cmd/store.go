package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/duynhne/poker-service/config"
	database "github.com/duynhne/poker-service/internal/core"
	"github.com/duynhne/poker-service/internal/core/domain"
	"github.com/duynhne/poker-service/internal/core/repository"
)

// store bundles the repositories of the configured driver.
type store struct {
	users    domain.UserRepository
	sessions domain.SessionRepository
	ping     func(ctx context.Context) error
	close    func()
}

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		db, err := database.OpenSQLite(cfg.Database.SQLitePath, repository.GormModels()...)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlite handle: %w", err)
		}
		log.Info().Str("path", cfg.Database.SQLitePath).Msg("SQLite store opened")
		return &store{
			users:    repository.NewGormUserRepository(db),
			sessions: repository.NewGormSessionRepository(db),
			ping:     sqlDB.PingContext,
			close: func() {
				if err := database.CloseSQLite(db); err != nil {
					log.Error().Err(err).Msg("SQLite close error")
				}
			},
		}, nil

	default:
		if cfg.Database.AutoMigrate {
			if err := database.Migrate(cfg.Database.URL, true); err != nil {
				return nil, err
			}
			log.Info().Msg("Database migrations applied")
		}

		// Initialize database connection pool (pgx)
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		log.Info().Int32("max_conns", cfg.Database.MaxConns).Msg("Database connection pool established")
		return &store{
			users:    repository.NewUserRepository(pool),
			sessions: repository.NewSessionRepository(pool),
			ping:     pool.Ping,
			close:    pool.Close,
		}, nil
	}
}
