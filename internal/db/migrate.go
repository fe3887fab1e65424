package db

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/config"
)

func migrationDSN(cfg config.PostgresConfig) string {
	u := url.URL{
		Scheme: "pgx5",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   cfg.Host + ":" + cfg.Port,
		Path:   "/" + cfg.DBName,
	}
	q := u.Query()
	q.Set("sslmode", cfg.SSLMode)
	q.Set("search_path", cfg.Schema)
	q.Set("x-migrations-table", "schema_migrations")
	u.RawQuery = q.Encode()
	return u.String()
}

func newMigrator(cfg config.PostgresConfig) (*migrate.Migrate, error) {
	m, err := migrate.New("file://"+cfg.MigrationsPath, migrationDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize migration instance: %w", err)
	}
	return m, nil
}

// MigrateUp applies every pending migration.
func MigrateUp(cfg config.PostgresConfig) error {
	m, err := newMigrator(cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info().Msg("No new migrations to apply")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	log.Info().Msg("New migrations applied successfully")
	return nil
}

// MigrateDown rolls back the given number of migrations.
func MigrateDown(cfg config.PostgresConfig, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}

	m, err := newMigrator(cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}
	log.Info().Int("steps", steps).Msg("Migrations rolled back")
	return nil
}
