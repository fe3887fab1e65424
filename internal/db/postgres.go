package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/config"
)

type Postgres struct {
	Pool *pgxpool.Pool
}

func ConnString(cfg config.PostgresConfig) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode, cfg.Schema)
}

func New(ctx context.Context, cfg config.PostgresConfig) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(ConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres connstr: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime

	dbPool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres connection pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	log.Info().Str("host", cfg.Host).Str("schema", cfg.Schema).Msg("Connected to PostgreSQL")
	return &Postgres{Pool: dbPool}, nil
}

func (p *Postgres) Close() {
	if p.Pool != nil {
		p.Pool.Close()
		log.Info().Msg("Database connection closed")
	}
}
