package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/vasiliy-maslov/storefront/internal/db"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := db.MigrateUp(cfg.Postgres); err != nil {
				return err
			}
			log.Info().Msg("Migrations applied")
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := db.MigrateDown(cfg.Postgres, steps); err != nil {
				return err
			}
			log.Info().Int("steps", steps).Msg("Migrations rolled back")
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(up, down)
	return cmd
}
