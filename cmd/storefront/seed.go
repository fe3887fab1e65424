package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/vasiliy-maslov/storefront/internal/category"
	"github.com/vasiliy-maslov/storefront/internal/db"
	"github.com/vasiliy-maslov/storefront/internal/notify"
	"github.com/vasiliy-maslov/storefront/internal/product"
	"github.com/vasiliy-maslov/storefront/internal/seed"
	"github.com/vasiliy-maslov/storefront/internal/user"
)

const defaultAdminPassword = "admin123456"

func newSeedCmd() *cobra.Command {
	var (
		file          string
		adminPassword string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the admin account, categories and sample products",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			var raw []byte
			if file != "" {
				if raw, err = os.ReadFile(file); err != nil {
					return fmt.Errorf("failed to read seed file: %w", err)
				}
			}
			data, err := seed.Parse(raw)
			if err != nil {
				return err
			}

			if adminPassword == "" {
				adminPassword = os.Getenv("SEED_ADMIN_PASSWORD")
			}
			if adminPassword == "" {
				log.Warn().Msg("Using the default admin password; change it after the first login")
				adminPassword = defaultAdminPassword
			}

			ctx := cmd.Context()
			pg, err := db.New(ctx, cfg.Postgres)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer pg.Close()

			tx := db.NewTransactor(pg.Pool)
			userRepo := user.NewRepository(pg.Pool)
			userSvc := user.NewService(userRepo, notify.Discard{})

			seeder := &seed.Seeder{
				Users:      userRepo,
				Categories: category.NewService(category.NewRepository(pg.Pool), tx),
				Products:   product.NewService(product.NewRepository(pg.Pool), tx, userSvc),
			}

			res, err := seeder.Run(ctx, data, adminPassword)
			if err != nil {
				return err
			}

			log.Info().
				Bool("admin_created", res.AdminCreated).
				Int("categories", res.Categories).
				Int("products", res.Products).
				Msg("Seed complete")
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML seed file (defaults to the bundled sample data)")
	cmd.Flags().StringVar(&adminPassword, "admin-password", "", "admin password (or SEED_ADMIN_PASSWORD)")
	return cmd
}
