package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/vasiliy-maslov/storefront/internal/admin"
	"github.com/vasiliy-maslov/storefront/internal/category"
	"github.com/vasiliy-maslov/storefront/internal/config"
	"github.com/vasiliy-maslov/storefront/internal/db"
	handler "github.com/vasiliy-maslov/storefront/internal/handler/http"
	"github.com/vasiliy-maslov/storefront/internal/notify"
	"github.com/vasiliy-maslov/storefront/internal/order"
	"github.com/vasiliy-maslov/storefront/internal/payment"
	"github.com/vasiliy-maslov/storefront/internal/pricing"
	"github.com/vasiliy-maslov/storefront/internal/product"
	"github.com/vasiliy-maslov/storefront/internal/user"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if migrate {
				if err := db.MigrateUp(cfg.Postgres); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before starting")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	log.Info().Msg("Storefront starting...")

	pg, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pg.Close()

	router := handler.NewRouter(buildHandlers(cfg, pg), cfg.App.WriteTimeout)

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
		IdleTimeout:  cfg.App.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("could not listen on %s: %w", cfg.App.Port, err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info().Msg("Storefront stopped gracefully.")
	return nil
}

func buildHandlers(cfg *config.Config, pg *db.Postgres) handler.Handlers {
	tx := db.NewTransactor(pg.Pool)
	notifier := notify.NewLogSender(log.Logger)

	userRepo := user.NewRepository(pg.Pool)
	userSvc := user.NewService(userRepo, notifier)

	productRepo := product.NewRepository(pg.Pool)
	productSvc := product.NewService(productRepo, tx, userSvc)

	categorySvc := category.NewService(category.NewRepository(pg.Pool), tx)

	calculator := pricing.NewCalculator(cfg.Pricing, productRepo)

	orderRepo := order.NewRepository(pg.Pool)
	orderSvc := order.NewService(orderRepo, productRepo, tx, calculator, notifier, userSvc, order.Options{
		StrictTransitions:   cfg.Orders.StrictTransitions,
		NotificationTimeout: cfg.Orders.NotificationTimeout,
	})

	adminSvc := admin.NewService(admin.NewRepository(db.SQLX(pg.Pool)), userSvc, orderSvc)

	var payments payment.Provider = payment.Disabled{}
	if cfg.Payment.StripeSecretKey != "" {
		payments = payment.NewStripe(cfg.Payment.StripeSecretKey, cfg.Payment.Currency)
	} else {
		log.Warn().Msg("STRIPE_SECRET_KEY is not set; payment endpoints are disabled")
	}

	return handler.Handlers{
		Orders:     handler.NewOrderHandler(orderSvc),
		Products:   handler.NewProductHandler(productSvc),
		Categories: handler.NewCategoryHandler(categorySvc),
		Users:      handler.NewUserHandler(userSvc),
		Admin:      handler.NewAdminHandler(adminSvc, userSvc),
		Payments:   handler.NewPaymentHandler(payments),
		Cart:       handler.NewCartHandler(calculator),
		Identities: userSvc,
	}
}
