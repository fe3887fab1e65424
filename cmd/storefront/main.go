package main

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/vasiliy-maslov/storefront/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront REST backend: catalog, orders and administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newSeedCmd())
	return root
}

// loadConfig reads the configuration and installs the global logger
// described by it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, err
	}
	setupLogger(cfg.App)
	return cfg, nil
}

func setupLogger(app config.AppConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(app.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if app.LogFormat == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Logger = log.With().Str("service", "storefront").Str("env", app.Env).Logger()
}
