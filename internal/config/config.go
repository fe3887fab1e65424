package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Port         string        `yaml:"port"`
	Env          string        `yaml:"env"`
	LogLevel     string        `yaml:"log_level"`
	LogFormat    string        `yaml:"log_format"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	DBName          string        `yaml:"dbname"`
	SSLMode         string        `yaml:"sslmode"`
	Schema          string        `yaml:"schema"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MigrationsPath  string        `yaml:"migrations_path"`
}

type OrdersConfig struct {
	// StrictTransitions switches admin status updates to forward-only.
	StrictTransitions   bool          `yaml:"strict_transitions"`
	NotificationTimeout time.Duration `yaml:"notification_timeout"`
}

type PricingConfig struct {
	TaxRate               float64 `yaml:"tax_rate"`
	FreeShippingThreshold float64 `yaml:"free_shipping_threshold"`
	FlatShipping          float64 `yaml:"flat_shipping"`
}

type PaymentConfig struct {
	StripeSecretKey string `yaml:"stripe_secret_key"`
	Currency        string `yaml:"currency"`
}

type Config struct {
	App      AppConfig      `yaml:"app"`
	Postgres PostgresConfig `yaml:"postgres"`
	Orders   OrdersConfig   `yaml:"orders"`
	Pricing  PricingConfig  `yaml:"pricing"`
	Payment  PaymentConfig  `yaml:"payment"`
}

func defaults() *Config {
	cfg := &Config{}
	cfg.App.Port = "8080"
	cfg.App.Env = "development"
	cfg.App.LogLevel = "info"
	cfg.App.LogFormat = "console"
	cfg.App.ReadTimeout = 10 * time.Second
	cfg.App.WriteTimeout = 10 * time.Second
	cfg.App.IdleTimeout = 120 * time.Second

	cfg.Postgres.Port = "5432"
	cfg.Postgres.SSLMode = "disable"
	cfg.Postgres.Schema = "public"
	cfg.Postgres.MaxConns = 10
	cfg.Postgres.MinConns = 2
	cfg.Postgres.MaxConnLifetime = 30 * time.Minute
	cfg.Postgres.MigrationsPath = "migrations"

	cfg.Orders.NotificationTimeout = 5 * time.Second

	cfg.Pricing.TaxRate = 0.08
	cfg.Pricing.FreeShippingThreshold = 50
	cfg.Pricing.FlatShipping = 5.99

	cfg.Payment.Currency = "usd"
	return cfg
}

// NewConfig builds the configuration from defaults, an optional .env file,
// an optional YAML file named by CONFIG_FILE and finally the environment.
func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadYAML(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.App.Port, "APP_PORT")
	setString(&cfg.App.Env, "APP_ENV")
	setString(&cfg.App.LogLevel, "LOG_LEVEL")
	setString(&cfg.App.LogFormat, "LOG_FORMAT")

	setString(&cfg.Postgres.Host, "DB_HOST")
	setString(&cfg.Postgres.Port, "DB_PORT")
	setString(&cfg.Postgres.User, "DB_USER")
	setString(&cfg.Postgres.Password, "DB_PASSWORD")
	setString(&cfg.Postgres.DBName, "DB_NAME")
	setString(&cfg.Postgres.SSLMode, "DB_SSLMODE")
	setString(&cfg.Postgres.Schema, "DB_SCHEMA")
	setString(&cfg.Postgres.MigrationsPath, "DB_MIGRATIONS_PATH")

	setString(&cfg.Payment.StripeSecretKey, "STRIPE_SECRET_KEY")
	setString(&cfg.Payment.Currency, "PAYMENT_CURRENCY")

	var errs []error
	errs = append(errs,
		setDuration(&cfg.App.ReadTimeout, "APP_READ_TIMEOUT"),
		setDuration(&cfg.App.WriteTimeout, "APP_WRITE_TIMEOUT"),
		setDuration(&cfg.App.IdleTimeout, "APP_IDLE_TIMEOUT"),
		setInt32(&cfg.Postgres.MaxConns, "DB_MAX_CONNS"),
		setInt32(&cfg.Postgres.MinConns, "DB_MIN_CONNS"),
		setDuration(&cfg.Postgres.MaxConnLifetime, "DB_MAX_CONN_LIFETIME"),
		setBool(&cfg.Orders.StrictTransitions, "ORDERS_STRICT_TRANSITIONS"),
		setDuration(&cfg.Orders.NotificationTimeout, "ORDERS_NOTIFICATION_TIMEOUT"),
		setFloat(&cfg.Pricing.TaxRate, "PRICING_TAX_RATE"),
		setFloat(&cfg.Pricing.FreeShippingThreshold, "PRICING_FREE_SHIPPING_THRESHOLD"),
		setFloat(&cfg.Pricing.FlatShipping, "PRICING_FLAT_SHIPPING"),
	)
	return errors.Join(errs...)
}

// Validate reports every missing or out-of-range setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.App.Port == "" {
		errs = append(errs, errors.New("APP_PORT is required"))
	}
	if c.Postgres.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.Postgres.Port == "" {
		errs = append(errs, errors.New("DB_PORT is required"))
	}
	if c.Postgres.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.Postgres.DBName == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if c.Postgres.MinConns > c.Postgres.MaxConns {
		errs = append(errs, fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.Postgres.MinConns, c.Postgres.MaxConns))
	}
	if c.Pricing.TaxRate < 0 || c.Pricing.FreeShippingThreshold < 0 || c.Pricing.FlatShipping < 0 {
		errs = append(errs, errors.New("pricing values must be non-negative"))
	}
	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func setInt32(dst *int32, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = int32(n)
	return nil
}

func setBool(dst *bool, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func setFloat(dst *float64, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}
