// Package dbtest holds helpers shared by repository and service tests.
package dbtest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// EnvDatabaseURL names the variable pointing repository tests at a disposable
// PostgreSQL database. Repository tests skip when it is unset.
const EnvDatabaseURL = "STOREFRONT_TEST_DATABASE_URL"

// Transactor runs fn inline and counts invocations.
type Transactor struct {
	Calls int
}

func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.Calls++
	return fn(ctx)
}

func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations")
}

// Connect opens a pool against EnvDatabaseURL and applies all migrations.
// It returns a nil pool when the variable is unset.
func Connect() (*pgxpool.Pool, error) {
	url := os.Getenv(EnvDatabaseURL)
	if url == "" {
		return nil, nil
	}

	migrateURL := url
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(migrateURL, scheme) {
			migrateURL = "pgx5://" + strings.TrimPrefix(migrateURL, scheme)
		}
	}
	m, err := migrate.New("file://"+migrationsDir(), migrateURL)
	if err != nil {
		return nil, fmt.Errorf("dbtest: failed to init migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		m.Close()
		return nil, fmt.Errorf("dbtest: failed to migrate: %w", err)
	}
	m.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dbtest: failed to connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("dbtest: failed to ping: %w", err)
	}
	return pool, nil
}

// Require skips the test when no database is configured.
func Require(tb testing.TB, pool *pgxpool.Pool) {
	tb.Helper()
	if pool == nil {
		tb.Skipf("%s is not set", EnvDatabaseURL)
	}
}

// Truncate empties every storefront table.
func Truncate(tb testing.TB, pool *pgxpool.Pool) {
	tb.Helper()
	_, err := pool.Exec(context.Background(),
		"TRUNCATE TABLE user_wishlist, order_items, orders, product_reviews, products, categories, users RESTART IDENTITY CASCADE")
	require.NoError(tb, err, "failed to truncate tables")
}
