package admin_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/storefront/internal/admin"
	"github.com/vasiliy-maslov/storefront/internal/db"
	"github.com/vasiliy-maslov/storefront/internal/db/dbtest"
)

var testDB *pgxpool.Pool

func TestMain(m *testing.M) {
	var err error
	testDB, err = dbtest.Connect()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to test database")
	}

	exitCode := m.Run()

	if testDB != nil {
		testDB.Close()
	}
	os.Exit(exitCode)
}

func exec(t *testing.T, query string, args ...any) {
	t.Helper()
	_, err := testDB.Exec(context.Background(), query, args...)
	require.NoError(t, err)
}

func seedOrder(t *testing.T, userID, productID uuid.UUID, status string, qty int, price string) {
	t.Helper()
	orderID := uuid.Must(uuid.NewV4())
	total := decimal.RequireFromString(price).Mul(decimal.NewFromInt(int64(qty)))
	exec(t, `
		INSERT INTO orders (id, user_id, shipping_address, payment_method, payment_status, items_price, total_price, status)
		VALUES ($1, $2, '{}', 'card', 'pending', $3, $3, $4)`,
		orderID, userID, total, status)
	exec(t, `
		INSERT INTO order_items (order_id, position, product_id, name, price, quantity)
		VALUES ($1, 0, $2, 'item', $3, $4)`,
		orderID, productID, decimal.RequireFromString(price), qty)
}

func TestRepository_Aggregates(t *testing.T) {
	dbtest.Require(t, testDB)
	t.Cleanup(func() { dbtest.Truncate(t, testDB) })

	userID := uuid.Must(uuid.NewV4())
	adminID := uuid.Must(uuid.NewV4())
	exec(t, `INSERT INTO users (id, name, email, password_hash) VALUES ($1, 'Jane', 'jane@example.com', 'x')`, userID)
	exec(t, `INSERT INTO users (id, name, email, password_hash, role) VALUES ($1, 'Root', 'root@example.com', 'x', 'admin')`, adminID)

	phone := uuid.Must(uuid.NewV4())
	cable := uuid.Must(uuid.NewV4())
	for _, p := range []struct {
		id   uuid.UUID
		name string
		sku  string
	}{{phone, "Phone", "ACM-ELE-0001"}, {cable, "Cable", "ACM-ELE-0002"}} {
		exec(t, `
			INSERT INTO products (id, name, description, price, category, subcategory, brand, sku, stock, images)
			VALUES ($1, $2, 'd', 10, 'smartphones', 'flagship', 'Acme', $3, 10, '[{"url":"https://cdn.example.com/x.png","alt":""}]')`,
			p.id, p.name, p.sku)
	}

	seedOrder(t, userID, phone, "delivered", 3, "100")
	seedOrder(t, userID, cable, "shipped", 1, "50")
	seedOrder(t, userID, cable, "processing", 1, "50")

	repo := admin.NewRepository(db.SQLX(testDB))
	ctx := context.Background()

	users, err := repo.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, users)

	orders, err := repo.CountOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, orders)

	rev, err := repo.Revenue(ctx)
	require.NoError(t, err)
	assert.True(t, rev.Total.Equal(decimal.RequireFromString("350")))
	assert.True(t, rev.Average.Equal(decimal.RequireFromString("175")))

	months, err := repo.MonthlyRevenue(ctx, time.Now().AddDate(-1, 0, 0))
	require.NoError(t, err)
	require.Len(t, months, 1)
	assert.Equal(t, 2, months[0].Orders)

	top, err := repo.TopProducts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Phone", top[0].Name)
	assert.Equal(t, 3, top[0].TotalSold)
	assert.Equal(t, "https://cdn.example.com/x.png", top[0].Image)
	assert.Equal(t, 2, top[1].TotalSold)
}
