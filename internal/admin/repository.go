package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// revenueStatuses are the order states counted as earned revenue.
const revenueStatuses = `('shipped', 'delivered')`

type Repository interface {
	CountUsers(ctx context.Context) (int, error)
	CountProducts(ctx context.Context) (int, error)
	CountOrders(ctx context.Context) (int, error)
	Revenue(ctx context.Context) (*Revenue, error)
	MonthlyRevenue(ctx context.Context, since time.Time) ([]MonthlyRevenue, error)
	TopProducts(ctx context.Context, limit int) ([]TopProduct, error)
}

type sqlxRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &sqlxRepository{db: db}
}

func (r *sqlxRepository) count(ctx context.Context, query, what string) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, query); err != nil {
		log.Error().Err(err).Str("entity", what).Msg("repository: failed to count")
		return 0, fmt.Errorf("repository: failed to count %s: %w", what, err)
	}
	return n, nil
}

func (r *sqlxRepository) CountUsers(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM users WHERE role = 'user'`, "users")
}

func (r *sqlxRepository) CountProducts(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM products`, "products")
}

func (r *sqlxRepository) CountOrders(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM orders`, "orders")
}

func (r *sqlxRepository) Revenue(ctx context.Context) (*Revenue, error) {
	var rev Revenue
	query := `
		SELECT COALESCE(SUM(total_price), 0) AS total, COALESCE(ROUND(AVG(total_price), 2), 0) AS average
		FROM orders
		WHERE status IN ` + revenueStatuses
	if err := r.db.GetContext(ctx, &rev, query); err != nil {
		log.Error().Err(err).Msg("repository: failed to aggregate revenue")
		return nil, fmt.Errorf("repository: failed to aggregate revenue: %w", err)
	}
	return &rev, nil
}

func (r *sqlxRepository) MonthlyRevenue(ctx context.Context, since time.Time) ([]MonthlyRevenue, error) {
	query := `
		SELECT
			EXTRACT(YEAR FROM created_at)::int AS year,
			EXTRACT(MONTH FROM created_at)::int AS month,
			SUM(total_price) AS revenue,
			COUNT(*) AS orders
		FROM orders
		WHERE created_at >= $1 AND status IN ` + revenueStatuses + `
		GROUP BY 1, 2
		ORDER BY 1, 2
	`
	months := make([]MonthlyRevenue, 0)
	if err := r.db.SelectContext(ctx, &months, query, since); err != nil {
		log.Error().Err(err).Msg("repository: failed to aggregate monthly revenue")
		return nil, fmt.Errorf("repository: failed to aggregate monthly revenue: %w", err)
	}
	return months, nil
}

func (r *sqlxRepository) TopProducts(ctx context.Context, limit int) ([]TopProduct, error) {
	query := `
		SELECT
			p.id AS product_id,
			p.name AS name,
			COALESCE(p.images->0->>'url', '') AS image,
			SUM(oi.quantity) AS total_sold,
			SUM(oi.price * oi.quantity) AS revenue
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		GROUP BY p.id
		ORDER BY total_sold DESC, p.name
		LIMIT $1
	`
	top := make([]TopProduct, 0)
	if err := r.db.SelectContext(ctx, &top, query, limit); err != nil {
		log.Error().Err(err).Msg("repository: failed to load top products")
		return nil, fmt.Errorf("repository: failed to load top products: %w", err)
	}
	return top, nil
}
