package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/apperr"
	"github.com/vasiliy-maslov/storefront/internal/db"
	"github.com/vasiliy-maslov/storefront/internal/paging"
)

type Repository interface {
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// GetForUpdate loads the order and locks its row until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Order, error)
	Update(ctx context.Context, order *Order) error
	ListByUser(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]Order, int, error)
	List(ctx context.Context, filter ListFilter) ([]Order, int, error)
	StatsByUser(ctx context.Context, userID uuid.UUID) (*Stats, error)
}

const orderColumns = `
	id, user_id, shipping_address, payment_method, payment_status, transaction_id, payment_intent,
	paid_at, items_price, tax_price, shipping_price, discount_amount, total_price, status, notes,
	tracking_number, estimated_delivery, shipped_at, delivered_at, cancelled_at, cancellation_reason,
	refunded_at, returned_at, created_at, updated_at`

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func scanOrder(row pgx.Row, o *Order) error {
	return row.Scan(
		&o.ID,
		&o.UserID,
		&o.ShippingAddress,
		&o.PaymentInfo.Method,
		&o.PaymentInfo.Status,
		&o.PaymentInfo.TransactionID,
		&o.PaymentInfo.PaymentIntent,
		&o.PaidAt,
		&o.ItemsPrice,
		&o.TaxPrice,
		&o.ShippingPrice,
		&o.DiscountAmount,
		&o.TotalPrice,
		&o.Status,
		&o.Notes,
		&o.TrackingNumber,
		&o.EstimatedDelivery,
		&o.ShippedAt,
		&o.DeliveredAt,
		&o.CancelledAt,
		&o.CancellationReason,
		&o.RefundedAt,
		&o.ReturnedAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
}

func (r *postgresRepository) Create(ctx context.Context, o *Order) error {
	if o.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			log.Error().Err(err).Msg("repository: failed to generate order ID")
			return fmt.Errorf("repository: failed to generate order ID: %w", err)
		}
		o.ID = id
	}

	conn := db.Conn(ctx, r.pool)
	now := time.Now().UTC()

	queryOrder := `
		INSERT INTO orders (
			id, user_id, shipping_address, payment_method, payment_status, transaction_id, payment_intent,
			paid_at, items_price, tax_price, shipping_price, discount_amount, total_price, status, notes,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16)
	`
	_, err := conn.Exec(ctx, queryOrder,
		o.ID,
		o.UserID,
		o.ShippingAddress,
		string(o.PaymentInfo.Method),
		string(o.PaymentInfo.Status),
		o.PaymentInfo.TransactionID,
		o.PaymentInfo.PaymentIntent,
		o.PaidAt,
		o.ItemsPrice,
		o.TaxPrice,
		o.ShippingPrice,
		o.DiscountAmount,
		o.TotalPrice,
		string(o.Status),
		o.Notes,
		now,
	)
	if err != nil {
		log.Error().Err(err).Stringer("order_id", o.ID).Msg("repository: failed to insert order")
		if translated := db.Translate(err, "order"); translated != err {
			return translated
		}
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}
	o.CreatedAt = now
	o.UpdatedAt = now

	queryItem := `
		INSERT INTO order_items (order_id, position, product_id, name, image, price, quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for i, item := range o.Items {
		_, err = conn.Exec(ctx, queryItem,
			o.ID,
			i,
			item.ProductID,
			item.Name,
			item.Image,
			item.Price,
			item.Quantity,
		)
		if err != nil {
			log.Error().Err(err).Stringer("order_id", o.ID).Stringer("product_id", item.ProductID).Msg("repository: failed to insert order item")
			return fmt.Errorf("repository: failed to insert order item for order %s: %w", o.ID, err)
		}
	}

	return nil
}

func (r *postgresRepository) getOne(ctx context.Context, id uuid.UUID, lock bool) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	var o Order
	if err := scanOrder(db.Conn(ctx, r.pool).QueryRow(ctx, query, id), &o); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("order %s not found", id)
		}
		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", id, err)
	}

	orders := []Order{o}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	return r.getOne(ctx, id, false)
}

func (r *postgresRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*Order, error) {
	return r.getOne(ctx, id, true)
}

// attachItems loads the line items of every order with a single query.
func (r *postgresRepository) attachItems(ctx context.Context, orders []Order) error {
	if len(orders) == 0 {
		return nil
	}

	index := make(map[uuid.UUID]int, len(orders))
	ids := make([]uuid.UUID, 0, len(orders))
	for i := range orders {
		orders[i].Items = make([]LineItem, 0)
		index[orders[i].ID] = i
		ids = append(ids, orders[i].ID)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT order_id, product_id, name, image, price, quantity
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`, ids)
	if err != nil {
		return fmt.Errorf("repository: failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID uuid.UUID
		var item LineItem
		if err := rows.Scan(
			&orderID,
			&item.ProductID,
			&item.Name,
			&item.Image,
			&item.Price,
			&item.Quantity,
		); err != nil {
			return fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		if i, ok := index[orderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("repository: failed iterating order items: %w", err)
	}
	return nil
}

func (r *postgresRepository) Update(ctx context.Context, o *Order) error {
	query := `
		UPDATE orders SET
			payment_status = $2, transaction_id = $3, payment_intent = $4, paid_at = $5,
			status = $6, tracking_number = $7, estimated_delivery = $8, shipped_at = $9,
			delivered_at = $10, cancelled_at = $11, cancellation_reason = $12, refunded_at = $13,
			returned_at = $14, updated_at = $15
		WHERE id = $1
	`
	now := time.Now().UTC()

	cmdTag, err := db.Conn(ctx, r.pool).Exec(ctx, query,
		o.ID,
		string(o.PaymentInfo.Status),
		o.PaymentInfo.TransactionID,
		o.PaymentInfo.PaymentIntent,
		o.PaidAt,
		string(o.Status),
		o.TrackingNumber,
		o.EstimatedDelivery,
		o.ShippedAt,
		o.DeliveredAt,
		o.CancelledAt,
		o.CancellationReason,
		o.RefundedAt,
		o.ReturnedAt,
		now,
	)
	if err != nil {
		log.Error().Err(err).Stringer("order_id", o.ID).Stringer("status", o.Status).Msg("repository: failed to update order")
		return fmt.Errorf("repository: failed to update order %s: %w", o.ID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		log.Warn().Stringer("order_id", o.ID).Msg("repository: order not found for update")
		return apperr.NotFound("order %s not found", o.ID)
	}

	o.UpdatedAt = now
	return nil
}

func (r *postgresRepository) list(ctx context.Context, where []string, args []any, page, limit int) ([]Order, int, error) {
	conn := db.Conn(ctx, r.pool)
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repository: failed to count orders: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM orders%s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		orderColumns, clause, limit, paging.Offset(page, limit))

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, 0, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repository: failed iterating orders: %w", err)
	}
	rows.Close()

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]Order, int, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	orders, total, err := r.list(ctx, where, args, filter.Page, filter.Limit)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("repository: failed to list user orders")
		return nil, 0, fmt.Errorf("repository: failed to list orders for user %s: %w", userID, err)
	}
	return orders, total, nil
}

func (r *postgresRepository) List(ctx context.Context, filter ListFilter) ([]Order, int, error) {
	var where []string
	var args []any
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		args = append(args, "%"+term+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(shipping_address->>'full_name' ILIKE $%d OR tracking_number ILIKE $%d)", n, n))
	}

	orders, total, err := r.list(ctx, where, args, filter.Page, filter.Limit)
	if err != nil {
		log.Error().Err(err).Msg("repository: failed to list orders")
		return nil, 0, fmt.Errorf("repository: failed to list orders: %w", err)
	}
	return orders, total, nil
}

func (r *postgresRepository) StatsByUser(ctx context.Context, userID uuid.UUID) (*Stats, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(total_price), 0)
		FROM orders
		WHERE user_id = $1
		GROUP BY status
		ORDER BY status
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to aggregate orders for user %s: %w", userID, err)
	}
	defer rows.Close()

	stats := &Stats{OrdersByStatus: make([]StatusStat, 0)}
	for rows.Next() {
		var s StatusStat
		if err := rows.Scan(&s.Status, &s.Count, &s.TotalAmount); err != nil {
			return nil, fmt.Errorf("repository: failed to scan order stats for user %s: %w", userID, err)
		}
		stats.OrdersByStatus = append(stats.OrdersByStatus, s)
		stats.TotalOrders += s.Count
		stats.TotalSpent = stats.TotalSpent.Add(s.TotalAmount)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating order stats for user %s: %w", userID, err)
	}
	return stats, nil
}
