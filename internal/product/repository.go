package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/apperr"
	"github.com/vasiliy-maslov/storefront/internal/db"
	"github.com/vasiliy-maslov/storefront/internal/paging"
)

type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	// GetForUpdate locks the given rows for the current transaction in
	// ascending id order. Missing ids are simply absent from the result.
	GetForUpdate(ctx context.Context, ids []uuid.UUID) ([]Product, error)
	// AdjustStock adds delta to the stock of one product. It never lets stock
	// drop below zero.
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id uuid.UUID) error

	List(ctx context.Context, filter ListFilter) ([]Product, int, error)
	ListHighlighted(ctx context.Context, h Highlight, limit int) ([]Product, error)
	ListRelated(ctx context.Context, p *Product, limit int) ([]Product, error)
	Brands(ctx context.Context) ([]string, error)
	PriceRange(ctx context.Context) (PriceRange, error)

	ListReviews(ctx context.Context, productID uuid.UUID, limit, offset int) ([]Review, int, error)
	UpsertReview(ctx context.Context, r *Review) (created bool, err error)
	RefreshRating(ctx context.Context, productID uuid.UUID) error
}

const productColumns = `
	id, name, description, short_description, price, discount_price, category, subcategory,
	brand, model, sku, images, specifications, features, tags, stock, low_stock_threshold,
	availability, status, rating, num_of_reviews, featured, trending, best_seller,
	created_by, last_modified_by, created_at, updated_at`

const visibleClause = `availability = TRUE AND status = 'active'`

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func scanProduct(row pgx.Row, p *Product) error {
	return row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.ShortDescription,
		&p.Price,
		&p.DiscountPrice,
		&p.Category,
		&p.Subcategory,
		&p.Brand,
		&p.Model,
		&p.SKU,
		&p.Images,
		&p.Specifications,
		&p.Features,
		&p.Tags,
		&p.Stock,
		&p.LowStockThreshold,
		&p.Availability,
		&p.Status,
		&p.Rating,
		&p.NumOfReviews,
		&p.Featured,
		&p.Trending,
		&p.BestSeller,
		&p.CreatedBy,
		&p.LastModifiedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		var p Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("repository: failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating products: %w", err)
	}
	return products, nil
}

// normalize replaces nil collections so NOT NULL json and array columns
// receive empty values instead of NULL.
func normalize(p *Product) {
	if p.Images == nil {
		p.Images = []Image{}
	}
	if p.Specifications == nil {
		p.Specifications = []Specification{}
	}
	if p.Features == nil {
		p.Features = []string{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
}

func (r *postgresRepository) Create(ctx context.Context, p *Product) error {
	if p.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate product ID: %w", err)
		}
		p.ID = id
	}
	normalize(p)

	query := `
		INSERT INTO products (
			id, name, description, short_description, price, discount_price, category, subcategory,
			brand, model, sku, images, specifications, features, tags, stock, low_stock_threshold,
			availability, status, featured, trending, best_seller, created_by, last_modified_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
		RETURNING rating, num_of_reviews, created_at, updated_at
	`
	err := db.Conn(ctx, r.pool).QueryRow(ctx, query,
		p.ID, p.Name, p.Description, p.ShortDescription, p.Price, p.DiscountPrice, p.Category, p.Subcategory,
		p.Brand, p.Model, p.SKU, p.Images, p.Specifications, p.Features, p.Tags, p.Stock, p.LowStockThreshold,
		p.Availability, string(p.Status), p.Featured, p.Trending, p.BestSeller, p.CreatedBy, p.LastModifiedBy,
	).Scan(&p.Rating, &p.NumOfReviews, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		log.Error().Err(err).Stringer("product_id", p.ID).Str("sku", p.SKU).Msg("repository: failed to insert product")
		if translated := db.Translate(err, "product"); translated != err {
			return translated
		}
		return fmt.Errorf("repository: failed to insert product: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var p Product
	if err := scanProduct(db.Conn(ctx, r.pool).QueryRow(ctx, query, id), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("product %s not found", id)
		}
		return nil, fmt.Errorf("repository: failed to select product by id %s: %w", id, err)
	}
	return &p, nil
}

func (r *postgresRepository) GetForUpdate(ctx context.Context, ids []uuid.UUID) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1) ORDER BY id FOR UPDATE`

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to lock products: %w", err)
	}
	return collectProducts(rows)
}

func (r *postgresRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	conn := db.Conn(ctx, r.pool)

	cmdTag, err := conn.Exec(ctx, `
		UPDATE products
		SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1 AND stock + $2 >= 0
	`, id, delta)
	if err != nil {
		log.Error().Err(err).Stringer("product_id", id).Int("delta", delta).Msg("repository: failed to adjust stock")
		return fmt.Errorf("repository: failed to adjust stock for product %s: %w", id, err)
	}
	if cmdTag.RowsAffected() > 0 {
		return nil
	}

	var stock int
	err = conn.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, id).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("product %s not found", id)
	}
	if err != nil {
		return fmt.Errorf("repository: failed to read stock for product %s: %w", id, err)
	}
	log.Warn().Stringer("product_id", id).Int("stock", stock).Int("delta", delta).Msg("repository: stock adjustment rejected")
	return apperr.InsufficientStock("insufficient stock for product %s, available: %d", id, stock)
}

func (r *postgresRepository) Update(ctx context.Context, p *Product) error {
	normalize(p)

	query := `
		UPDATE products SET
			name = $2, description = $3, short_description = $4, price = $5, discount_price = $6,
			category = $7, subcategory = $8, brand = $9, model = $10, images = $11, specifications = $12,
			features = $13, tags = $14, stock = $15, low_stock_threshold = $16, availability = $17,
			status = $18, featured = $19, trending = $20, best_seller = $21, last_modified_by = $22,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := db.Conn(ctx, r.pool).QueryRow(ctx, query,
		p.ID, p.Name, p.Description, p.ShortDescription, p.Price, p.DiscountPrice,
		p.Category, p.Subcategory, p.Brand, p.Model, p.Images, p.Specifications,
		p.Features, p.Tags, p.Stock, p.LowStockThreshold, p.Availability,
		string(p.Status), p.Featured, p.Trending, p.BestSeller, p.LastModifiedBy,
	).Scan(&p.UpdatedAt)
	if err != nil {
		log.Error().Err(err).Stringer("product_id", p.ID).Msg("repository: failed to update product")
		if translated := db.Translate(err, "product"); translated != err {
			return translated
		}
		return fmt.Errorf("repository: failed to update product %s: %w", p.ID, err)
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		log.Error().Err(err).Stringer("product_id", id).Msg("repository: failed to delete product")
		return fmt.Errorf("repository: failed to delete product %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperr.NotFound("product %s not found", id)
	}
	return nil
}

var sortClauses = map[Sort]string{
	SortDefault:   "featured DESC, rating DESC, created_at DESC",
	SortNewest:    "created_at DESC",
	SortPriceLow:  "price ASC",
	SortPriceHigh: "price DESC",
	SortRating:    "rating DESC, num_of_reviews DESC",
	SortPopular:   "num_of_reviews DESC, rating DESC",
}

func buildFilter(filter ListFilter) (string, []any) {
	where := []string{visibleClause}
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Category != "" {
		where = append(where, "category = "+arg(filter.Category))
	}
	if filter.Brand != "" {
		where = append(where, "brand = "+arg(filter.Brand))
	}
	if filter.MinPrice != nil {
		where = append(where, "price >= "+arg(*filter.MinPrice))
	}
	if filter.MaxPrice != nil {
		where = append(where, "price <= "+arg(*filter.MaxPrice))
	}
	if filter.MinRating != nil {
		where = append(where, "rating >= "+arg(*filter.MinRating))
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		p := arg("%" + term + "%")
		where = append(where, fmt.Sprintf(
			"(name ILIKE %[1]s OR description ILIKE %[1]s OR brand ILIKE %[1]s OR EXISTS (SELECT 1 FROM unnest(tags) AS t WHERE t ILIKE %[1]s))", p))
	}

	return strings.Join(where, " AND "), args
}

func (r *postgresRepository) List(ctx context.Context, filter ListFilter) ([]Product, int, error) {
	where, args := buildFilter(filter)
	conn := db.Conn(ctx, r.pool)

	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repository: failed to count products: %w", err)
	}

	orderBy, ok := sortClauses[filter.Sort]
	if !ok {
		orderBy = sortClauses[SortDefault]
	}

	page, limit := paging.Normalize(filter.Page, filter.Limit, 12)
	query := fmt.Sprintf(`SELECT %s FROM products WHERE %s ORDER BY %s LIMIT %d OFFSET %d`,
		productColumns, where, orderBy, limit, paging.Offset(page, limit))

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("repository: failed to list products: %w", err)
	}
	products, err := collectProducts(rows)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

var highlightColumns = map[Highlight]string{
	HighlightFeatured:   "featured",
	HighlightTrending:   "trending",
	HighlightBestSeller: "best_seller",
}

func (r *postgresRepository) ListHighlighted(ctx context.Context, h Highlight, limit int) ([]Product, error) {
	column, ok := highlightColumns[h]
	if !ok {
		return nil, apperr.InvalidArgument("unknown product highlight %q", h)
	}

	query := fmt.Sprintf(`SELECT %s FROM products WHERE %s = TRUE AND %s ORDER BY rating DESC, created_at DESC LIMIT $1`,
		productColumns, column, visibleClause)

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to list %s products: %w", h, err)
	}
	return collectProducts(rows)
}

func (r *postgresRepository) ListRelated(ctx context.Context, p *Product, limit int) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products
		WHERE id <> $1 AND (category = $2 OR brand = $3 OR tags && $4) AND ` + visibleClause + `
		ORDER BY rating DESC, created_at DESC
		LIMIT $5`

	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, p.ID, p.Category, p.Brand, tags, limit)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to list related products for %s: %w", p.ID, err)
	}
	return collectProducts(rows)
}

func (r *postgresRepository) Brands(ctx context.Context) ([]string, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `SELECT DISTINCT brand FROM products WHERE `+visibleClause+` ORDER BY brand`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to list brands: %w", err)
	}
	brands, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("repository: failed to scan brands: %w", err)
	}
	return brands, nil
}

func (r *postgresRepository) PriceRange(ctx context.Context) (PriceRange, error) {
	var pr PriceRange
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COALESCE(MIN(price), 0), COALESCE(MAX(price), 0) FROM products WHERE `+visibleClause,
	).Scan(&pr.MinPrice, &pr.MaxPrice)
	if err != nil {
		return PriceRange{}, fmt.Errorf("repository: failed to compute price range: %w", err)
	}
	return pr, nil
}

func (r *postgresRepository) ListReviews(ctx context.Context, productID uuid.UUID, limit, offset int) ([]Review, int, error) {
	conn := db.Conn(ctx, r.pool)

	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM product_reviews WHERE product_id = $1`, productID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repository: failed to count reviews for product %s: %w", productID, err)
	}

	rows, err := conn.Query(ctx, `
		SELECT id, product_id, user_id, name, rating, comment, helpful, created_at, updated_at
		FROM product_reviews
		WHERE product_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, productID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("repository: failed to query reviews for product %s: %w", productID, err)
	}
	defer rows.Close()

	reviews := make([]Review, 0)
	for rows.Next() {
		var rev Review
		if err := rows.Scan(
			&rev.ID,
			&rev.ProductID,
			&rev.UserID,
			&rev.Name,
			&rev.Rating,
			&rev.Comment,
			&rev.Helpful,
			&rev.CreatedAt,
			&rev.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("repository: failed to scan review for product %s: %w", productID, err)
		}
		reviews = append(reviews, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repository: failed iterating reviews for product %s: %w", productID, err)
	}
	return reviews, total, nil
}

func (r *postgresRepository) UpsertReview(ctx context.Context, rev *Review) (bool, error) {
	if rev.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return false, fmt.Errorf("repository: failed to generate review ID: %w", err)
		}
		rev.ID = id
	}

	var created bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO product_reviews (id, product_id, user_id, name, rating, comment)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (product_id, user_id)
		DO UPDATE SET rating = EXCLUDED.rating, comment = EXCLUDED.comment, updated_at = NOW()
		RETURNING id, helpful, created_at, updated_at, (xmax = 0)
	`, rev.ID, rev.ProductID, rev.UserID, rev.Name, rev.Rating, rev.Comment,
	).Scan(&rev.ID, &rev.Helpful, &rev.CreatedAt, &rev.UpdatedAt, &created)
	if err != nil {
		log.Error().Err(err).Stringer("product_id", rev.ProductID).Stringer("user_id", rev.UserID).Msg("repository: failed to upsert review")
		if translated := db.Translate(err, "review"); translated != err {
			return false, translated
		}
		return false, fmt.Errorf("repository: failed to upsert review: %w", err)
	}
	return created, nil
}

func (r *postgresRepository) RefreshRating(ctx context.Context, productID uuid.UUID) error {
	cmdTag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE products p
		SET rating = COALESCE(s.avg_rating, 0), num_of_reviews = s.review_count, updated_at = NOW()
		FROM (
			SELECT ROUND(AVG(rating)::numeric, 1) AS avg_rating, COUNT(*) AS review_count
			FROM product_reviews
			WHERE product_id = $1
		) s
		WHERE p.id = $1
	`, productID)
	if err != nil {
		return fmt.Errorf("repository: failed to refresh rating for product %s: %w", productID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperr.NotFound("product %s not found", productID)
	}
	return nil
}
