package category

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/apperr"
	"github.com/vasiliy-maslov/storefront/internal/db"
)

type Repository interface {
	Create(ctx context.Context, c *Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*Category, error)
	GetBySlug(ctx context.Context, slug string) (*Category, error)
	ListActive(ctx context.Context, featuredOnly bool, limit int) ([]Category, error)
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	// CountProducts counts products filed under the category's slug or name.
	CountProducts(ctx context.Context, c *Category) (int, error)
}

const categoryColumns = `id, name, slug, description, image_url, parent_id, is_active, featured, sort_order, created_at, updated_at`

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func scanCategory(row pgx.Row, c *Category) error {
	return row.Scan(
		&c.ID,
		&c.Name,
		&c.Slug,
		&c.Description,
		&c.ImageURL,
		&c.ParentID,
		&c.IsActive,
		&c.Featured,
		&c.SortOrder,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
}

func (r *postgresRepository) Create(ctx context.Context, c *Category) error {
	if c.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate category ID: %w", err)
		}
		c.ID = id
	}

	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO categories (id, name, slug, description, image_url, parent_id, is_active, featured, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`, c.ID, c.Name, c.Slug, c.Description, c.ImageURL, c.ParentID, c.IsActive, c.Featured, c.SortOrder,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		log.Error().Err(err).Str("name", c.Name).Msg("repository: failed to insert category")
		if translated := db.Translate(err, "category"); translated != err {
			return translated
		}
		return fmt.Errorf("repository: failed to insert category: %w", err)
	}
	return nil
}

func (r *postgresRepository) getOne(ctx context.Context, where string, arg any) (*Category, error) {
	var c Category
	err := scanCategory(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE `+where, arg), &c)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("category not found")
		}
		return nil, fmt.Errorf("repository: failed to select category: %w", err)
	}
	return &c, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Category, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *postgresRepository) GetBySlug(ctx context.Context, slug string) (*Category, error) {
	return r.getOne(ctx, "slug = $1 AND is_active = TRUE", slug)
}

func (r *postgresRepository) ListActive(ctx context.Context, featuredOnly bool, limit int) ([]Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories
		WHERE is_active = TRUE AND ($1 = FALSE OR featured = TRUE)
		ORDER BY sort_order, name`
	args := []any{featuredOnly}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := scanCategory(rows, &c); err != nil {
			return nil, fmt.Errorf("repository: failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating categories: %w", err)
	}
	return categories, nil
}

func (r *postgresRepository) Update(ctx context.Context, c *Category) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE categories
		SET name = $2, slug = $3, description = $4, image_url = $5, parent_id = $6,
			is_active = $7, featured = $8, sort_order = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, c.ID, c.Name, c.Slug, c.Description, c.ImageURL, c.ParentID, c.IsActive, c.Featured, c.SortOrder,
	).Scan(&c.UpdatedAt)
	if err != nil {
		log.Error().Err(err).Stringer("category_id", c.ID).Msg("repository: failed to update category")
		if translated := db.Translate(err, "category"); translated != err {
			return translated
		}
		return fmt.Errorf("repository: failed to update category %s: %w", c.ID, err)
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete category %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperr.NotFound("category not found")
	}
	return nil
}

func (r *postgresRepository) CountProducts(ctx context.Context, c *Category) (int, error) {
	var n int
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM products WHERE category = $1 OR category = $2`, c.Slug, c.Name,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to count products for category %s: %w", c.ID, err)
	}
	return n, nil
}
