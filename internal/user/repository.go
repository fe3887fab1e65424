package user

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
	Create(ctx context.Context, user *User) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, filter ListFilter) ([]User, int, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role string) (*User, error)
	// ToggleActive flips is_active and returns the updated user.
	ToggleActive(ctx context.Context, id uuid.UUID) (*User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) (*User, error)

	Wishlist(ctx context.Context, userID uuid.UUID) ([]WishlistItem, error)
	// AddToWishlist fails with ErrConflict when the product is already listed.
	AddToWishlist(ctx context.Context, userID, productID uuid.UUID) error
	RemoveFromWishlist(ctx context.Context, userID, productID uuid.UUID) error
}

const userColumns = `id, name, email, password_hash, role, is_active, phone, address, created_at, updated_at`

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func scanUser(row pgx.Row, u *User) error {
	return row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.IsActive,
		&u.Phone,
		&u.Address,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
}

func (r *postgresRepository) Create(ctx context.Context, user *User) (uuid.UUID, error) {
	if user.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			log.Error().Err(err).Msg("repository: failed to generate user ID")
			return uuid.Nil, fmt.Errorf("repository: failed to generate user ID: %w", err)
		}
		user.ID = id
	}

	query := `
		INSERT INTO users (id, name, email, password_hash, role, is_active, phone, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	`
	now := time.Now().UTC()

	_, err := db.Conn(ctx, r.pool).Exec(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.IsActive,
		user.Phone,
		user.Address,
		now,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			log.Warn().Str("email", user.Email).Msg("repository: user email already exists")
			return uuid.Nil, apperr.Conflict("email %s already exists", user.Email)
		}
		log.Error().Err(err).Str("email", user.Email).Msg("repository: failed to insert user")
		if translated := db.Translate(err, "user"); translated != err {
			return uuid.Nil, translated
		}
		return uuid.Nil, fmt.Errorf("repository: failed to insert user: %w", err)
	}

	user.CreatedAt = now
	user.UpdatedAt = now
	return user.ID, nil
}

func (r *postgresRepository) getOne(ctx context.Context, where string, arg any) (*User, error) {
	var u User
	err := scanUser(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg), &u)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("user not found")
		}
		log.Error().Err(err).Msg("repository: failed to select user")
		return nil, fmt.Errorf("repository: failed to select user: %w", err)
	}
	return &u, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *postgresRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, "LOWER(email) = LOWER($1)", email)
}

func (r *postgresRepository) List(ctx context.Context, filter ListFilter) ([]User, int, error) {
	var where []string
	var args []any
	if term := strings.TrimSpace(filter.Search); term != "" {
		args = append(args, "%"+term+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", n, n))
	}
	if filter.Role != "" {
		args = append(args, filter.Role)
		where = append(where, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		where = append(where, fmt.Sprintf("is_active = $%d", len(args)))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}
	conn := db.Conn(ctx, r.pool)

	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM users`+clause, args...).Scan(&total); err != nil {
		log.Error().Err(err).Msg("repository: failed to count users")
		return nil, 0, fmt.Errorf("repository: failed to count users: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		userColumns, clause, filter.Limit, paging.Offset(filter.Page, filter.Limit))
	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		log.Error().Err(err).Msg("repository: failed to list users")
		return nil, 0, fmt.Errorf("repository: failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		var u User
		if err := scanUser(rows, &u); err != nil {
			return nil, 0, fmt.Errorf("repository: failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repository: failed iterating users: %w", err)
	}
	return users, total, nil
}

func (r *postgresRepository) updateReturning(ctx context.Context, set string, args ...any) (*User, error) {
	query := `UPDATE users SET ` + set + `, updated_at = NOW() WHERE id = $1 RETURNING ` + userColumns
	var u User
	if err := scanUser(db.Conn(ctx, r.pool).QueryRow(ctx, query, args...), &u); err != nil {
		if translated := db.Translate(err, "user"); translated != err {
			return nil, translated
		}
		log.Error().Err(err).Msg("repository: failed to update user")
		return nil, fmt.Errorf("repository: failed to update user: %w", err)
	}
	return &u, nil
}

func (r *postgresRepository) UpdateRole(ctx context.Context, id uuid.UUID, role string) (*User, error) {
	return r.updateReturning(ctx, "role = $2", id, role)
}

func (r *postgresRepository) ToggleActive(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.updateReturning(ctx, "is_active = NOT is_active", id)
}

func (r *postgresRepository) UpdateProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) (*User, error) {
	sets := []string{}
	args := []any{id}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Email != nil {
		add("email", *upd.Email)
	}
	if upd.Phone != nil {
		add("phone", *upd.Phone)
	}
	if upd.Address != nil {
		add("address", *upd.Address)
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	return r.updateReturning(ctx, strings.Join(sets, ", "), args...)
}

func (r *postgresRepository) Wishlist(ctx context.Context, userID uuid.UUID) ([]WishlistItem, error) {
	query := `
		SELECT p.id, p.name, p.price, COALESCE(p.images->0->>'url', ''), w.created_at
		FROM user_wishlist w
		JOIN products p ON p.id = w.product_id
		WHERE w.user_id = $1
		ORDER BY w.created_at, p.id
	`
	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("repository: failed to select wishlist")
		return nil, fmt.Errorf("repository: failed to select wishlist: %w", err)
	}
	defer rows.Close()

	items := make([]WishlistItem, 0)
	for rows.Next() {
		var item WishlistItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.Price, &item.Image, &item.AddedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan wishlist item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating wishlist: %w", err)
	}
	return items, nil
}

func (r *postgresRepository) AddToWishlist(ctx context.Context, userID, productID uuid.UUID) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx,
		`INSERT INTO user_wishlist (user_id, product_id, created_at) VALUES ($1, $2, $3)`,
		userID, productID, time.Now().UTC())
	if err == nil {
		return nil
	}
	if db.IsUniqueViolation(err) {
		return apperr.Conflict("product already in wishlist")
	}
	if db.IsForeignKeyViolation(err) {
		return apperr.NotFound("product not found")
	}
	log.Error().Err(err).Stringer("user_id", userID).Stringer("product_id", productID).Msg("repository: failed to insert wishlist entry")
	return fmt.Errorf("repository: failed to insert wishlist entry: %w", err)
}

func (r *postgresRepository) RemoveFromWishlist(ctx context.Context, userID, productID uuid.UUID) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM user_wishlist WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Stringer("product_id", productID).Msg("repository: failed to delete wishlist entry")
		return fmt.Errorf("repository: failed to delete wishlist entry: %w", err)
	}
	return nil
}
