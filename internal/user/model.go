package user

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	Phone        string    `json:"phone" db:"phone"`
	Address      Address   `json:"address" db:"address"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Address is stored as JSONB on the user row.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
	Country string `json:"country,omitempty"`
}

// ProfileUpdate changes only the fields that are set.
type ProfileUpdate struct {
	Name    *string
	Email   *string
	Phone   *string
	Address *Address
}

type WishlistItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
	AddedAt   time.Time       `json:"added_at"`
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type ListFilter struct {
	// Search matches name or email, case-insensitively.
	Search   string
	Role     string
	IsActive *bool
	Page     int
	Limit    int
}

type ListPage struct {
	Users       []User `json:"users"`
	TotalUsers  int    `json:"total_users"`
	CurrentPage int    `json:"current_page"`
	TotalPages  int    `json:"total_pages"`
}
