package admin

import (
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/storefront/internal/order"
	"github.com/vasiliy-maslov/storefront/internal/user"
)

type MonthlyRevenue struct {
	Year    int             `json:"year" db:"year"`
	Month   int             `json:"month" db:"month"`
	Revenue decimal.Decimal `json:"revenue" db:"revenue"`
	Orders  int             `json:"orders" db:"orders"`
}

type TopProduct struct {
	ProductID uuid.UUID       `json:"product_id" db:"product_id"`
	Name      string          `json:"name" db:"name"`
	Image     string          `json:"image" db:"image"`
	TotalSold int             `json:"total_sold" db:"total_sold"`
	Revenue   decimal.Decimal `json:"revenue" db:"revenue"`
}

type Revenue struct {
	Total   decimal.Decimal `db:"total"`
	Average decimal.Decimal `db:"average"`
}

type DashboardStats struct {
	TotalUsers        int              `json:"total_users"`
	TotalProducts     int              `json:"total_products"`
	TotalOrders       int              `json:"total_orders"`
	TotalRevenue      decimal.Decimal  `json:"total_revenue"`
	AverageOrderValue decimal.Decimal  `json:"average_order_value"`
	MonthlyRevenue    []MonthlyRevenue `json:"monthly_revenue"`
	TopProducts       []TopProduct     `json:"top_products"`
}

type UserDetails struct {
	User       *user.User         `json:"user"`
	OrderStats []order.StatusStat `json:"order_stats"`
}
