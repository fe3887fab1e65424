package order

import (
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusProcessing Status = "processing"
	StatusConfirmed  Status = "confirmed"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
	StatusReturned   Status = "returned"
)

func (s Status) String() string {
	return string(s)
}

// Statuses lists every order status in lifecycle order.
var Statuses = []Status{
	StatusProcessing,
	StatusConfirmed,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
	StatusRefunded,
	StatusReturned,
}

func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	PaymentCard           PaymentMethod = "card"
	PaymentPayPal         PaymentMethod = "paypal"
	PaymentStripe         PaymentMethod = "stripe"
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCard, PaymentPayPal, PaymentStripe, PaymentCashOnDelivery:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// LineItem is a product snapshot taken when the order was placed.
type LineItem struct {
	ProductID uuid.UUID       `json:"product_id" db:"product_id"`
	Name      string          `json:"name" db:"name"`
	Image     string          `json:"image" db:"image"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Quantity  int             `json:"quantity" db:"quantity"`
}

func (li LineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

const DefaultCountry = "United States"

// MaxItemQuantity caps a single line after repeated products are merged.
const MaxItemQuantity = 1000

type ShippingAddress struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zip_code"`
	Country  string `json:"country"`
}

type PaymentInfo struct {
	Method        PaymentMethod `json:"method"`
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transaction_id,omitempty"`
	PaymentIntent string        `json:"payment_intent,omitempty"`
}

type Order struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	UserID             uuid.UUID       `json:"user_id" db:"user_id"`
	Items              []LineItem      `json:"items" db:"-"`
	ShippingAddress    ShippingAddress `json:"shipping_address" db:"shipping_address"`
	PaymentInfo        PaymentInfo     `json:"payment_info" db:"-"`
	PaidAt             *time.Time      `json:"paid_at,omitempty" db:"paid_at"`
	ItemsPrice         decimal.Decimal `json:"items_price" db:"items_price"`
	TaxPrice           decimal.Decimal `json:"tax_price" db:"tax_price"`
	ShippingPrice      decimal.Decimal `json:"shipping_price" db:"shipping_price"`
	DiscountAmount     decimal.Decimal `json:"discount_amount" db:"discount_amount"`
	TotalPrice         decimal.Decimal `json:"total_price" db:"total_price"`
	Status             Status          `json:"status" db:"status"`
	Notes              string          `json:"notes,omitempty" db:"notes"`
	TrackingNumber     string          `json:"tracking_number,omitempty" db:"tracking_number"`
	EstimatedDelivery  *time.Time      `json:"estimated_delivery,omitempty" db:"estimated_delivery"`
	ShippedAt          *time.Time      `json:"shipped_at,omitempty" db:"shipped_at"`
	DeliveredAt        *time.Time      `json:"delivered_at,omitempty" db:"delivered_at"`
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CancellationReason string          `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	RefundedAt         *time.Time      `json:"refunded_at,omitempty" db:"refunded_at"`
	ReturnedAt         *time.Time      `json:"returned_at,omitempty" db:"returned_at"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// RecalculateTotals derives ItemsPrice from the line items and TotalPrice
// from ItemsPrice, TaxPrice, ShippingPrice and DiscountAmount. It must run
// after any of those inputs change.
func (o *Order) RecalculateTotals() {
	items := decimal.Zero
	for _, li := range o.Items {
		items = items.Add(li.Subtotal())
	}
	o.ItemsPrice = items
	o.TotalPrice = items.Add(o.TaxPrice).Add(o.ShippingPrice).Sub(o.DiscountAmount)
}

// OrderNumber is the customer-facing reference: ORD- followed by the last
// eight hex digits of the id.
func (o *Order) OrderNumber() string {
	hex := strings.ReplaceAll(o.ID.String(), "-", "")
	return "ORD-" + strings.ToUpper(hex[len(hex)-8:])
}

func (o *Order) TotalItems() int {
	n := 0
	for _, li := range o.Items {
		n += li.Quantity
	}
	return n
}

func (o *Order) CanBeCancelled() bool {
	return o.Status == StatusProcessing || o.Status == StatusConfirmed
}

type ItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateInput describes a new order. Nil TaxPrice or ShippingPrice means the
// storefront's default charges apply.
type CreateInput struct {
	UserID          uuid.UUID
	Items           []ItemInput
	ShippingAddress ShippingAddress
	PaymentInfo     PaymentInfo
	TaxPrice        *decimal.Decimal
	ShippingPrice   *decimal.Decimal
	DiscountAmount  decimal.Decimal
	Notes           string
}

type StatusUpdate struct {
	Status            Status
	TrackingNumber    string
	EstimatedDelivery *time.Time
}

type ListFilter struct {
	Status Status
	// Search matches the recipient name or the tracking number. Admin only.
	Search string
	Page   int
	Limit  int
}

type ListPage struct {
	Orders      []Order `json:"orders"`
	TotalOrders int     `json:"total_orders"`
	CurrentPage int     `json:"current_page"`
	TotalPages  int     `json:"total_pages"`
}

type StatusStat struct {
	Status      Status          `json:"status"`
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type Stats struct {
	OrdersByStatus []StatusStat    `json:"orders_by_status"`
	TotalOrders    int             `json:"total_orders"`
	TotalSpent     decimal.Decimal `json:"total_spent"`
}
