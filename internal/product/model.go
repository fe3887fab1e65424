package product

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusActive       Status = "active"
	StatusInactive     Status = "inactive"
	StatusDiscontinued Status = "discontinued"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusDiscontinued:
		return true
	}
	return false
}

// Categories lists the catalog categories a product may belong to.
var Categories = []string{
	"smartphones",
	"laptops",
	"tablets",
	"smartwatches",
	"headphones",
	"speakers",
	"cameras",
	"gaming",
	"accessories",
	"home-appliances",
}

func ValidCategory(c string) bool {
	for _, known := range Categories {
		if known == c {
			return true
		}
	}
	return false
}

type StockStatus string

const (
	OutOfStock StockStatus = "out-of-stock"
	LowStock   StockStatus = "low-stock"
	InStock    StockStatus = "in-stock"
)

type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

type Specification struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type Product struct {
	ID                uuid.UUID        `json:"id" db:"id"`
	Name              string           `json:"name" db:"name"`
	Description       string           `json:"description" db:"description"`
	ShortDescription  string           `json:"short_description" db:"short_description"`
	Price             decimal.Decimal  `json:"price" db:"price"`
	DiscountPrice     *decimal.Decimal `json:"discount_price,omitempty" db:"discount_price"`
	Category          string           `json:"category" db:"category"`
	Subcategory       string           `json:"subcategory" db:"subcategory"`
	Brand             string           `json:"brand" db:"brand"`
	Model             string           `json:"model" db:"model"`
	SKU               string           `json:"sku" db:"sku"`
	Images            []Image          `json:"images" db:"images"`
	Specifications    []Specification  `json:"specifications" db:"specifications"`
	Features          []string         `json:"features" db:"features"`
	Tags              []string         `json:"tags" db:"tags"`
	Stock             int              `json:"stock" db:"stock"`
	LowStockThreshold int              `json:"low_stock_threshold" db:"low_stock_threshold"`
	Availability      bool             `json:"availability" db:"availability"`
	Status            Status           `json:"status" db:"status"`
	Rating            float64          `json:"rating" db:"rating"`
	NumOfReviews      int              `json:"num_of_reviews" db:"num_of_reviews"`
	Reviews           []Review         `json:"reviews,omitempty" db:"-"`
	Featured          bool             `json:"featured" db:"featured"`
	Trending          bool             `json:"trending" db:"trending"`
	BestSeller        bool             `json:"best_seller" db:"best_seller"`
	CreatedBy         *uuid.UUID       `json:"created_by,omitempty" db:"created_by"`
	LastModifiedBy    *uuid.UUID       `json:"last_modified_by,omitempty" db:"last_modified_by"`
	CreatedAt         time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at" db:"updated_at"`
}

// FinalPrice is the price a buyer pays today.
func (p *Product) FinalPrice() decimal.Decimal {
	if p.DiscountPrice != nil && p.DiscountPrice.IsPositive() {
		return *p.DiscountPrice
	}
	return p.Price
}

func (p *Product) DiscountPercentage() int {
	if p.DiscountPrice == nil || !p.Price.GreaterThan(*p.DiscountPrice) || !p.Price.IsPositive() {
		return 0
	}
	pct := p.Price.Sub(*p.DiscountPrice).Div(p.Price).Mul(decimal.NewFromInt(100)).Round(0)
	return int(pct.IntPart())
}

func (p *Product) StockStatus() StockStatus {
	switch {
	case p.Stock <= 0:
		return OutOfStock
	case p.Stock <= p.LowStockThreshold:
		return LowStock
	default:
		return InStock
	}
}

func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].URL
}

// Visible reports whether the product is listed in the public catalog.
func (p *Product) Visible() bool {
	return p.Availability && p.Status == StatusActive
}

const skuAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateSKU builds a BRA-CAT-XXXX code from the brand and category.
func GenerateSKU(brand, category string) string {
	suffix := make([]byte, 4)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(skuAlphabet))))
		if err != nil {
			suffix[i] = skuAlphabet[i]
			continue
		}
		suffix[i] = skuAlphabet[n.Int64()]
	}
	return prefix(brand) + "-" + prefix(category) + "-" + string(suffix)
}

func prefix(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) > 3 {
		s = s[:3]
	}
	return s
}

type Review struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment" db:"comment"`
	Helpful   int       `json:"helpful" db:"helpful"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Sort string

const (
	SortDefault   Sort = ""
	SortNewest    Sort = "newest"
	SortPriceLow  Sort = "price-low"
	SortPriceHigh Sort = "price-high"
	SortRating    Sort = "rating"
	SortPopular   Sort = "popularity"
)

// ListFilter narrows the public catalog listing. Zero values mean "any".
type ListFilter struct {
	Category  string
	Brand     string
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	MinRating *float64
	Search    string
	Sort      Sort
	Page      int
	Limit     int
}

type Page struct {
	Products       []Product `json:"products"`
	TotalProducts  int       `json:"total_products"`
	ResultsPerPage int       `json:"results_per_page"`
	CurrentPage    int       `json:"current_page"`
	TotalPages     int       `json:"total_pages"`
}

type ReviewPage struct {
	Reviews       []Review `json:"reviews"`
	TotalReviews  int      `json:"total_reviews"`
	CurrentPage   int      `json:"current_page"`
	TotalPages    int      `json:"total_pages"`
	AverageRating float64  `json:"average_rating"`
}

type PriceRange struct {
	MinPrice decimal.Decimal `json:"min_price"`
	MaxPrice decimal.Decimal `json:"max_price"`
}

// Highlight selects one of the merchandising flags.
type Highlight string

const (
	HighlightFeatured   Highlight = "featured"
	HighlightTrending   Highlight = "trending"
	HighlightBestSeller Highlight = "best_seller"
)

// HighlightLimit caps the featured, trending, best seller and related lists.
const HighlightLimit = 8

type CreateInput struct {
	Name              string
	Description       string
	ShortDescription  string
	Price             decimal.Decimal
	DiscountPrice     *decimal.Decimal
	Category          string
	Subcategory       string
	Brand             string
	Model             string
	SKU               string
	Images            []Image
	Specifications    []Specification
	Features          []string
	Tags              []string
	Stock             int
	LowStockThreshold *int
	Featured          bool
	Trending          bool
	BestSeller        bool
}

// UpdateInput is a partial update: nil fields are left untouched.
type UpdateInput struct {
	Name              *string
	Description       *string
	ShortDescription  *string
	Price             *decimal.Decimal
	DiscountPrice     *decimal.Decimal
	ClearDiscount     bool
	Category          *string
	Subcategory       *string
	Brand             *string
	Model             *string
	Images            *[]Image
	Specifications    *[]Specification
	Features          *[]string
	Tags              *[]string
	Stock             *int
	LowStockThreshold *int
	Availability      *bool
	Status            *Status
	Featured          *bool
	Trending          *bool
	BestSeller        *bool
}

type ReviewInput struct {
	Rating  int
	Comment string
}
