// Package pricing computes cart quotes and the default tax and shipping
// charges applied to orders.
package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/storefront/internal/apperr"
	"github.com/vasiliy-maslov/storefront/internal/config"
	"github.com/vasiliy-maslov/storefront/internal/product"
)

var hundred = decimal.NewFromInt(100)

type ProductReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*product.Product, error)
}

type Calculator struct {
	taxRate               decimal.Decimal
	freeShippingThreshold decimal.Decimal
	flatShipping          decimal.Decimal
	products              ProductReader
}

func NewCalculator(cfg config.PricingConfig, products ProductReader) *Calculator {
	return &Calculator{
		taxRate:               decimal.NewFromFloat(cfg.TaxRate),
		freeShippingThreshold: decimal.NewFromFloat(cfg.FreeShippingThreshold),
		flatShipping:          decimal.NewFromFloat(cfg.FlatShipping),
		products:              products,
	}
}

// Tax is the sales tax owed on subtotal, rounded to cents.
func (c *Calculator) Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(c.taxRate).Round(2)
}

// Shipping is free at or above the threshold and flat below it.
func (c *Calculator) Shipping(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(c.freeShippingThreshold) {
		return decimal.Zero
	}
	return c.flatShipping
}

type Item struct {
	ProductID uuid.UUID
	Quantity  int
}

type Line struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	ListPrice decimal.Decimal `json:"list_price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	InStock   bool            `json:"in_stock"`
}

type Quote struct {
	Lines                 []Line          `json:"lines"`
	ItemCount             int             `json:"item_count"`
	Subtotal              decimal.Decimal `json:"subtotal"`
	Savings               decimal.Decimal `json:"savings"`
	CouponDiscount        decimal.Decimal `json:"coupon_discount"`
	Tax                   decimal.Decimal `json:"tax"`
	Shipping              decimal.Decimal `json:"shipping"`
	Total                 decimal.Decimal `json:"total"`
	FreeShippingRemaining decimal.Decimal `json:"free_shipping_remaining"`
}

// Quote prices a cart against current catalog prices. couponPercent is a
// percentage in [0, 100] taken off the subtotal.
func (c *Calculator) Quote(ctx context.Context, items []Item, couponPercent decimal.Decimal) (*Quote, error) {
	if len(items) == 0 {
		return nil, apperr.InvalidArgument("cart is empty")
	}
	if couponPercent.IsNegative() || couponPercent.GreaterThan(hundred) {
		return nil, apperr.InvalidArgument("coupon discount must be between 0 and 100 percent")
	}

	quantities := make(map[uuid.UUID]int, len(items))
	order := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		if it.Quantity < 1 {
			return nil, apperr.InvalidArgument("quantity for product %s must be at least 1", it.ProductID)
		}
		if _, seen := quantities[it.ProductID]; !seen {
			order = append(order, it.ProductID)
		}
		quantities[it.ProductID] += it.Quantity
	}

	q := &Quote{Lines: make([]Line, 0, len(order))}
	for _, id := range order {
		p, err := c.products.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return nil, err
			}
			log.Error().Err(err).Stringer("product_id", id).Msg("pricing: failed to load product")
			return nil, fmt.Errorf("pricing: failed to load product %s: %w", id, err)
		}

		qty := decimal.NewFromInt(int64(quantities[id]))
		line := Line{
			ProductID: p.ID,
			Name:      p.Name,
			Image:     p.FirstImage(),
			UnitPrice: p.FinalPrice(),
			ListPrice: p.Price,
			Quantity:  quantities[id],
			Subtotal:  p.FinalPrice().Mul(qty),
			InStock:   p.Stock >= quantities[id],
		}
		q.Lines = append(q.Lines, line)
		q.ItemCount += line.Quantity
		q.Subtotal = q.Subtotal.Add(line.Subtotal)
		q.Savings = q.Savings.Add(p.Price.Sub(line.UnitPrice).Mul(qty))
	}

	q.CouponDiscount = q.Subtotal.Mul(couponPercent).Div(hundred).Round(2)
	q.Savings = q.Savings.Add(q.CouponDiscount)
	q.Tax = c.Tax(q.Subtotal)
	q.Shipping = c.Shipping(q.Subtotal)
	q.Total = decimal.Max(decimal.Zero, q.Subtotal.Sub(q.CouponDiscount)).Add(q.Tax).Add(q.Shipping)
	q.FreeShippingRemaining = decimal.Max(decimal.Zero, c.freeShippingThreshold.Sub(q.Subtotal))
	return q, nil
}
