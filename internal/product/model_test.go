package product_test

import (
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/vasiliy-maslov/storefront/internal/product"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestProduct_FinalPriceAndDiscount(t *testing.T) {
	p := product.Product{Price: dec("200")}
	assert.True(t, p.FinalPrice().Equal(dec("200")))
	assert.Equal(t, 0, p.DiscountPercentage())

	p.DiscountPrice = decPtr("150")
	assert.True(t, p.FinalPrice().Equal(dec("150")))
	assert.Equal(t, 25, p.DiscountPercentage())

	p.DiscountPrice = decPtr("0")
	assert.True(t, p.FinalPrice().Equal(dec("200")), "zero discount falls back to list price")
}

func TestProduct_StockStatus(t *testing.T) {
	tests := []struct {
		stock int
		want  product.StockStatus
	}{
		{stock: 0, want: product.OutOfStock},
		{stock: 5, want: product.LowStock},
		{stock: 10, want: product.LowStock},
		{stock: 11, want: product.InStock},
	}
	for _, tt := range tests {
		p := product.Product{Stock: tt.stock, LowStockThreshold: 10}
		assert.Equal(t, tt.want, p.StockStatus(), "stock %d", tt.stock)
	}
}

func TestGenerateSKU(t *testing.T) {
	sku := product.GenerateSKU("apple", "smartphones")
	assert.Regexp(t, regexp.MustCompile(`^APP-SMA-[0-9A-Z]{4}$`), sku)

	short := product.GenerateSKU("LG", "tv")
	assert.Regexp(t, regexp.MustCompile(`^LG-TV-[0-9A-Z]{4}$`), short)
}
