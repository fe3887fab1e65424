// Package payment creates and inspects payment intents with an external
// card processor.
package payment

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/storefront/internal/apperr"
)

type Intent struct {
	ID           string `json:"payment_intent_id"`
	ClientSecret string `json:"client_secret,omitempty"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

type Provider interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal, currency string, metadata map[string]string) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
}

// MinorUnits converts a major-unit amount to cents, rounding half away from
// zero. Non-positive amounts are rejected.
func MinorUnits(amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, apperr.InvalidArgument("invalid payment amount")
	}
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}

func normalizeCurrency(currency, fallback string) string {
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		return fallback
	}
	return currency
}

// Disabled is used when no processor is configured.
type Disabled struct{}

func (Disabled) CreateIntent(context.Context, decimal.Decimal, string, map[string]string) (*Intent, error) {
	return nil, apperr.InvalidState("payments are not configured")
}

func (Disabled) GetIntent(context.Context, string) (*Intent, error) {
	return nil, apperr.InvalidState("payments are not configured")
}
