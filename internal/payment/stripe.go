package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/vasiliy-maslov/storefront/internal/apperr"
)

// intentAPI is the slice of the Stripe payment intent client in use.
type intentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type Stripe struct {
	intents  intentAPI
	currency string
}

func NewStripe(secretKey, currency string) *Stripe {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return newStripe(sc.PaymentIntents, currency)
}

func newStripe(intents intentAPI, currency string) *Stripe {
	return &Stripe{intents: intents, currency: normalizeCurrency(currency, "usd")}
}

func (s *Stripe) CreateIntent(ctx context.Context, amount decimal.Decimal, currency string, metadata map[string]string) (*Intent, error) {
	cents, err := MinorUnits(amount)
	if err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(cents),
		Currency: stripe.String(normalizeCurrency(currency, s.currency)),
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := s.intents.New(params)
	if err != nil {
		return nil, translate(err, "payment initialization failed")
	}

	log.Info().Str("payment_intent_id", pi.ID).Int64("amount", cents).Msg("payment: intent created")
	return toIntent(pi), nil
}

func (s *Stripe) GetIntent(ctx context.Context, id string) (*Intent, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperr.InvalidArgument("payment intent ID is required")
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := s.intents.Get(id, params)
	if err != nil {
		return nil, translate(err, "payment confirmation failed")
	}
	return toIntent(pi), nil
}

func toIntent(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}
}

// translate turns processor rejections into client errors; transport
// failures stay internal.
func translate(err error, action string) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode < 500 {
		log.Warn().Err(err).Str("code", string(stripeErr.Code)).Msg("payment: request rejected")
		return apperr.InvalidArgument("%s: %s", action, stripeErr.Msg)
	}
	log.Error().Err(err).Msg("payment: provider request failed")
	return fmt.Errorf("payment: %s: %w", action, err)
}

var (
	_ Provider = (*Stripe)(nil)
	_ Provider = Disabled{}
)
