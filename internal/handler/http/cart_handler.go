package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/storefront/internal/pricing"
)

// Quoter prices a cart without reserving stock.
type Quoter interface {
	Quote(ctx context.Context, items []pricing.Item, couponPercent decimal.Decimal) (*pricing.Quote, error)
}

type QuoteRequest struct {
	Items         []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	CouponPercent decimal.Decimal    `json:"coupon_percent"`
}

type CartHandler struct {
	quoter   Quoter
	validate *validator.Validate
}

func NewCartHandler(quoter Quoter) *CartHandler {
	return &CartHandler{quoter: quoter, validate: newValidator()}
}

func (h *CartHandler) RegisterRoutes(router chi.Router) {
	router.Post("/cart/quote", h.handleQuote)
}

func (h *CartHandler) handleQuote(w http.ResponseWriter, r *http.Request) {
	var requestPayload QuoteRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	items := make([]pricing.Item, 0, len(requestPayload.Items))
	for _, item := range requestPayload.Items {
		items = append(items, pricing.Item{
			ProductID: uuid.FromStringOrNil(item.ProductID),
			Quantity:  item.Quantity,
		})
	}

	quote, err := h.quoter.Quote(r.Context(), items, requestPayload.CouponPercent)
	if err != nil {
		respondWithServiceError(w, err, "Failed to price cart")
		return
	}
	respondWithJSON(w, http.StatusOK, quote)
}
