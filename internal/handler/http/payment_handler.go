package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/storefront/internal/identity"
	"github.com/vasiliy-maslov/storefront/internal/payment"
)

const intentSucceeded = "succeeded"

type CreateIntentRequest struct {
	Amount   decimal.Decimal   `json:"amount"`
	Currency string            `json:"currency" validate:"omitempty,len=3,alpha"`
	Metadata map[string]string `json:"metadata"`
}

type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id" validate:"required"`
}

type ConfirmPaymentResponse struct {
	Paid   bool            `json:"paid"`
	Intent *payment.Intent `json:"payment_intent"`
}

type PaymentHandler struct {
	provider payment.Provider
	validate *validator.Validate
}

func NewPaymentHandler(provider payment.Provider) *PaymentHandler {
	return &PaymentHandler{provider: provider, validate: newValidator()}
}

func (h *PaymentHandler) RegisterRoutes(router chi.Router) {
	router.Group(func(r chi.Router) {
		r.Use(identity.RequireAuthenticated)
		r.Post("/orders/payment/create-intent", h.handleCreateIntent)
		r.Post("/orders/payment/confirm", h.handleConfirm)
	})
}

func (h *PaymentHandler) handleCreateIntent(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.FromContext(r.Context())

	var requestPayload CreateIntentRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	metadata := make(map[string]string, len(requestPayload.Metadata)+1)
	for k, v := range requestPayload.Metadata {
		metadata[k] = v
	}
	metadata["user_id"] = principal.UserID.String()

	intent, err := h.provider.CreateIntent(r.Context(), requestPayload.Amount, requestPayload.Currency, metadata)
	if err != nil {
		respondWithServiceError(w, err, "Failed to create payment intent")
		return
	}

	log.Info().Str("payment_intent_id", intent.ID).Stringer("user_id", principal.UserID).Int64("amount", intent.Amount).Msg("Payment intent created")
	respondWithJSON(w, http.StatusOK, intent)
}

func (h *PaymentHandler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var requestPayload ConfirmPaymentRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	intent, err := h.provider.GetIntent(r.Context(), requestPayload.PaymentIntentID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to confirm payment")
		return
	}

	// The client secret is only needed to create the intent.
	intent.ClientSecret = ""
	respondWithJSON(w, http.StatusOK, ConfirmPaymentResponse{
		Paid:   intent.Status == intentSucceeded,
		Intent: intent,
	})
}
