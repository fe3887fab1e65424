package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/storefront/internal/identity"
	"github.com/vasiliy-maslov/storefront/internal/order"
)

type OrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=1000"`
}

type ShippingAddressRequest struct {
	FullName string `json:"full_name" validate:"required,max=100"`
	Phone    string `json:"phone" validate:"required,max=30"`
	Address  string `json:"address" validate:"required,max=200"`
	City     string `json:"city" validate:"required,max=100"`
	State    string `json:"state" validate:"required,max=100"`
	ZipCode  string `json:"zip_code" validate:"required,max=20"`
	Country  string `json:"country" validate:"omitempty,max=100"`
}

type PaymentInfoRequest struct {
	Method        string `json:"method" validate:"required,oneof=card paypal stripe cash_on_delivery"`
	Status        string `json:"status" validate:"omitempty,oneof=pending completed failed refunded"`
	TransactionID string `json:"transaction_id" validate:"omitempty,max=255"`
	PaymentIntent string `json:"payment_intent" validate:"omitempty,max=255"`
}

type CreateOrderRequest struct {
	Items           []OrderItemRequest     `json:"items" validate:"required,min=1,dive"`
	ShippingAddress ShippingAddressRequest `json:"shipping_address"`
	PaymentInfo     PaymentInfoRequest     `json:"payment_info"`
	TaxPrice        *decimal.Decimal       `json:"tax_price" validate:"omitempty,money"`
	ShippingPrice   *decimal.Decimal       `json:"shipping_price" validate:"omitempty,money"`
	DiscountAmount  decimal.Decimal        `json:"discount_amount" validate:"money"`
	Notes           string                 `json:"notes" validate:"max=500"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type UpdateOrderStatusRequest struct {
	Status            string     `json:"status" validate:"required"`
	TrackingNumber    string     `json:"tracking_number" validate:"max=100"`
	EstimatedDelivery *time.Time `json:"estimated_delivery"`
}

// OrderResponse adds the derived display fields to an order.
type OrderResponse struct {
	order.Order
	OrderNumber string `json:"order_number"`
	TotalItems  int    `json:"total_items"`
}

type OrderListResponse struct {
	Orders      []OrderResponse `json:"orders"`
	TotalOrders int             `json:"total_orders"`
	CurrentPage int             `json:"current_page"`
	TotalPages  int             `json:"total_pages"`
}

func toOrderResponse(o *order.Order) OrderResponse {
	return OrderResponse{Order: *o, OrderNumber: o.OrderNumber(), TotalItems: o.TotalItems()}
}

func toOrderListResponse(page *order.ListPage) OrderListResponse {
	resp := OrderListResponse{
		Orders:      make([]OrderResponse, 0, len(page.Orders)),
		TotalOrders: page.TotalOrders,
		CurrentPage: page.CurrentPage,
		TotalPages:  page.TotalPages,
	}
	for i := range page.Orders {
		resp.Orders = append(resp.Orders, toOrderResponse(&page.Orders[i]))
	}
	return resp
}

type OrderHandler struct {
	service  order.Service
	validate *validator.Validate
}

func NewOrderHandler(service order.Service) *OrderHandler {
	return &OrderHandler{service: service, validate: newValidator()}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Group(func(r chi.Router) {
		r.Use(identity.RequireAuthenticated)
		r.Post("/orders", h.handleCreateOrder)
		r.Get("/orders/me", h.handleListMyOrders)
		r.Get("/orders/me/stats", h.handleMyStats)
		r.Get("/orders/{id}", h.handleGetOrder)
		r.Put("/orders/{id}/cancel", h.handleCancelOrder)
	})
}

func (h *OrderHandler) RegisterAdminRoutes(router chi.Router) {
	router.Get("/orders", h.handleListOrders)
	router.Put("/orders/{id}/status", h.handleUpdateStatus)
}

func (h *OrderHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.FromContext(r.Context())

	var requestPayload CreateOrderRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	in := order.CreateInput{
		UserID: principal.UserID,
		Items:  make([]order.ItemInput, 0, len(requestPayload.Items)),
		ShippingAddress: order.ShippingAddress{
			FullName: requestPayload.ShippingAddress.FullName,
			Phone:    requestPayload.ShippingAddress.Phone,
			Address:  requestPayload.ShippingAddress.Address,
			City:     requestPayload.ShippingAddress.City,
			State:    requestPayload.ShippingAddress.State,
			ZipCode:  requestPayload.ShippingAddress.ZipCode,
			Country:  requestPayload.ShippingAddress.Country,
		},
		PaymentInfo: order.PaymentInfo{
			Method:        order.PaymentMethod(requestPayload.PaymentInfo.Method),
			Status:        order.PaymentStatus(requestPayload.PaymentInfo.Status),
			TransactionID: requestPayload.PaymentInfo.TransactionID,
			PaymentIntent: requestPayload.PaymentInfo.PaymentIntent,
		},
		TaxPrice:       requestPayload.TaxPrice,
		ShippingPrice:  requestPayload.ShippingPrice,
		DiscountAmount: requestPayload.DiscountAmount,
		Notes:          requestPayload.Notes,
	}
	for _, item := range requestPayload.Items {
		in.Items = append(in.Items, order.ItemInput{
			ProductID: uuid.FromStringOrNil(item.ProductID),
			Quantity:  item.Quantity,
		})
	}

	created, err := h.service.CreateOrder(r.Context(), in)
	if err != nil {
		respondWithServiceError(w, err, "Failed to create order")
		return
	}

	respondWithJSON(w, http.StatusCreated, toOrderResponse(created))
}

func (h *OrderHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}
	principal, _ := identity.FromContext(r.Context())

	found, err := h.service.GetOrder(r.Context(), principal, orderID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get order")
		return
	}

	respondWithJSON(w, http.StatusOK, toOrderResponse(found))
}

func orderFilterFromQuery(r *http.Request) order.ListFilter {
	q := r.URL.Query()
	return order.ListFilter{
		Status: order.Status(strings.ToLower(q.Get("status"))),
		Search: q.Get("search"),
		Page:   queryInt(r, "page"),
		Limit:  queryInt(r, "limit"),
	}
}

func (h *OrderHandler) handleListMyOrders(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.FromContext(r.Context())

	page, err := h.service.ListMyOrders(r.Context(), principal.UserID, orderFilterFromQuery(r))
	if err != nil {
		respondWithServiceError(w, err, "Failed to list orders")
		return
	}

	respondWithJSON(w, http.StatusOK, toOrderListResponse(page))
}

func (h *OrderHandler) handleMyStats(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.FromContext(r.Context())

	stats, err := h.service.MyStats(r.Context(), principal.UserID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get order statistics")
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

func (h *OrderHandler) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}
	principal, _ := identity.FromContext(r.Context())

	var requestPayload CancelOrderRequest
	if r.ContentLength != 0 {
		if !decodeAndValidate(w, r, h.validate, &requestPayload) {
			return
		}
	}

	cancelled, err := h.service.CancelOrder(r.Context(), principal.UserID, orderID, requestPayload.Reason)
	if err != nil {
		respondWithServiceError(w, err, "Failed to cancel order")
		return
	}

	log.Info().Stringer("order_id", orderID).Msg("Order cancelled by customer")
	respondWithJSON(w, http.StatusOK, toOrderResponse(cancelled))
}

func (h *OrderHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.ListOrders(r.Context(), orderFilterFromQuery(r))
	if err != nil {
		respondWithServiceError(w, err, "Failed to list orders")
		return
	}

	respondWithJSON(w, http.StatusOK, toOrderListResponse(page))
}

func (h *OrderHandler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	var requestPayload UpdateOrderStatusRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	updated, err := h.service.UpdateStatus(r.Context(), orderID, order.StatusUpdate{
		Status:            order.Status(strings.ToLower(strings.TrimSpace(requestPayload.Status))),
		TrackingNumber:    strings.TrimSpace(requestPayload.TrackingNumber),
		EstimatedDelivery: requestPayload.EstimatedDelivery,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to update order status")
		return
	}

	respondWithJSON(w, http.StatusOK, toOrderResponse(updated))
}
