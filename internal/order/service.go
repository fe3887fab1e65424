package order

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/storefront/internal/apperr"
	"github.com/vasiliy-maslov/storefront/internal/db"
	"github.com/vasiliy-maslov/storefront/internal/identity"
	"github.com/vasiliy-maslov/storefront/internal/notify"
	"github.com/vasiliy-maslov/storefront/internal/paging"
	"github.com/vasiliy-maslov/storefront/internal/product"
)

// allowedTransitions is the forward-only lifecycle enforced in strict mode.
var allowedTransitions = map[Status]map[Status]bool{
	StatusProcessing: {
		StatusConfirmed: true,
		StatusShipped:   true,
		StatusCancelled: true,
	},
	StatusConfirmed: {
		StatusShipped:   true,
		StatusCancelled: true,
	},
	StatusShipped: {
		StatusDelivered: true,
		StatusReturned:  true,
	},
	StatusDelivered: {
		StatusReturned: true,
		StatusRefunded: true,
	},
	StatusCancelled: {
		StatusRefunded: true,
	},
	StatusReturned: {
		StatusRefunded: true,
	},
	StatusRefunded: {},
}

// Catalog is the part of the product store the order workflow mutates.
type Catalog interface {
	GetForUpdate(ctx context.Context, ids []uuid.UUID) ([]product.Product, error)
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) error
}

// Charges supplies tax and shipping when the client leaves them out.
type Charges interface {
	Tax(subtotal decimal.Decimal) decimal.Decimal
	Shipping(subtotal decimal.Decimal) decimal.Decimal
}

type Options struct {
	// StrictTransitions rejects admin status changes outside allowedTransitions.
	StrictTransitions   bool
	NotificationTimeout time.Duration
}

type Service interface {
	CreateOrder(ctx context.Context, in CreateInput) (*Order, error)
	GetOrder(ctx context.Context, principal identity.Principal, id uuid.UUID) (*Order, error)
	ListMyOrders(ctx context.Context, userID uuid.UUID, filter ListFilter) (*ListPage, error)
	MyStats(ctx context.Context, userID uuid.UUID) (*Stats, error)
	CancelOrder(ctx context.Context, requester, id uuid.UUID, reason string) (*Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, upd StatusUpdate) (*Order, error)
	ListOrders(ctx context.Context, filter ListFilter) (*ListPage, error)
}

type service struct {
	orderRepo Repository
	catalog   Catalog
	tx        db.Transactor
	charges   Charges
	notifier  notify.Sender
	users     identity.Directory
	opts      Options
	now       func() time.Time
}

func NewService(
	orderRepo Repository,
	catalog Catalog,
	tx db.Transactor,
	charges Charges,
	notifier notify.Sender,
	users identity.Directory,
	opts Options,
) Service {
	if opts.NotificationTimeout <= 0 {
		opts.NotificationTimeout = 5 * time.Second
	}
	return &service{
		orderRepo: orderRepo,
		catalog:   catalog,
		tx:        tx,
		charges:   charges,
		notifier:  notifier,
		users:     users,
		opts:      opts,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func validateCreate(in *CreateInput) error {
	if in.UserID == uuid.Nil {
		return apperr.InvalidArgument("user id is required")
	}
	if len(in.Items) == 0 {
		return apperr.InvalidArgument("no order items provided")
	}
	for _, item := range in.Items {
		if item.ProductID == uuid.Nil {
			return apperr.InvalidArgument("product id in order item cannot be empty")
		}
		if err := checkQuantity(item); err != nil {
			return err
		}
	}

	addr := &in.ShippingAddress
	if addr.Country == "" {
		addr.Country = DefaultCountry
	}
	required := []struct {
		field string
		value string
	}{
		{"full name", addr.FullName},
		{"phone", addr.Phone},
		{"address", addr.Address},
		{"city", addr.City},
		{"state", addr.State},
		{"zip code", addr.ZipCode},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return apperr.InvalidArgument("shipping address %s is required", r.field)
		}
	}

	if !in.PaymentInfo.Method.Valid() {
		return apperr.InvalidArgument("invalid payment method %q", in.PaymentInfo.Method)
	}
	if in.PaymentInfo.Status == "" {
		in.PaymentInfo.Status = PaymentPending
	}
	if !in.PaymentInfo.Status.Valid() {
		return apperr.InvalidArgument("invalid payment status %q", in.PaymentInfo.Status)
	}

	if in.TaxPrice != nil {
		if err := checkAmount("tax price", *in.TaxPrice); err != nil {
			return err
		}
	}
	if in.ShippingPrice != nil {
		if err := checkAmount("shipping price", *in.ShippingPrice); err != nil {
			return err
		}
	}
	return checkAmount("discount amount", in.DiscountAmount)
}

func checkQuantity(item ItemInput) error {
	if item.Quantity < 1 {
		return apperr.InvalidArgument("quantity for product %s must be at least 1", item.ProductID)
	}
	if item.Quantity > MaxItemQuantity {
		return apperr.InvalidArgument("quantity for product %s cannot exceed %d", item.ProductID, MaxItemQuantity)
	}
	return nil
}

// checkAmount rejects negative amounts and amounts finer than a cent, which
// the money columns would round independently of the total.
func checkAmount(name string, d decimal.Decimal) error {
	if d.IsNegative() {
		return apperr.InvalidArgument("%s cannot be negative", name)
	}
	if !d.Equal(d.Round(2)) {
		return apperr.InvalidArgument("%s cannot have more than 2 decimal places", name)
	}
	return nil
}

// mergeItems sums repeated products, keeping first-seen order.
func mergeItems(items []ItemInput) []ItemInput {
	index := make(map[uuid.UUID]int, len(items))
	merged := make([]ItemInput, 0, len(items))
	for _, item := range items {
		if i, ok := index[item.ProductID]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	return merged
}

func sortedIDs(items []ItemInput) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// CreateOrder checks stock for every item, decrements it and stores the order
// in one transaction. Products are locked in id order so concurrent orders
// cannot oversell or deadlock.
func (s *service) CreateOrder(ctx context.Context, in CreateInput) (*Order, error) {
	if err := validateCreate(&in); err != nil {
		log.Warn().Err(err).Stringer("user_id", in.UserID).Msg("service: rejected order input")
		return nil, err
	}

	items := mergeItems(in.Items)
	for _, item := range items {
		if err := checkQuantity(item); err != nil {
			log.Warn().Err(err).Stringer("user_id", in.UserID).Msg("service: rejected order input")
			return nil, err
		}
	}
	ids := sortedIDs(items)

	order := &Order{
		UserID:          in.UserID,
		ShippingAddress: in.ShippingAddress,
		PaymentInfo:     in.PaymentInfo,
		DiscountAmount:  in.DiscountAmount,
		Status:          StatusProcessing,
		Notes:           strings.TrimSpace(in.Notes),
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		locked, err := s.catalog.GetForUpdate(ctx, ids)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]*product.Product, len(locked))
		for i := range locked {
			byID[locked[i].ID] = &locked[i]
		}

		order.Items = make([]LineItem, 0, len(items))
		for _, item := range items {
			p, ok := byID[item.ProductID]
			if !ok {
				return apperr.NotFound("product not found: %s", item.ProductID)
			}
			if p.Stock < item.Quantity {
				return apperr.InsufficientStock("insufficient stock for %s. Available: %d", p.Name, p.Stock)
			}
			order.Items = append(order.Items, LineItem{
				ProductID: p.ID,
				Name:      p.Name,
				Image:     p.FirstImage(),
				Price:     p.FinalPrice(),
				Quantity:  item.Quantity,
			})
		}

		order.RecalculateTotals()
		order.TaxPrice = s.chargeOr(in.TaxPrice, s.charges.Tax, order.ItemsPrice)
		order.ShippingPrice = s.chargeOr(in.ShippingPrice, s.charges.Shipping, order.ItemsPrice)
		order.RecalculateTotals()
		if order.TotalPrice.IsNegative() {
			return apperr.InvalidArgument("discount %s exceeds order total", order.DiscountAmount)
		}

		if order.PaymentInfo.Status == PaymentCompleted {
			paidAt := s.now()
			order.PaidAt = &paidAt
		}

		quantities := make(map[uuid.UUID]int, len(items))
		for _, item := range items {
			quantities[item.ProductID] = item.Quantity
		}
		for _, id := range ids {
			if err := s.catalog.AdjustStock(ctx, id, -quantities[id]); err != nil {
				return err
			}
		}

		return s.orderRepo.Create(ctx, order)
	})
	if err != nil {
		return nil, s.wrap(err, "failed to create order", uuid.Nil)
	}

	log.Info().Stringer("order_id", order.ID).Stringer("user_id", order.UserID).Str("total", order.TotalPrice.StringFixed(2)).Msg("service: order created successfully")

	s.sendConfirmation(ctx, order)
	return order, nil
}

func (s *service) chargeOr(given *decimal.Decimal, fallback func(decimal.Decimal) decimal.Decimal, subtotal decimal.Decimal) decimal.Decimal {
	if given != nil {
		return *given
	}
	if s.charges == nil {
		return decimal.Zero
	}
	return fallback(subtotal)
}

// sendConfirmation is best effort: failures are logged and never surface to
// the caller.
func (s *service) sendConfirmation(ctx context.Context, order *Order) {
	if s.notifier == nil || s.users == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.NotificationTimeout)
	defer cancel()

	contact, err := s.users.Lookup(ctx, order.UserID)
	if err != nil {
		log.Warn().Err(err).Stringer("order_id", order.ID).Msg("service: could not resolve order recipient")
		return
	}

	msg := notify.OrderConfirmation(contact.Email, contact.Name, order.OrderNumber(), order.TotalPrice.StringFixed(2))
	if err := s.notifier.Send(ctx, msg); err != nil {
		log.Warn().Err(err).Stringer("order_id", order.ID).Msg("service: error sending order confirmation")
	}
}

func (s *service) GetOrder(ctx context.Context, principal identity.Principal, id uuid.UUID) (*Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.wrap(err, "failed to fetch order by id", id)
	}

	if order.UserID != principal.UserID && !principal.IsAdmin() {
		log.Warn().Stringer("order_id", id).Stringer("user_id", principal.UserID).Msg("service: order access denied")
		return nil, apperr.Forbidden("you are not authorized to view this order")
	}
	return order, nil
}

func (s *service) ListMyOrders(ctx context.Context, userID uuid.UUID, filter ListFilter) (*ListPage, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperr.InvalidArgument("invalid order status %q", filter.Status)
	}
	filter.Search = ""
	filter.Page, filter.Limit = paging.Normalize(filter.Page, filter.Limit, paging.DefaultLimit)

	orders, total, err := s.orderRepo.ListByUser(ctx, userID, filter)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to fetch user orders in repository")
		return nil, fmt.Errorf("service: failed to fetch user orders: %w", err)
	}

	return &ListPage{
		Orders:      orders,
		TotalOrders: total,
		CurrentPage: filter.Page,
		TotalPages:  paging.TotalPages(total, filter.Limit),
	}, nil
}

func (s *service) MyStats(ctx context.Context, userID uuid.UUID) (*Stats, error) {
	stats, err := s.orderRepo.StatsByUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to aggregate user orders")
		return nil, fmt.Errorf("service: failed to aggregate user orders: %w", err)
	}
	return stats, nil
}

// CancelOrder restores stock for every line item and marks the order
// cancelled. Only the owner may cancel, and only before shipping.
func (s *service) CancelOrder(ctx context.Context, requester, id uuid.UUID, reason string) (*Order, error) {
	var cancelled *Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		order, err := s.orderRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.UserID != requester {
			return apperr.Forbidden("you are not authorized to cancel this order")
		}
		if !order.CanBeCancelled() {
			return apperr.InvalidState("order cannot be cancelled at this stage (status %s)", order.Status)
		}

		restock := make([]ItemInput, 0, len(order.Items))
		for _, li := range order.Items {
			restock = append(restock, ItemInput{ProductID: li.ProductID, Quantity: li.Quantity})
		}
		restock = mergeItems(restock)
		quantities := make(map[uuid.UUID]int, len(restock))
		for _, item := range restock {
			quantities[item.ProductID] = item.Quantity
		}

		for _, productID := range sortedIDs(restock) {
			err := s.catalog.AdjustStock(ctx, productID, quantities[productID])
			if errors.Is(err, apperr.ErrNotFound) {
				log.Warn().Stringer("order_id", id).Stringer("product_id", productID).Msg("service: product no longer exists, skipping restock")
				continue
			}
			if err != nil {
				return err
			}
		}

		cancelledAt := s.now()
		order.Status = StatusCancelled
		order.CancelledAt = &cancelledAt
		order.CancellationReason = strings.TrimSpace(reason)

		if err := s.orderRepo.Update(ctx, order); err != nil {
			return err
		}
		cancelled = order
		return nil
	})
	if err != nil {
		return nil, s.wrap(err, "failed to cancel order", id)
	}

	log.Info().Stringer("order_id", id).Stringer("user_id", requester).Msg("service: order cancelled")
	return cancelled, nil
}

// UpdateStatus sets the admin-chosen status. Any status may follow any other
// unless strict transitions are enabled. Moving to cancelled here does not
// restock; customers cancel through CancelOrder.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, upd StatusUpdate) (*Order, error) {
	var updated *Order
	var oldStatus Status
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		order, err := s.orderRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		oldStatus = order.Status

		if !upd.Status.Valid() {
			log.Warn().Stringer("order_id", id).Str("new_status", string(upd.Status)).Msg("service: invalid order status")
			return apperr.InvalidArgument("invalid order status %q", upd.Status)
		}
		if s.opts.StrictTransitions && order.Status != upd.Status && !allowedTransitions[order.Status][upd.Status] {
			log.Warn().
				Stringer("order_id", order.ID).
				Stringer("current_status", order.Status).
				Stringer("new_status", upd.Status).
				Msg("service: invalid status transition attempt")
			return apperr.InvalidState("invalid status transition from %s to %s", order.Status, upd.Status)
		}

		order.Status = upd.Status
		if upd.TrackingNumber != "" {
			order.TrackingNumber = upd.TrackingNumber
		}
		if upd.EstimatedDelivery != nil {
			eta := *upd.EstimatedDelivery
			order.EstimatedDelivery = &eta
		}

		now := s.now()
		switch upd.Status {
		case StatusShipped:
			order.ShippedAt = &now
		case StatusDelivered:
			order.DeliveredAt = &now
		case StatusCancelled:
			order.CancelledAt = &now
		case StatusRefunded:
			order.RefundedAt = &now
		case StatusReturned:
			order.ReturnedAt = &now
		}

		if err := s.orderRepo.Update(ctx, order); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, s.wrap(err, "failed to update order status", id)
	}

	log.Info().Stringer("order_id", id).Stringer("old_status", oldStatus).Stringer("new_status", upd.Status).Msg("service: order status updated successfully")
	return updated, nil
}

func (s *service) ListOrders(ctx context.Context, filter ListFilter) (*ListPage, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperr.InvalidArgument("invalid order status %q", filter.Status)
	}
	filter.Page, filter.Limit = paging.Normalize(filter.Page, filter.Limit, paging.DefaultLimit)

	orders, total, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list orders")
		return nil, fmt.Errorf("service: failed to list orders: %w", err)
	}

	return &ListPage{
		Orders:      orders,
		TotalOrders: total,
		CurrentPage: filter.Page,
		TotalPages:  paging.TotalPages(total, filter.Limit),
	}, nil
}

func (s *service) wrap(err error, action string, id uuid.UUID) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		log.Warn().Err(err).Stringer("order_id", id).Msgf("service: %s", action)
		return err
	}
	log.Error().Err(err).Stringer("order_id", id).Msgf("service: %s", action)
	return fmt.Errorf("service: %s: %w", action, err)
}
