package http_test

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/vasiliy-maslov/storefront/internal/admin"
	"github.com/vasiliy-maslov/storefront/internal/category"
	"github.com/vasiliy-maslov/storefront/internal/identity"
	"github.com/vasiliy-maslov/storefront/internal/order"
	"github.com/vasiliy-maslov/storefront/internal/payment"
	"github.com/vasiliy-maslov/storefront/internal/pricing"
	"github.com/vasiliy-maslov/storefront/internal/product"
	"github.com/vasiliy-maslov/storefront/internal/user"
)

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, in order.CreateInput) (*order.Order, error) {
	args := m.Called(ctx, in)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, requester identity.Principal, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, requester, id)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderService) ListMyOrders(ctx context.Context, userID uuid.UUID, filter order.ListFilter) (*order.ListPage, error) {
	args := m.Called(ctx, userID, filter)
	p, _ := args.Get(0).(*order.ListPage)
	return p, args.Error(1)
}

func (m *MockOrderService) MyStats(ctx context.Context, userID uuid.UUID) (*order.Stats, error) {
	args := m.Called(ctx, userID)
	s, _ := args.Get(0).(*order.Stats)
	return s, args.Error(1)
}

func (m *MockOrderService) CancelOrder(ctx context.Context, requester, id uuid.UUID, reason string) (*order.Order, error) {
	args := m.Called(ctx, requester, id, reason)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, id uuid.UUID, update order.StatusUpdate) (*order.Order, error) {
	args := m.Called(ctx, id, update)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, filter order.ListFilter) (*order.ListPage, error) {
	args := m.Called(ctx, filter)
	p, _ := args.Get(0).(*order.ListPage)
	return p, args.Error(1)
}

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) ListProducts(ctx context.Context, filter product.ListFilter) (*product.Page, error) {
	args := m.Called(ctx, filter)
	p, _ := args.Get(0).(*product.Page)
	return p, args.Error(1)
}

func (m *MockProductService) ListByCategory(ctx context.Context, category string, filter product.ListFilter) (*product.Page, error) {
	args := m.Called(ctx, category, filter)
	p, _ := args.Get(0).(*product.Page)
	return p, args.Error(1)
}

func (m *MockProductService) GetProduct(ctx context.Context, id uuid.UUID) (*product.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*product.Product)
	return p, args.Error(1)
}

func (m *MockProductService) ListHighlighted(ctx context.Context, h product.Highlight) ([]product.Product, error) {
	args := m.Called(ctx, h)
	p, _ := args.Get(0).([]product.Product)
	return p, args.Error(1)
}

func (m *MockProductService) ListRelated(ctx context.Context, id uuid.UUID) ([]product.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).([]product.Product)
	return p, args.Error(1)
}

func (m *MockProductService) Brands(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	b, _ := args.Get(0).([]string)
	return b, args.Error(1)
}

func (m *MockProductService) PriceRange(ctx context.Context) (product.PriceRange, error) {
	args := m.Called(ctx)
	return args.Get(0).(product.PriceRange), args.Error(1)
}

func (m *MockProductService) ListReviews(ctx context.Context, productID uuid.UUID, page, limit int) (*product.ReviewPage, error) {
	args := m.Called(ctx, productID, page, limit)
	p, _ := args.Get(0).(*product.ReviewPage)
	return p, args.Error(1)
}

func (m *MockProductService) SubmitReview(ctx context.Context, productID, userID uuid.UUID, in product.ReviewInput) (*product.Review, bool, error) {
	args := m.Called(ctx, productID, userID, in)
	r, _ := args.Get(0).(*product.Review)
	return r, args.Bool(1), args.Error(2)
}

func (m *MockProductService) CreateProduct(ctx context.Context, actor uuid.UUID, in product.CreateInput) (*product.Product, error) {
	args := m.Called(ctx, actor, in)
	p, _ := args.Get(0).(*product.Product)
	return p, args.Error(1)
}

func (m *MockProductService) UpdateProduct(ctx context.Context, actor, id uuid.UUID, in product.UpdateInput) (*product.Product, error) {
	args := m.Called(ctx, actor, id, in)
	p, _ := args.Get(0).(*product.Product)
	return p, args.Error(1)
}

func (m *MockProductService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockCategoryService struct {
	mock.Mock
}

func (m *MockCategoryService) List(ctx context.Context) ([]category.Category, error) {
	args := m.Called(ctx)
	c, _ := args.Get(0).([]category.Category)
	return c, args.Error(1)
}

func (m *MockCategoryService) Featured(ctx context.Context) ([]category.Category, error) {
	args := m.Called(ctx)
	c, _ := args.Get(0).([]category.Category)
	return c, args.Error(1)
}

func (m *MockCategoryService) GetBySlug(ctx context.Context, slug string) (*category.Category, error) {
	args := m.Called(ctx, slug)
	c, _ := args.Get(0).(*category.Category)
	return c, args.Error(1)
}

func (m *MockCategoryService) Create(ctx context.Context, in category.Input) (*category.Category, error) {
	args := m.Called(ctx, in)
	c, _ := args.Get(0).(*category.Category)
	return c, args.Error(1)
}

func (m *MockCategoryService) Update(ctx context.Context, id uuid.UUID, in category.Input) (*category.Category, error) {
	args := m.Called(ctx, id, in)
	c, _ := args.Get(0).(*category.Category)
	return c, args.Error(1)
}

func (m *MockCategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, in user.RegisterInput) (*user.User, error) {
	args := m.Called(ctx, in)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

func (m *MockUserService) GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

func (m *MockUserService) ListUsers(ctx context.Context, filter user.ListFilter) (*user.ListPage, error) {
	args := m.Called(ctx, filter)
	p, _ := args.Get(0).(*user.ListPage)
	return p, args.Error(1)
}

func (m *MockUserService) UpdateRole(ctx context.Context, id uuid.UUID, role string) (*user.User, error) {
	args := m.Called(ctx, id, role)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

func (m *MockUserService) ToggleStatus(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, id uuid.UUID, upd user.ProfileUpdate) (*user.User, error) {
	args := m.Called(ctx, id, upd)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

func (m *MockUserService) Wishlist(ctx context.Context, userID uuid.UUID) ([]user.WishlistItem, error) {
	args := m.Called(ctx, userID)
	items, _ := args.Get(0).([]user.WishlistItem)
	return items, args.Error(1)
}

func (m *MockUserService) AddToWishlist(ctx context.Context, userID, productID uuid.UUID) ([]user.WishlistItem, error) {
	args := m.Called(ctx, userID, productID)
	items, _ := args.Get(0).([]user.WishlistItem)
	return items, args.Error(1)
}

func (m *MockUserService) RemoveFromWishlist(ctx context.Context, userID, productID uuid.UUID) ([]user.WishlistItem, error) {
	args := m.Called(ctx, userID, productID)
	items, _ := args.Get(0).([]user.WishlistItem)
	return items, args.Error(1)
}

func (m *MockUserService) Lookup(ctx context.Context, id uuid.UUID) (identity.Contact, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(identity.Contact), args.Error(1)
}

type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) DashboardStats(ctx context.Context) (*admin.DashboardStats, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(*admin.DashboardStats)
	return s, args.Error(1)
}

func (m *MockAdminService) UserDetails(ctx context.Context, id uuid.UUID) (*admin.UserDetails, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*admin.UserDetails)
	return d, args.Error(1)
}

type MockPaymentProvider struct {
	mock.Mock
}

func (m *MockPaymentProvider) CreateIntent(ctx context.Context, amount decimal.Decimal, currency string, metadata map[string]string) (*payment.Intent, error) {
	args := m.Called(ctx, amount, currency, metadata)
	i, _ := args.Get(0).(*payment.Intent)
	return i, args.Error(1)
}

func (m *MockPaymentProvider) GetIntent(ctx context.Context, id string) (*payment.Intent, error) {
	args := m.Called(ctx, id)
	i, _ := args.Get(0).(*payment.Intent)
	return i, args.Error(1)
}

type MockQuoter struct {
	mock.Mock
}

func (m *MockQuoter) Quote(ctx context.Context, items []pricing.Item, couponPercent decimal.Decimal) (*pricing.Quote, error) {
	args := m.Called(ctx, items, couponPercent)
	q, _ := args.Get(0).(*pricing.Quote)
	return q, args.Error(1)
}
