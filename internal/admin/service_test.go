package admin_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/storefront/internal/admin"
	"github.com/vasiliy-maslov/storefront/internal/apperr"
	"github.com/vasiliy-maslov/storefront/internal/order"
	"github.com/vasiliy-maslov/storefront/internal/user"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CountUsers(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) CountProducts(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) CountOrders(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) Revenue(ctx context.Context) (*admin.Revenue, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*admin.Revenue), args.Error(1)
}

func (m *MockRepository) MonthlyRevenue(ctx context.Context, since time.Time) ([]admin.MonthlyRevenue, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]admin.MonthlyRevenue), args.Error(1)
}

func (m *MockRepository) TopProducts(ctx context.Context, limit int) ([]admin.TopProduct, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]admin.TopProduct), args.Error(1)
}

type stubUsers struct {
	user *user.User
	err  error
}

func (s stubUsers) GetUserByID(context.Context, uuid.UUID) (*user.User, error) {
	return s.user, s.err
}

type stubOrders struct {
	stats *order.Stats
	err   error
}

func (s stubOrders) MyStats(context.Context, uuid.UUID) (*order.Stats, error) {
	return s.stats, s.err
}

func expectDashboard(repo *MockRepository) {
	repo.On("CountUsers", mock.Anything).Return(12, nil)
	repo.On("CountProducts", mock.Anything).Return(40, nil)
	repo.On("CountOrders", mock.Anything).Return(7, nil)
	repo.On("Revenue", mock.Anything).Return(&admin.Revenue{
		Total:   decimal.RequireFromString("700.00"),
		Average: decimal.RequireFromString("140.00"),
	}, nil)
	repo.On("MonthlyRevenue", mock.Anything, mock.AnythingOfType("time.Time")).
		Return([]admin.MonthlyRevenue{{Year: 2026, Month: 9, Revenue: decimal.RequireFromString("700.00"), Orders: 5}}, nil)
}

func TestService_DashboardStats(t *testing.T) {
	repo := new(MockRepository)
	expectDashboard(repo)
	top := []admin.TopProduct{{Name: "Phone", TotalSold: 9, Revenue: decimal.RequireFromString("900")}}
	repo.On("TopProducts", mock.Anything, 10).Return(top, nil)

	svc := admin.NewService(repo, stubUsers{}, stubOrders{})
	stats, err := svc.DashboardStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 12, stats.TotalUsers)
	assert.Equal(t, 40, stats.TotalProducts)
	assert.Equal(t, 7, stats.TotalOrders)
	assert.True(t, stats.TotalRevenue.Equal(decimal.RequireFromString("700")))
	assert.True(t, stats.AverageOrderValue.Equal(decimal.RequireFromString("140")))
	require.Len(t, stats.MonthlyRevenue, 1)
	if diff := cmp.Diff(top, stats.TopProducts); diff != "" {
		t.Errorf("TopProducts mismatch (-want +got):\n%s", diff)
	}
	repo.AssertExpectations(t)
}

func TestService_DashboardStats_AnyQueryFails(t *testing.T) {
	repo := new(MockRepository)
	expectDashboard(repo)
	repo.On("TopProducts", mock.Anything, 10).Return(nil, errors.New("relation does not exist"))

	svc := admin.NewService(repo, stubUsers{}, stubOrders{})
	_, err := svc.DashboardStats(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relation does not exist")
}

func TestService_UserDetails(t *testing.T) {
	id := uuid.Must(uuid.NewV4())
	u := &user.User{ID: id, Name: "Jane"}
	byStatus := []order.StatusStat{{Status: order.StatusDelivered, Count: 2, TotalAmount: decimal.RequireFromString("80")}}

	svc := admin.NewService(new(MockRepository), stubUsers{user: u}, stubOrders{stats: &order.Stats{OrdersByStatus: byStatus}})
	details, err := svc.UserDetails(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, u, details.User)
	assert.Equal(t, byStatus, details.OrderStats)
}

func TestService_UserDetails_Errors(t *testing.T) {
	svc := admin.NewService(new(MockRepository), stubUsers{err: apperr.NotFound("user not found")}, stubOrders{})
	_, err := svc.UserDetails(context.Background(), uuid.Must(uuid.NewV4()))
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	svc = admin.NewService(new(MockRepository), stubUsers{user: &user.User{}}, stubOrders{err: errors.New("timeout")})
	_, err = svc.UserDetails(context.Background(), uuid.Must(uuid.NewV4()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service: failed to load order statistics")
}
