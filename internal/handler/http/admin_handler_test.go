package http_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/storefront/internal/admin"
	"github.com/vasiliy-maslov/storefront/internal/apperr"
	handler "github.com/vasiliy-maslov/storefront/internal/handler/http"
	"github.com/vasiliy-maslov/storefront/internal/order"
	"github.com/vasiliy-maslov/storefront/internal/user"
)

func TestAdminHandler_DashboardStats(t *testing.T) {
	s := newTestServer(t)

	s.admin.On("DashboardStats", mock.Anything).Return(&admin.DashboardStats{
		TotalUsers:        12,
		TotalProducts:     40,
		TotalOrders:       7,
		TotalRevenue:      decimal.RequireFromString("1234.50"),
		AverageOrderValue: decimal.RequireFromString("176.36"),
		MonthlyRevenue:    []admin.MonthlyRevenue{{Year: 2026, Month: 10, Revenue: decimal.NewFromInt(300), Orders: 2}},
		TopProducts:       []admin.TopProduct{},
	}, nil).Once()

	rr := s.do(t, http.MethodGet, "/api/admin/dashboard/stats", nil, administrator())
	require.Equal(t, http.StatusOK, rr.Code)

	var resp admin.DashboardStats
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 12, resp.TotalUsers)
	assert.True(t, resp.TotalRevenue.Equal(decimal.RequireFromString("1234.5")))
	require.Len(t, resp.MonthlyRevenue, 1)
	assert.Equal(t, 10, resp.MonthlyRevenue[0].Month)
}

func TestAdminHandler_ListUsers(t *testing.T) {
	s := newTestServer(t)
	active := true

	s.users.On("ListUsers", mock.Anything, user.ListFilter{
		Search:   "jane",
		Role:     "admin",
		IsActive: &active,
		Page:     1,
		Limit:    10,
	}).Return(&user.ListPage{
		Users:       []user.User{{ID: uuid.Must(uuid.NewV4()), Name: "Jane", Role: "admin", IsActive: true}},
		TotalUsers:  1,
		CurrentPage: 1,
		TotalPages:  1,
	}, nil).Once()

	rr := s.do(t, http.MethodGet, "/api/admin/users?search=jane&role=Admin&is_active=true&page=1&limit=10", nil, administrator())
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp handler.UserListResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Len(t, resp.Users, 1)
	assert.Equal(t, "Jane", resp.Users[0].Name)
}

func TestAdminHandler_ListUsers_InvalidActiveFlag(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodGet, "/api/admin/users?is_active=maybe", nil, administrator())

	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid is_active parameter", decodeError(t, rr))
}

func TestAdminHandler_UserDetails(t *testing.T) {
	s := newTestServer(t)
	id := uuid.Must(uuid.NewV4())

	s.admin.On("UserDetails", mock.Anything, id).Return(&admin.UserDetails{
		User:       &user.User{ID: id, Name: "Jane", Role: "user"},
		OrderStats: []order.StatusStat{{Status: order.StatusDelivered, Count: 1, TotalAmount: decimal.NewFromInt(20)}},
	}, nil).Once()

	rr := s.do(t, http.MethodGet, "/api/admin/users/"+id.String(), nil, administrator())
	require.Equal(t, http.StatusOK, rr.Code)

	var resp handler.UserDetailsResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, id, resp.User.ID)
	require.Len(t, resp.OrderStats, 1)
	assert.Equal(t, order.StatusDelivered, resp.OrderStats[0].Status)
}

func TestAdminHandler_UpdateRole(t *testing.T) {
	s := newTestServer(t)
	id := uuid.Must(uuid.NewV4())

	s.users.On("UpdateRole", mock.Anything, id, "admin").
		Return(&user.User{ID: id, Role: "admin", IsActive: true}, nil).Once()

	rr := s.do(t, http.MethodPut, "/api/admin/users/"+id.String()+"/role", handler.UpdateRoleRequest{Role: "admin"}, administrator())
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp handler.UserResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "admin", resp.Role)
}

func TestAdminHandler_UpdateRole_InvalidRole(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodPut, "/api/admin/users/"+uuid.Must(uuid.NewV4()).String()+"/role",
		handler.UpdateRoleRequest{Role: "owner"}, administrator())

	require.Equal(t, http.StatusBadRequest, rr.Code)
	var resp handler.ValidationErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "Field 'role' must be one of: user admin", resp.Details["role"])
}

func TestAdminHandler_CannotChangeOwnAccount(t *testing.T) {
	s := newTestServer(t)
	principal := administrator()

	rr := s.do(t, http.MethodPut, "/api/admin/users/"+principal.UserID.String()+"/role",
		handler.UpdateRoleRequest{Role: "user"}, principal)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "You cannot change your own role", decodeError(t, rr))

	rr = s.do(t, http.MethodPut, "/api/admin/users/"+principal.UserID.String()+"/status", nil, principal)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "You cannot deactivate your own account", decodeError(t, rr))
}

func TestAdminHandler_ToggleStatus(t *testing.T) {
	s := newTestServer(t)
	id := uuid.Must(uuid.NewV4())

	s.users.On("ToggleStatus", mock.Anything, id).
		Return(nil, apperr.NotFound("user %s not found", id)).Once()

	rr := s.do(t, http.MethodPut, "/api/admin/users/"+id.String()+"/status", nil, administrator())

	require.Equal(t, http.StatusNotFound, rr.Code)
}
