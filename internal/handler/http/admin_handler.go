package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/admin"
	"github.com/vasiliy-maslov/storefront/internal/identity"
	"github.com/vasiliy-maslov/storefront/internal/order"
	"github.com/vasiliy-maslov/storefront/internal/user"
)

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

type UserListResponse struct {
	Users       []UserResponse `json:"users"`
	TotalUsers  int            `json:"total_users"`
	CurrentPage int            `json:"current_page"`
	TotalPages  int            `json:"total_pages"`
}

type UserDetailsResponse struct {
	User       UserResponse       `json:"user"`
	OrderStats []order.StatusStat `json:"order_stats"`
}

type AdminHandler struct {
	dashboard admin.Service
	users     user.Service
	validate  *validator.Validate
}

func NewAdminHandler(dashboard admin.Service, users user.Service) *AdminHandler {
	return &AdminHandler{dashboard: dashboard, users: users, validate: newValidator()}
}

func (h *AdminHandler) RegisterAdminRoutes(router chi.Router) {
	router.Get("/dashboard/stats", h.handleDashboardStats)
	router.Get("/users", h.handleListUsers)
	router.Get("/users/{id}", h.handleUserDetails)
	router.Put("/users/{id}/role", h.handleUpdateRole)
	router.Put("/users/{id}/status", h.handleToggleStatus)
}

func (h *AdminHandler) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.DashboardStats(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to load dashboard statistics")
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := user.ListFilter{
		Search: q.Get("search"),
		Role:   strings.ToLower(q.Get("role")),
		Page:   queryInt(r, "page"),
		Limit:  queryInt(r, "limit"),
	}
	if raw := q.Get("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid is_active parameter")
			return
		}
		filter.IsActive = &active
	}

	page, err := h.users.ListUsers(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, err, "Failed to list users")
		return
	}

	resp := UserListResponse{
		Users:       make([]UserResponse, 0, len(page.Users)),
		TotalUsers:  page.TotalUsers,
		CurrentPage: page.CurrentPage,
		TotalPages:  page.TotalPages,
	}
	for i := range page.Users {
		resp.Users = append(resp.Users, toUserResponse(&page.Users[i]))
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *AdminHandler) handleUserDetails(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	details, err := h.dashboard.UserDetails(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get user details")
		return
	}
	respondWithJSON(w, http.StatusOK, UserDetailsResponse{
		User:       toUserResponse(details.User),
		OrderStats: details.OrderStats,
	})
}

func (h *AdminHandler) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}
	principal, _ := identity.FromContext(r.Context())
	if principal.UserID == userID {
		respondWithError(w, http.StatusBadRequest, "You cannot change your own role")
		return
	}

	var requestPayload UpdateRoleRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	updated, err := h.users.UpdateRole(r.Context(), userID, requestPayload.Role)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update user role")
		return
	}

	log.Info().Stringer("user_id", userID).Stringer("admin_id", principal.UserID).Str("role", updated.Role).Msg("User role changed")
	respondWithJSON(w, http.StatusOK, toUserResponse(updated))
}

func (h *AdminHandler) handleToggleStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}
	principal, _ := identity.FromContext(r.Context())
	if principal.UserID == userID {
		respondWithError(w, http.StatusBadRequest, "You cannot deactivate your own account")
		return
	}

	updated, err := h.users.ToggleStatus(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update user status")
		return
	}

	log.Info().Stringer("user_id", userID).Stringer("admin_id", principal.UserID).Bool("is_active", updated.IsActive).Msg("User status changed")
	respondWithJSON(w, http.StatusOK, toUserResponse(updated))
}
