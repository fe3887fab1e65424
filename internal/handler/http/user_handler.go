package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/identity"
	"github.com/vasiliy-maslov/storefront/internal/user"
)

type RegisterUserRequest struct {
	Name     string `json:"name" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type AddressRequest struct {
	Street  string `json:"street" validate:"max=200"`
	City    string `json:"city" validate:"max=100"`
	State   string `json:"state" validate:"max=100"`
	ZipCode string `json:"zip_code" validate:"max=20"`
	Country string `json:"country" validate:"max=100"`
}

type UpdateProfileRequest struct {
	Name    *string         `json:"name" validate:"omitempty,max=50"`
	Email   *string         `json:"email" validate:"omitempty,email"`
	Phone   *string         `json:"phone" validate:"omitempty,max=32"`
	Address *AddressRequest `json:"address"`
}

type UserResponse struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Role      string        `json:"role"`
	IsActive  bool          `json:"is_active"`
	Phone     string        `json:"phone,omitempty"`
	Address   *user.Address `json:"address,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// ProfileResponse is the caller's own account together with the wishlist.
type ProfileResponse struct {
	UserResponse
	Wishlist []user.WishlistItem `json:"wishlist"`
}

type WishlistResponse struct {
	Message  string              `json:"message"`
	Wishlist []user.WishlistItem `json:"wishlist"`
}

func toUserResponse(u *user.User) UserResponse {
	resp := UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.Address != (user.Address{}) {
		addr := u.Address
		resp.Address = &addr
	}
	return resp
}

type UserHandler struct {
	service  user.Service
	validate *validator.Validate
}

func NewUserHandler(service user.Service) *UserHandler {
	return &UserHandler{
		service:  service,
		validate: newValidator(),
	}
}

func (h *UserHandler) RegisterRoutes(router chi.Router) {
	router.Post("/users", h.handleRegister)

	router.Group(func(r chi.Router) {
		r.Use(identity.RequireAuthenticated)
		r.Get("/users/me", h.handleGetMe)
		r.Put("/users/me", h.handleUpdateMe)
		r.Post("/users/me/wishlist/{productId}", h.handleAddToWishlist)
		r.Delete("/users/me/wishlist/{productId}", h.handleRemoveFromWishlist)
	})
}

func (h *UserHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var requestPayload RegisterUserRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	created, err := h.service.Register(r.Context(), user.RegisterInput{
		Name:     requestPayload.Name,
		Email:    requestPayload.Email,
		Password: requestPayload.Password,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to register user")
		return
	}

	log.Info().Stringer("user_id", created.ID).Msg("User registered")
	respondWithJSON(w, http.StatusCreated, toUserResponse(created))
}

func (h *UserHandler) handleGetMe(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.FromContext(r.Context())

	u, err := h.service.GetUserByID(r.Context(), principal.UserID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get user")
		return
	}
	wishlist, err := h.service.Wishlist(r.Context(), principal.UserID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get user")
		return
	}
	respondWithJSON(w, http.StatusOK, ProfileResponse{UserResponse: toUserResponse(u), Wishlist: wishlist})
}

func (h *UserHandler) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.FromContext(r.Context())

	var requestPayload UpdateProfileRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	upd := user.ProfileUpdate{
		Name:  requestPayload.Name,
		Email: requestPayload.Email,
		Phone: requestPayload.Phone,
	}
	if a := requestPayload.Address; a != nil {
		upd.Address = &user.Address{
			Street:  strings.TrimSpace(a.Street),
			City:    strings.TrimSpace(a.City),
			State:   strings.TrimSpace(a.State),
			ZipCode: strings.TrimSpace(a.ZipCode),
			Country: strings.TrimSpace(a.Country),
		}
	}

	u, err := h.service.UpdateProfile(r.Context(), principal.UserID, upd)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update profile")
		return
	}
	respondWithJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *UserHandler) handleAddToWishlist(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.FromContext(r.Context())
	productID, ok := parseUUIDParam(w, r, "productId")
	if !ok {
		return
	}

	wishlist, err := h.service.AddToWishlist(r.Context(), principal.UserID, productID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update wishlist")
		return
	}
	respondWithJSON(w, http.StatusOK, WishlistResponse{Message: "Product added to wishlist", Wishlist: wishlist})
}

func (h *UserHandler) handleRemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.FromContext(r.Context())
	productID, ok := parseUUIDParam(w, r, "productId")
	if !ok {
		return
	}

	wishlist, err := h.service.RemoveFromWishlist(r.Context(), principal.UserID, productID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update wishlist")
		return
	}
	respondWithJSON(w, http.StatusOK, WishlistResponse{Message: "Product removed from wishlist", Wishlist: wishlist})
}
