package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/category"
)

type CategoryRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	ImageURL    *string `json:"image_url"`
	ParentID    *string `json:"parent_id" validate:"omitempty,uuid"`
	IsActive    *bool   `json:"is_active"`
	Featured    *bool   `json:"featured"`
	SortOrder   *int    `json:"sort_order"`
}

func (req CategoryRequest) input() category.Input {
	in := category.Input{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		IsActive:    req.IsActive,
		Featured:    req.Featured,
		SortOrder:   req.SortOrder,
	}
	if req.ParentID != nil {
		parent := uuid.FromStringOrNil(*req.ParentID)
		in.ParentID = &parent
	}
	return in
}

type CategoryHandler struct {
	service  category.Service
	validate *validator.Validate
}

func NewCategoryHandler(service category.Service) *CategoryHandler {
	return &CategoryHandler{service: service, validate: newValidator()}
}

func (h *CategoryHandler) RegisterRoutes(router chi.Router) {
	router.Get("/categories", h.handleList)
	router.Get("/categories/featured", h.handleFeatured)
	router.Get("/categories/{slug}", h.handleGetBySlug)
}

func (h *CategoryHandler) RegisterAdminRoutes(router chi.Router) {
	router.Post("/categories", h.handleCreate)
	router.Put("/categories/{id}", h.handleUpdate)
	router.Delete("/categories/{id}", h.handleDelete)
}

func (h *CategoryHandler) handleList(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.List(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to list categories")
		return
	}
	respondWithJSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) handleFeatured(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Featured(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to list categories")
		return
	}
	respondWithJSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) handleGetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := strings.ToLower(chi.URLParam(r, "slug"))

	c, err := h.service.GetBySlug(r.Context(), slug)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get category")
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

func (h *CategoryHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	created, err := h.service.Create(r.Context(), req.input())
	if err != nil {
		respondWithServiceError(w, err, "Failed to create category")
		return
	}

	log.Info().Stringer("category_id", created.ID).Str("slug", created.Slug).Msg("Category created")
	respondWithJSON(w, http.StatusCreated, created)
}

func (h *CategoryHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	var req CategoryRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	updated, err := h.service.Update(r.Context(), categoryID, req.input())
	if err != nil {
		respondWithServiceError(w, err, "Failed to update category")
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *CategoryHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), categoryID); err != nil {
		respondWithServiceError(w, err, "Failed to delete category")
		return
	}

	log.Info().Stringer("category_id", categoryID).Msg("Category deleted")
	w.WriteHeader(http.StatusNoContent)
}
