package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/storefront/internal/identity"
	"github.com/vasiliy-maslov/storefront/internal/product"
)

type CreateProductRequest struct {
	Name              string                  `json:"name" validate:"required,max=100"`
	Description       string                  `json:"description" validate:"required,max=2000"`
	ShortDescription  string                  `json:"short_description" validate:"max=200"`
	Price             decimal.Decimal         `json:"price"`
	DiscountPrice     *decimal.Decimal        `json:"discount_price"`
	Category          string                  `json:"category" validate:"required"`
	Subcategory       string                  `json:"subcategory" validate:"required"`
	Brand             string                  `json:"brand" validate:"required"`
	Model             string                  `json:"model"`
	SKU               string                  `json:"sku"`
	Images            []product.Image         `json:"images" validate:"dive"`
	Specifications    []product.Specification `json:"specifications"`
	Features          []string                `json:"features"`
	Tags              []string                `json:"tags"`
	Stock             int                     `json:"stock" validate:"min=0"`
	LowStockThreshold *int                    `json:"low_stock_threshold"`
	Featured          bool                    `json:"featured"`
	Trending          bool                    `json:"trending"`
	BestSeller        bool                    `json:"best_seller"`
}

type UpdateProductRequest struct {
	Name              *string                  `json:"name" validate:"omitempty,max=100"`
	Description       *string                  `json:"description" validate:"omitempty,max=2000"`
	ShortDescription  *string                  `json:"short_description" validate:"omitempty,max=200"`
	Price             *decimal.Decimal         `json:"price"`
	DiscountPrice     *decimal.Decimal         `json:"discount_price"`
	ClearDiscount     bool                     `json:"clear_discount"`
	Category          *string                  `json:"category"`
	Subcategory       *string                  `json:"subcategory"`
	Brand             *string                  `json:"brand"`
	Model             *string                  `json:"model"`
	Images            *[]product.Image         `json:"images"`
	Specifications    *[]product.Specification `json:"specifications"`
	Features          *[]string                `json:"features"`
	Tags              *[]string                `json:"tags"`
	Stock             *int                     `json:"stock" validate:"omitempty,min=0"`
	LowStockThreshold *int                     `json:"low_stock_threshold" validate:"omitempty,min=0"`
	Availability      *bool                    `json:"availability"`
	Status            *string                  `json:"status" validate:"omitempty,oneof=active inactive discontinued"`
	Featured          *bool                    `json:"featured"`
	Trending          *bool                    `json:"trending"`
	BestSeller        *bool                    `json:"best_seller"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required,max=500"`
}

// ProductResponse adds the derived pricing and stock fields to a product.
type ProductResponse struct {
	product.Product
	FinalPrice         decimal.Decimal     `json:"final_price"`
	DiscountPercentage int                 `json:"discount_percentage"`
	StockStatus        product.StockStatus `json:"stock_status"`
}

type ProductListResponse struct {
	Products       []ProductResponse `json:"products"`
	TotalProducts  int               `json:"total_products"`
	ResultsPerPage int               `json:"results_per_page"`
	CurrentPage    int               `json:"current_page"`
	TotalPages     int               `json:"total_pages"`
}

func toProductResponse(p *product.Product) ProductResponse {
	return ProductResponse{
		Product:            *p,
		FinalPrice:         p.FinalPrice(),
		DiscountPercentage: p.DiscountPercentage(),
		StockStatus:        p.StockStatus(),
	}
}

func toProductResponses(products []product.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, toProductResponse(&products[i]))
	}
	return out
}

type ProductHandler struct {
	service  product.Service
	validate *validator.Validate
}

func NewProductHandler(service product.Service) *ProductHandler {
	return &ProductHandler{service: service, validate: newValidator()}
}

func (h *ProductHandler) RegisterRoutes(router chi.Router) {
	router.Get("/products", h.handleListProducts)
	router.Get("/products/featured", h.handleHighlighted(product.HighlightFeatured))
	router.Get("/products/trending", h.handleHighlighted(product.HighlightTrending))
	router.Get("/products/bestsellers", h.handleHighlighted(product.HighlightBestSeller))
	router.Get("/products/brands", h.handleBrands)
	router.Get("/products/price-range", h.handlePriceRange)
	router.Get("/products/category/{category}", h.handleListByCategory)
	router.Get("/products/{id}", h.handleGetProduct)
	router.Get("/products/{id}/reviews", h.handleListReviews)
	router.Get("/products/{id}/related", h.handleListRelated)

	router.With(identity.RequireAuthenticated).Post("/products/{id}/reviews", h.handleSubmitReview)
}

func (h *ProductHandler) RegisterAdminRoutes(router chi.Router) {
	router.Post("/products", h.handleCreateProduct)
	router.Put("/products/{id}", h.handleUpdateProduct)
	router.Delete("/products/{id}", h.handleDeleteProduct)
}

// productFilterFromQuery reads the catalog filters. It writes a 400 and
// returns false on a malformed numeric filter.
func productFilterFromQuery(w http.ResponseWriter, r *http.Request) (product.ListFilter, bool) {
	q := r.URL.Query()
	filter := product.ListFilter{
		Category: strings.ToLower(q.Get("category")),
		Brand:    q.Get("brand"),
		Search:   q.Get("search"),
		Sort:     product.Sort(q.Get("sort")),
		Page:     queryInt(r, "page"),
		Limit:    queryInt(r, "limit"),
	}
	if filter.Search == "" {
		filter.Search = q.Get("keyword")
	}

	for _, p := range []struct {
		key string
		dst **decimal.Decimal
	}{{"min_price", &filter.MinPrice}, {"max_price", &filter.MaxPrice}} {
		raw := q.Get(p.key)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid "+p.key+" parameter")
			return filter, false
		}
		*p.dst = &d
	}

	if raw := q.Get("min_rating"); raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid min_rating parameter")
			return filter, false
		}
		filter.MinRating = &rating
	}

	return filter, true
}

func (h *ProductHandler) writePage(w http.ResponseWriter, page *product.Page) {
	respondWithJSON(w, http.StatusOK, ProductListResponse{
		Products:       toProductResponses(page.Products),
		TotalProducts:  page.TotalProducts,
		ResultsPerPage: page.ResultsPerPage,
		CurrentPage:    page.CurrentPage,
		TotalPages:     page.TotalPages,
	})
}

func (h *ProductHandler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	filter, ok := productFilterFromQuery(w, r)
	if !ok {
		return
	}

	page, err := h.service.ListProducts(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, err, "Failed to list products")
		return
	}
	h.writePage(w, page)
}

func (h *ProductHandler) handleListByCategory(w http.ResponseWriter, r *http.Request) {
	filter, ok := productFilterFromQuery(w, r)
	if !ok {
		return
	}
	category := strings.ToLower(chi.URLParam(r, "category"))

	page, err := h.service.ListByCategory(r.Context(), category, filter)
	if err != nil {
		respondWithServiceError(w, err, "Failed to list products")
		return
	}
	h.writePage(w, page)
}

func (h *ProductHandler) handleHighlighted(highlight product.Highlight) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := h.service.ListHighlighted(r.Context(), highlight)
		if err != nil {
			respondWithServiceError(w, err, "Failed to list products")
			return
		}
		respondWithJSON(w, http.StatusOK, toProductResponses(products))
	}
}

func (h *ProductHandler) handleBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.service.Brands(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to list brands")
		return
	}
	respondWithJSON(w, http.StatusOK, brands)
}

func (h *ProductHandler) handlePriceRange(w http.ResponseWriter, r *http.Request) {
	pr, err := h.service.PriceRange(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to get price range")
		return
	}
	respondWithJSON(w, http.StatusOK, pr)
}

func (h *ProductHandler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	p, err := h.service.GetProduct(r.Context(), productID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get product")
		return
	}
	respondWithJSON(w, http.StatusOK, toProductResponse(p))
}

func (h *ProductHandler) handleListRelated(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	related, err := h.service.ListRelated(r.Context(), productID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to list related products")
		return
	}
	respondWithJSON(w, http.StatusOK, toProductResponses(related))
}

func (h *ProductHandler) handleListReviews(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	page, err := h.service.ListReviews(r.Context(), productID, queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		respondWithServiceError(w, err, "Failed to list reviews")
		return
	}
	respondWithJSON(w, http.StatusOK, page)
}

func (h *ProductHandler) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}
	principal, _ := identity.FromContext(r.Context())

	var requestPayload ReviewRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	review, created, err := h.service.SubmitReview(r.Context(), productID, principal.UserID, product.ReviewInput{
		Rating:  requestPayload.Rating,
		Comment: requestPayload.Comment,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to save review")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondWithJSON(w, status, review)
}

func (h *ProductHandler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.FromContext(r.Context())

	var req CreateProductRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	created, err := h.service.CreateProduct(r.Context(), principal.UserID, product.CreateInput{
		Name:              req.Name,
		Description:       req.Description,
		ShortDescription:  req.ShortDescription,
		Price:             req.Price,
		DiscountPrice:     req.DiscountPrice,
		Category:          strings.ToLower(req.Category),
		Subcategory:       req.Subcategory,
		Brand:             req.Brand,
		Model:             req.Model,
		SKU:               req.SKU,
		Images:            req.Images,
		Specifications:    req.Specifications,
		Features:          req.Features,
		Tags:              req.Tags,
		Stock:             req.Stock,
		LowStockThreshold: req.LowStockThreshold,
		Featured:          req.Featured,
		Trending:          req.Trending,
		BestSeller:        req.BestSeller,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to create product")
		return
	}

	log.Info().Stringer("product_id", created.ID).Str("sku", created.SKU).Msg("Product created")
	respondWithJSON(w, http.StatusCreated, toProductResponse(created))
}

func (h *ProductHandler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}
	principal, _ := identity.FromContext(r.Context())

	var req UpdateProductRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	in := product.UpdateInput{
		Name:              req.Name,
		Description:       req.Description,
		ShortDescription:  req.ShortDescription,
		Price:             req.Price,
		DiscountPrice:     req.DiscountPrice,
		ClearDiscount:     req.ClearDiscount,
		Category:          req.Category,
		Subcategory:       req.Subcategory,
		Brand:             req.Brand,
		Model:             req.Model,
		Images:            req.Images,
		Specifications:    req.Specifications,
		Features:          req.Features,
		Tags:              req.Tags,
		Stock:             req.Stock,
		LowStockThreshold: req.LowStockThreshold,
		Availability:      req.Availability,
		Featured:          req.Featured,
		Trending:          req.Trending,
		BestSeller:        req.BestSeller,
	}
	if req.Status != nil {
		status := product.Status(*req.Status)
		in.Status = &status
	}

	updated, err := h.service.UpdateProduct(r.Context(), principal.UserID, productID, in)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update product")
		return
	}
	respondWithJSON(w, http.StatusOK, toProductResponse(updated))
}

func (h *ProductHandler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(r.Context(), productID); err != nil {
		respondWithServiceError(w, err, "Failed to delete product")
		return
	}

	log.Info().Stringer("product_id", productID).Msg("Product deleted")
	w.WriteHeader(http.StatusNoContent)
}
