package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/apperr"
	"github.com/vasiliy-maslov/storefront/internal/db"
	"github.com/vasiliy-maslov/storefront/internal/identity"
	"github.com/vasiliy-maslov/storefront/internal/paging"
)

const (
	defaultPageSize   = 12
	detailReviewLimit = 20
	maxReviewComment  = 500
)

type Service interface {
	ListProducts(ctx context.Context, filter ListFilter) (*Page, error)
	ListByCategory(ctx context.Context, category string, filter ListFilter) (*Page, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	ListHighlighted(ctx context.Context, h Highlight) ([]Product, error)
	ListRelated(ctx context.Context, id uuid.UUID) ([]Product, error)
	Brands(ctx context.Context) ([]string, error)
	PriceRange(ctx context.Context) (PriceRange, error)

	ListReviews(ctx context.Context, productID uuid.UUID, page, limit int) (*ReviewPage, error)
	SubmitReview(ctx context.Context, productID, userID uuid.UUID, in ReviewInput) (*Review, bool, error)

	CreateProduct(ctx context.Context, actor uuid.UUID, in CreateInput) (*Product, error)
	UpdateProduct(ctx context.Context, actor, id uuid.UUID, in UpdateInput) (*Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo  Repository
	tx    db.Transactor
	users identity.Directory
}

func NewService(repo Repository, tx db.Transactor, users identity.Directory) Service {
	return &service{repo: repo, tx: tx, users: users}
}

func (s *service) ListProducts(ctx context.Context, filter ListFilter) (*Page, error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return nil, apperr.InvalidArgument("min price cannot exceed max price")
	}

	filter.Page, filter.Limit = paging.Normalize(filter.Page, filter.Limit, defaultPageSize)

	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list products")
		return nil, fmt.Errorf("service: failed to list products: %w", err)
	}

	return &Page{
		Products:       products,
		TotalProducts:  total,
		ResultsPerPage: filter.Limit,
		CurrentPage:    filter.Page,
		TotalPages:     paging.TotalPages(total, filter.Limit),
	}, nil
}

func (s *service) ListByCategory(ctx context.Context, category string, filter ListFilter) (*Page, error) {
	filter.Category = category
	return s.ListProducts(ctx, filter)
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.wrap(err, "failed to get product", id)
	}

	reviews, _, err := s.repo.ListReviews(ctx, id, detailReviewLimit, 0)
	if err != nil {
		log.Error().Err(err).Stringer("product_id", id).Msg("service: failed to load product reviews")
		return nil, fmt.Errorf("service: failed to load reviews: %w", err)
	}
	p.Reviews = reviews
	return p, nil
}

func (s *service) ListHighlighted(ctx context.Context, h Highlight) ([]Product, error) {
	products, err := s.repo.ListHighlighted(ctx, h, HighlightLimit)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidArgument) {
			return nil, err
		}
		log.Error().Err(err).Str("highlight", string(h)).Msg("service: failed to list highlighted products")
		return nil, fmt.Errorf("service: failed to list %s products: %w", h, err)
	}
	return products, nil
}

func (s *service) ListRelated(ctx context.Context, id uuid.UUID) ([]Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.wrap(err, "failed to get product", id)
	}

	related, err := s.repo.ListRelated(ctx, p, HighlightLimit)
	if err != nil {
		log.Error().Err(err).Stringer("product_id", id).Msg("service: failed to list related products")
		return nil, fmt.Errorf("service: failed to list related products: %w", err)
	}
	return related, nil
}

func (s *service) Brands(ctx context.Context) ([]string, error) {
	brands, err := s.repo.Brands(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list brands")
		return nil, fmt.Errorf("service: failed to list brands: %w", err)
	}
	return brands, nil
}

func (s *service) PriceRange(ctx context.Context) (PriceRange, error) {
	pr, err := s.repo.PriceRange(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to compute price range")
		return PriceRange{}, fmt.Errorf("service: failed to compute price range: %w", err)
	}
	return pr, nil
}

func (s *service) ListReviews(ctx context.Context, productID uuid.UUID, page, limit int) (*ReviewPage, error) {
	p, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return nil, s.wrap(err, "failed to get product", productID)
	}

	page, limit = paging.Normalize(page, limit, paging.DefaultLimit)
	reviews, total, err := s.repo.ListReviews(ctx, productID, limit, paging.Offset(page, limit))
	if err != nil {
		log.Error().Err(err).Stringer("product_id", productID).Msg("service: failed to list reviews")
		return nil, fmt.Errorf("service: failed to list reviews: %w", err)
	}

	return &ReviewPage{
		Reviews:       reviews,
		TotalReviews:  total,
		CurrentPage:   page,
		TotalPages:    paging.TotalPages(total, limit),
		AverageRating: p.Rating,
	}, nil
}

// SubmitReview stores the caller's review, replacing an earlier one, and
// recomputes the product rating in the same transaction.
func (s *service) SubmitReview(ctx context.Context, productID, userID uuid.UUID, in ReviewInput) (*Review, bool, error) {
	comment := strings.TrimSpace(in.Comment)
	if in.Rating < 1 || in.Rating > 5 {
		return nil, false, apperr.InvalidArgument("rating must be between 1 and 5")
	}
	if comment == "" {
		return nil, false, apperr.InvalidArgument("review comment is required")
	}
	if utf8.RuneCountInString(comment) > maxReviewComment {
		return nil, false, apperr.InvalidArgument("review cannot exceed %d characters", maxReviewComment)
	}

	contact, err := s.users.Lookup(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to resolve reviewer")
		return nil, false, fmt.Errorf("service: failed to resolve reviewer: %w", err)
	}

	review := &Review{
		ProductID: productID,
		UserID:    userID,
		Name:      contact.Name,
		Rating:    in.Rating,
		Comment:   comment,
	}

	var created bool
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		locked, err := s.repo.GetForUpdate(ctx, []uuid.UUID{productID})
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return apperr.NotFound("product %s not found", productID)
		}

		created, err = s.repo.UpsertReview(ctx, review)
		if err != nil {
			return err
		}
		return s.repo.RefreshRating(ctx, productID)
	})
	if err != nil {
		return nil, false, s.wrap(err, "failed to save review", productID)
	}

	log.Info().Stringer("product_id", productID).Stringer("user_id", userID).Bool("created", created).Msg("service: review saved")
	return review, created, nil
}

func (s *service) CreateProduct(ctx context.Context, actor uuid.UUID, in CreateInput) (*Product, error) {
	p := &Product{
		Name:              strings.TrimSpace(in.Name),
		Description:       in.Description,
		ShortDescription:  in.ShortDescription,
		Price:             in.Price,
		DiscountPrice:     in.DiscountPrice,
		Category:          in.Category,
		Subcategory:       in.Subcategory,
		Brand:             strings.TrimSpace(in.Brand),
		Model:             strings.TrimSpace(in.Model),
		SKU:               strings.ToUpper(strings.TrimSpace(in.SKU)),
		Images:            in.Images,
		Specifications:    in.Specifications,
		Features:          in.Features,
		Tags:              in.Tags,
		Stock:             in.Stock,
		LowStockThreshold: 10,
		Availability:      true,
		Status:            StatusActive,
		Featured:          in.Featured,
		Trending:          in.Trending,
		BestSeller:        in.BestSeller,
	}
	if in.LowStockThreshold != nil {
		p.LowStockThreshold = *in.LowStockThreshold
	}
	if actor != uuid.Nil {
		p.CreatedBy = &actor
		p.LastModifiedBy = &actor
	}

	if err := Validate(p); err != nil {
		return nil, err
	}
	if p.SKU == "" {
		p.SKU = GenerateSKU(p.Brand, p.Category)
	}

	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, apperr.Conflict("product with SKU %s already exists", p.SKU)
		}
		return nil, s.wrap(err, "failed to create product", p.ID)
	}

	log.Info().Stringer("product_id", p.ID).Str("sku", p.SKU).Msg("service: product created")
	return p, nil
}

func (s *service) UpdateProduct(ctx context.Context, actor, id uuid.UUID, in UpdateInput) (*Product, error) {
	var updated *Product
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		locked, err := s.repo.GetForUpdate(ctx, []uuid.UUID{id})
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return apperr.NotFound("product %s not found", id)
		}

		p := &locked[0]
		in.apply(p)
		if actor != uuid.Nil {
			p.LastModifiedBy = &actor
		}
		if err := Validate(p); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, s.wrap(err, "failed to update product", id)
	}

	log.Info().Stringer("product_id", id).Msg("service: product updated")
	return updated, nil
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.wrap(err, "failed to delete product", id)
	}
	log.Info().Stringer("product_id", id).Msg("service: product deleted")
	return nil
}

func (in UpdateInput) apply(p *Product) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.ShortDescription != nil {
		p.ShortDescription = *in.ShortDescription
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.ClearDiscount {
		p.DiscountPrice = nil
	} else if in.DiscountPrice != nil {
		d := *in.DiscountPrice
		p.DiscountPrice = &d
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Subcategory != nil {
		p.Subcategory = *in.Subcategory
	}
	if in.Brand != nil {
		p.Brand = strings.TrimSpace(*in.Brand)
	}
	if in.Model != nil {
		p.Model = strings.TrimSpace(*in.Model)
	}
	if in.Images != nil {
		p.Images = *in.Images
	}
	if in.Specifications != nil {
		p.Specifications = *in.Specifications
	}
	if in.Features != nil {
		p.Features = *in.Features
	}
	if in.Tags != nil {
		p.Tags = *in.Tags
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.LowStockThreshold != nil {
		p.LowStockThreshold = *in.LowStockThreshold
	}
	if in.Availability != nil {
		p.Availability = *in.Availability
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	if in.Featured != nil {
		p.Featured = *in.Featured
	}
	if in.Trending != nil {
		p.Trending = *in.Trending
	}
	if in.BestSeller != nil {
		p.BestSeller = *in.BestSeller
	}
}

// Validate checks the catalog rules a product must satisfy before it is stored.
func Validate(p *Product) error {
	switch {
	case p.Name == "":
		return apperr.InvalidArgument("product name is required")
	case utf8.RuneCountInString(p.Name) > 100:
		return apperr.InvalidArgument("product name cannot exceed 100 characters")
	case strings.TrimSpace(p.Description) == "":
		return apperr.InvalidArgument("product description is required")
	case utf8.RuneCountInString(p.Description) > 2000:
		return apperr.InvalidArgument("description cannot exceed 2000 characters")
	case utf8.RuneCountInString(p.ShortDescription) > 200:
		return apperr.InvalidArgument("short description cannot exceed 200 characters")
	case !p.Price.IsPositive():
		return apperr.InvalidArgument("price must be greater than 0")
	case p.DiscountPrice != nil && p.DiscountPrice.IsNegative():
		return apperr.InvalidArgument("discount price cannot be negative")
	case p.DiscountPrice != nil && !p.DiscountPrice.LessThan(p.Price):
		return apperr.InvalidArgument("discount price must be less than regular price")
	case !ValidCategory(p.Category):
		return apperr.InvalidArgument("invalid category %q", p.Category)
	case strings.TrimSpace(p.Subcategory) == "":
		return apperr.InvalidArgument("subcategory is required")
	case p.Brand == "":
		return apperr.InvalidArgument("brand is required")
	case p.Stock < 0:
		return apperr.InvalidArgument("stock cannot be negative")
	case p.LowStockThreshold < 0:
		return apperr.InvalidArgument("low stock threshold cannot be negative")
	case !p.Status.Valid():
		return apperr.InvalidArgument("invalid product status %q", p.Status)
	}
	for _, img := range p.Images {
		if strings.TrimSpace(img.URL) == "" {
			return apperr.InvalidArgument("image url is required")
		}
	}
	return nil
}

// wrap keeps domain errors as they are and decorates infrastructure ones.
func (s *service) wrap(err error, action string, id uuid.UUID) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		log.Warn().Err(err).Stringer("product_id", id).Msgf("service: %s", action)
		return err
	}
	log.Error().Err(err).Stringer("product_id", id).Msgf("service: %s", action)
	return fmt.Errorf("service: %s: %w", action, err)
}
