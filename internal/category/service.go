package category

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/apperr"
	"github.com/vasiliy-maslov/storefront/internal/db"
)

const featuredLimit = 8

type Service interface {
	List(ctx context.Context) ([]Category, error)
	Featured(ctx context.Context) ([]Category, error)
	GetBySlug(ctx context.Context, slug string) (*Category, error)
	Create(ctx context.Context, in Input) (*Category, error)
	Update(ctx context.Context, id uuid.UUID, in Input) (*Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
	tx   db.Transactor
}

func NewService(repo Repository, tx db.Transactor) Service {
	return &service{repo: repo, tx: tx}
}

func (s *service) List(ctx context.Context) ([]Category, error) {
	categories, err := s.repo.ListActive(ctx, false, 0)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list categories")
		return nil, fmt.Errorf("service: failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *service) Featured(ctx context.Context) ([]Category, error) {
	categories, err := s.repo.ListActive(ctx, true, featuredLimit)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list featured categories")
		return nil, fmt.Errorf("service: failed to list featured categories: %w", err)
	}
	return categories, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*Category, error) {
	c, err := s.repo.GetBySlug(ctx, strings.ToLower(slug))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		log.Error().Err(err).Str("slug", slug).Msg("service: failed to get category by slug")
		return nil, fmt.Errorf("service: failed to get category: %w", err)
	}
	return c, nil
}

func (s *service) Create(ctx context.Context, in Input) (*Category, error) {
	c := &Category{IsActive: true}
	in.apply(c)
	if err := validate(c); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, apperr.Conflict("category %q already exists", c.Name)
		}
		if errors.Is(err, apperr.ErrInvalidArgument) {
			return nil, err
		}
		return nil, fmt.Errorf("service: failed to create category: %w", err)
	}

	log.Info().Stringer("category_id", c.ID).Str("slug", c.Slug).Msg("service: category created")
	return c, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, in Input) (*Category, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service: failed to get category: %w", err)
	}

	in.apply(c)
	if c.ParentID != nil && *c.ParentID == c.ID {
		return nil, apperr.InvalidArgument("category cannot be its own parent")
	}
	if err := validate(c); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, c); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, apperr.Conflict("category %q already exists", c.Name)
		}
		if errors.Is(err, apperr.ErrInvalidArgument) || errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service: failed to update category: %w", err)
	}

	log.Info().Stringer("category_id", c.ID).Msg("service: category updated")
	return c, nil
}

// Delete refuses to remove a category that still has products.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		n, err := s.repo.CountProducts(ctx, c)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperr.InvalidState("cannot delete category with %d existing products", n)
		}
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			log.Warn().Err(err).Stringer("category_id", id).Msg("service: category delete rejected")
			return err
		}
		log.Error().Err(err).Stringer("category_id", id).Msg("service: failed to delete category")
		return fmt.Errorf("service: failed to delete category: %w", err)
	}

	log.Info().Stringer("category_id", id).Msg("service: category deleted")
	return nil
}

func (in Input) apply(c *Category) {
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
		c.Slug = Slugify(c.Name)
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.ImageURL != nil {
		c.ImageURL = *in.ImageURL
	}
	if in.ParentID != nil {
		if *in.ParentID == uuid.Nil {
			c.ParentID = nil
		} else {
			parent := *in.ParentID
			c.ParentID = &parent
		}
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if in.Featured != nil {
		c.Featured = *in.Featured
	}
	if in.SortOrder != nil {
		c.SortOrder = *in.SortOrder
	}
}

func validate(c *Category) error {
	switch {
	case c.Name == "":
		return apperr.InvalidArgument("category name is required")
	case len(c.Name) > 100:
		return apperr.InvalidArgument("category name cannot exceed 100 characters")
	case c.Slug == "":
		return apperr.InvalidArgument("category name must contain letters or digits")
	}
	return nil
}
